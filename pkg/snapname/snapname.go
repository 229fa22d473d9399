package snapname

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const (
	// Prefix 是所有由本系统管理的快照库名称的固定前缀
	// 创建和回滚共用这一约定：回滚时通过该前缀识别兄弟快照
	Prefix = "sf_"

	// FileSuffix 是快照稀疏文件的扩展名
	FileSuffix = ".ss"
)

// Normalize 规范化分组名，结果总是以 Prefix 开头
// 小写化，非字母数字字符压缩为单个下划线，首尾下划线去除
func Normalize(groupName string) string {
	var b strings.Builder
	b.WriteString(Prefix)

	lastUnderscore := true // 避免前缀后直接跟下划线
	for _, r := range strings.ToLower(groupName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "_")
}

// SnapshotID 生成快照 ID：normalize(分组名) + "_" + hash8(标签 + 创建时间)
// 同一分组下由标签和时间戳共同决定，具备抗碰撞性
func SnapshotID(groupName, label string, now time.Time) string {
	return Normalize(groupName) + "_" + hash8(label+now.UTC().Format(time.RFC3339))
}

// ArtifactName 生成引擎侧快照库名称：{snapshotID}_{database}
// 引擎全局唯一（snapshotID 唯一且数据库名在一次快照内不重复）
func ArtifactName(snapshotID, database string) string {
	return snapshotID + "_" + database
}

// PhysicalFileName 生成快照稀疏文件名：{artifact}_{逻辑文件名}.ss
func PhysicalFileName(artifactName, logicalName string) string {
	return artifactName + "_" + logicalName + FileSuffix
}

// PhysicalFilePath 拼接引擎侧的稀疏文件完整路径
// 路径分隔符跟随 snapshotDir 本身（引擎可能运行在 Windows 上），
// 不能使用本地 filepath 的分隔符
func PhysicalFilePath(snapshotDir, artifactName, logicalName string) string {
	sep := "/"
	if strings.Contains(snapshotDir, `\`) {
		sep = `\`
	}
	dir := strings.TrimRight(snapshotDir, `/\`)
	return dir + sep + PhysicalFileName(artifactName, logicalName)
}

// MatchesConvention 判断引擎侧库名是否符合本系统的快照命名约定
// 回滚的兄弟清理与孤儿识别都依赖这一判断
func MatchesConvention(artifactName string) bool {
	return strings.HasPrefix(artifactName, Prefix)
}

// BelongsTo 判断快照库是否属于指定快照
func BelongsTo(artifactName, snapshotID string) bool {
	return strings.HasPrefix(artifactName, snapshotID+"_")
}

// IsSnapshotFile 判断文件名是否是本系统生成的快照稀疏文件
// 用于与外部文件列表交叉比对
func IsSnapshotFile(fileName string) bool {
	return strings.HasPrefix(fileName, Prefix) && strings.HasSuffix(fileName, FileSuffix)
}

// hash8 计算输入的 SHA-256 摘要并取十六进制前 8 位
func hash8(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:8]
}
