package model

import (
	"time"

	"gorm.io/gorm"
)

// Snapshot 快照表
type Snapshot struct {
	ID        string         `gorm:"primaryKey;type:text;column:id" json:"id"`                                            // sf_{分组名规范化}_{hash8}
	GroupID   string         `gorm:"type:text;not null;index:idx_snapshots_group_id;column:group_id" json:"groupID"`      // 关联 groups.id
	GroupName string         `gorm:"type:text;column:group_name" json:"groupName"`                                        // 反规范化，旧数据可能为空
	Name      string         `gorm:"type:text;not null;column:name" json:"name"`                                          // 去除首尾空白的用户标签
	Sequence  int            `gorm:"type:integer;not null;column:sequence" json:"sequence"`                               // 组内单调递增，删除后不复用
	CreatedAt time.Time      `gorm:"type:datetime;not null;index:idx_snapshots_created_at;column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"type:datetime;index:idx_snapshots_deleted_at;column:deleted_at" json:"deleted_at,omitempty"` // 软删除
}

// TableName 指定表名
func (Snapshot) TableName() string {
	return "snapshots"
}

// DatabaseSnapshot 快照子表，记录逐库结果
type DatabaseSnapshot struct {
	ID           uint           `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	SnapshotID   string         `gorm:"type:text;not null;index:idx_database_snapshots_snapshot_id;column:snapshot_id" json:"snapshotID"` // 关联 snapshots.id
	Position     int            `gorm:"type:integer;not null;column:position" json:"position"`                                            // 分组内数据库顺序
	Database     string         `gorm:"type:text;not null;column:database_name" json:"database"`
	ArtifactName string         `gorm:"type:text;column:artifact_name" json:"artifactName"` // {snapshotId}_{database}，失败时为空
	Files        string         `gorm:"type:text;column:files" json:"files"`                // JSON 数组，稀疏文件物理路径
	Success      bool           `gorm:"type:boolean;default:0;column:success" json:"success"`
	Error        string         `gorm:"type:text;column:error" json:"error"`
	CreatedAt    time.Time      `gorm:"type:datetime;not null;column:created_at" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"type:datetime;index:idx_database_snapshots_deleted_at;column:deleted_at" json:"deleted_at,omitempty"` // 随父快照同进退
}

// TableName 指定表名
func (DatabaseSnapshot) TableName() string {
	return "database_snapshots"
}
