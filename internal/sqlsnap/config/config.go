package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	// Address 是 HTTP 服务的监听地址
	// 可以通过环境变量 SQLSNAP_ADDRESS 配置
	// 默认：0.0.0.0:7878
	Address string

	// DataDir 是 sqlsnap 数据目录
	// 用于存储元数据库（sqlite 文件）
	// 可以通过环境变量 SQLSNAP_DATA_DIR 配置
	// 默认：~/.local/share/sqlsnap
	DataDir string

	// Secret 用于连接配置密码的加密密钥
	// 可以通过环境变量 SQLSNAP_SECRET 配置
	// 留空时使用内置默认值（仅适合本地开发）
	Secret string

	// ProfilesFile 是启动时导入的连接配置 YAML 文件路径（可选）
	// 可以通过环境变量 SQLSNAP_PROFILES_FILE 配置
	ProfilesFile string
}

func New() (*Config, error) {
	cfg := &Config{
		Address:      getAddress(),
		DataDir:      getDataDir(),
		Secret:       getSecret(),
		ProfilesFile: os.Getenv("SQLSNAP_PROFILES_FILE"),
	}
	return cfg, nil
}

// MetaDBPath 返回元数据库文件路径
func (c *Config) MetaDBPath() string {
	return filepath.Join(c.DataDir, "sqlsnap.db")
}

// getAddress 获取绑定地址，优先使用环境变量 SQLSNAP_ADDRESS
func getAddress() string {
	if addr := os.Getenv("SQLSNAP_ADDRESS"); addr != "" {
		return addr
	}

	return "0.0.0.0:7878"
}

// getDataDir 获取数据目录，优先使用环境变量
func getDataDir() string {
	// 1. 优先使用环境变量 SQLSNAP_DATA_DIR
	if dir := os.Getenv("SQLSNAP_DATA_DIR"); dir != "" {
		return dir
	}

	// 2. 使用用户主目录下的 .local/share/sqlsnap
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "sqlsnap")
	}

	// 3. 如果无法获取主目录，使用当前目录下的 data
	return filepath.Join(".", "data")
}

// getSecret 获取加密密钥，优先使用环境变量 SQLSNAP_SECRET
func getSecret() string {
	if secret := os.Getenv("SQLSNAP_SECRET"); secret != "" {
		return secret
	}

	return "sqlsnap-insecure-default-secret"
}
