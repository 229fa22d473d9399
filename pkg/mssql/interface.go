package mssql

import (
	"context"
	"time"
)

// Config 引擎连接配置
// 每次操作按 Profile 建立独立连接，用完即关，不持有全局单例
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
}

// DataFile 源库的一个数据文件（不含日志文件）
type DataFile struct {
	LogicalName  string `json:"logicalName"`
	PhysicalPath string `json:"physicalPath"`
}

// SnapshotFile 快照库的一个稀疏文件，逻辑名必须与源库数据文件一致
type SnapshotFile struct {
	LogicalName string `json:"logicalName"`
	Path        string `json:"path"`
}

// SnapshotArtifact 引擎侧的快照库（source_database_id 非空的数据库）
type SnapshotArtifact struct {
	Name           string    `json:"name"`
	SourceDatabase string    `json:"sourceDatabase"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Client 定义引擎客户端接口
// 用于抽象 SQL Server 快照原语，便于测试和 mock
type Client interface {
	// 连接
	Ping(ctx context.Context) error
	Close() error

	// 数据库检查
	DatabaseExists(ctx context.Context, name string) (bool, error)
	ListDataFiles(ctx context.Context, database string) ([]DataFile, error)
	ListPhysicalFiles(ctx context.Context, database string) ([]string, error)

	// 快照操作
	CreateSnapshot(ctx context.Context, source, artifact string, files []SnapshotFile) error
	ListSnapshotArtifacts(ctx context.Context) ([]SnapshotArtifact, error)
	ProbeSnapshot(ctx context.Context, artifact string) error
	RestoreFromSnapshot(ctx context.Context, database, artifact string) error

	// 数据库状态切换
	DropDatabase(ctx context.Context, name string) error
	SetSingleUser(ctx context.Context, name string) error
	SetMultiUser(ctx context.Context, name string) error
}

// Connector 按配置建立引擎连接
type Connector interface {
	Connect(ctx context.Context, cfg *Config) (Client, error)
}
