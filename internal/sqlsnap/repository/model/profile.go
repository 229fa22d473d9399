package model

import (
	"time"

	"gorm.io/gorm"
)

// Profile 连接配置表
type Profile struct {
	ID          string         `gorm:"primaryKey;type:text;column:id" json:"id"` // prof-{id}
	Name        string         `gorm:"type:text;not null;column:name" json:"name"`
	Host        string         `gorm:"type:text;not null;column:host" json:"host"`
	Port        int            `gorm:"type:integer;column:port" json:"port"`
	Username    string         `gorm:"type:text;not null;column:username" json:"username"`
	Password    string         `gorm:"type:text;column:password" json:"-"` // AES-GCM 密文，base64 编码
	SnapshotDir string         `gorm:"type:text;not null;column:snapshot_dir" json:"snapshotDir"`
	CreatedAt   time.Time      `gorm:"type:datetime;not null;column:created_at" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"type:datetime;index:idx_profiles_deleted_at;column:deleted_at" json:"deleted_at,omitempty"` // 软删除
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}
