package model

import (
	"time"
)

// Settings 全局设置表，单行，id 固定为 1
type Settings struct {
	ID                int       `gorm:"primaryKey;column:id" json:"id"`
	AutoCheckpoint    bool      `gorm:"type:boolean;default:1;column:auto_checkpoint" json:"autoCheckpoint"`
	MaxHistoryEntries int       `gorm:"type:integer;not null;column:max_history_entries" json:"maxHistoryEntries"`
	FileAPIURL        string    `gorm:"type:text;column:file_api_url" json:"fileApiUrl"`
	FileAPIUsername   string    `gorm:"type:text;column:file_api_username" json:"fileApiUsername"`
	FileAPIPassword   string    `gorm:"type:text;column:file_api_password" json:"-"` // AES-GCM 密文，base64 编码
	UpdatedAt         time.Time `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`
}

// TableName 指定表名
func (Settings) TableName() string {
	return "settings"
}

// 默认值
const (
	DefaultMaxHistoryEntries = 200
	SettingsRowID            = 1
)
