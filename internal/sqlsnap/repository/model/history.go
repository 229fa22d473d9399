package model

import (
	"time"
)

// HistoryEntry 历史记录表，只追加不修改，裁剪时物理删除最旧的
type HistoryEntry struct {
	ID         string    `gorm:"primaryKey;type:text;column:id" json:"id"` // hist-{id}
	Action     string    `gorm:"type:text;not null;index:idx_history_entries_action;column:action" json:"action"`
	GroupName  string    `gorm:"type:text;column:group_name" json:"groupName"`
	SnapshotID string    `gorm:"type:text;column:snapshot_id" json:"snapshotID"`
	Message    string    `gorm:"type:text;not null;column:message" json:"message"`
	Details    string    `gorm:"type:text;column:details" json:"details"` // JSON，逐库结果等
	CreatedAt  time.Time `gorm:"type:datetime;not null;index:idx_history_entries_created_at;column:created_at" json:"created_at"`
}

// TableName 指定表名
func (HistoryEntry) TableName() string {
	return "history_entries"
}
