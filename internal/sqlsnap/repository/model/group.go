package model

import (
	"time"

	"gorm.io/gorm"
)

// Group 分组表
type Group struct {
	ID        string         `gorm:"primaryKey;type:text;column:id" json:"id"`                                          // grp-{id}
	ProfileID string         `gorm:"type:text;not null;index:idx_groups_profile_id;column:profile_id" json:"profileID"` // 关联 profiles.id
	Name      string         `gorm:"type:text;not null;column:name" json:"name"`
	Databases string         `gorm:"type:text;not null;column:databases" json:"databases"` // JSON 数组，保序
	CreatedAt time.Time      `gorm:"type:datetime;not null;column:created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"type:datetime;index:idx_groups_deleted_at;column:deleted_at" json:"deleted_at,omitempty"` // 软删除
}

// TableName 指定表名
func (Group) TableName() string {
	return "groups"
}
