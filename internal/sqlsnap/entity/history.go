package entity

import (
	"time"
)

// 历史记录的动作类型
const (
	ActionSnapshotCreated   = "snapshot_created"
	ActionSnapshotDeleted   = "snapshot_deleted"
	ActionSnapshotCleaned   = "snapshot_cleaned"
	ActionRollback          = "rollback"
	ActionOrphansReconciled = "orphans_reconciled"
	ActionGroupDeleted      = "group_deleted"
	ActionGroupMutated      = "group_mutated"
)

// HistoryEntry 编排动作的审计记录，只追加不修改
// 超过上限时最旧的先被裁掉
type HistoryEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	GroupName  string    `json:"groupName,omitempty"`
	SnapshotID string    `json:"snapshotId,omitempty"`
	Message    string    `json:"message"`
	Details    any       `json:"details,omitempty"` // 结构化的逐库结果等
	CreatedAt  time.Time `json:"createdAt"`
}

// ListHistoryRequest 查询历史请求
type ListHistoryRequest struct {
	Limit int `form:"limit"`
}

type ListHistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}
