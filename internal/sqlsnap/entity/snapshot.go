package entity

import (
	"strings"
	"time"

	"github.com/jimyag/sqlsnap/pkg/apierror"
)

// Snapshot 分组的一次整体快照
type Snapshot struct {
	ID        string             `json:"id"`                  // sf_{分组名规范化}_{hash8}
	GroupID   string             `json:"groupId"`
	GroupName string             `json:"groupName,omitempty"` // 反规范化字段，旧数据可能为空
	Name      string             `json:"name"`                // 去除首尾空白的用户标签
	Sequence  int                `json:"sequence"`            // 组内单调递增，删除后不复用
	CreatedAt time.Time          `json:"createdAt"`
	Databases []DatabaseSnapshot `json:"databases"`
}

// DatabaseSnapshot 快照内单个源库的结果
// success=false 的条目没有引擎侧快照库，回滚和清理都会跳过它
type DatabaseSnapshot struct {
	Database     string   `json:"database"`
	ArtifactName string   `json:"artifactName,omitempty"` // {snapshotId}_{database}
	Files        []string `json:"files,omitempty"`        // 稀疏文件的物理路径
	Success      bool     `json:"success"`
	Error        string   `json:"error,omitempty"`
}

// CreateSnapshotRequest 创建快照请求
type CreateSnapshotRequest struct {
	GroupID string `uri:"id" binding:"required"`
	Label   string `json:"label"`
}

func (r *CreateSnapshotRequest) IsValid() error {
	if strings.TrimSpace(r.Label) == "" {
		return apierror.WrapError(apierror.ErrValidation, "snapshot label must not be blank", nil)
	}
	return nil
}

type CreateSnapshotResponse struct {
	Snapshot *Snapshot `json:"snapshot"`
}

// ListSnapshotsRequest 列举分组快照请求
type ListSnapshotsRequest struct {
	GroupID string `uri:"id" binding:"required"`
}

// ListSnapshotsResponse 除元数据快照外还带出引擎侧的孤儿快照库
type ListSnapshotsResponse struct {
	Snapshots          []Snapshot          `json:"snapshots"`
	UnmanagedArtifacts []UnmanagedArtifact `json:"unmanagedArtifacts,omitempty"`
}

// DeleteSnapshotRequest 删除单个快照请求
type DeleteSnapshotRequest struct {
	ID string `uri:"id" binding:"required"`
}

// DeleteSnapshotResponse 删除结果
// 逐库的删除失败不会让整个请求失败，失败明细总是随结果返回
type DeleteSnapshotResponse struct {
	SnapshotID       string   `json:"snapshotId"`
	DroppedArtifacts []string `json:"droppedArtifacts"`
	Warnings         []string `json:"warnings,omitempty"`
}

// RollbackRequest 回滚到指定快照请求
type RollbackRequest struct {
	ID string `uri:"id" binding:"required"`
}

// RollbackResult 回滚结果
// failedRollbacks 永远存在（可能为空），调用方据此区分
// 完全干净的回滚与带部分失败的回滚
type RollbackResult struct {
	SnapshotID          string            `json:"snapshotId"`
	GroupID             string            `json:"groupId"`
	RolledBackDatabases []string          `json:"rolledBackDatabases"`
	FailedRollbacks     []FailedRollback  `json:"failedRollbacks"`
	DroppedSiblings     int               `json:"droppedSiblings"`
	Checkpoint          *CheckpointResult `json:"checkpoint,omitempty"`
}

// FailedRollback 单库回滚失败的明细
type FailedRollback struct {
	Database string `json:"database"`
	Error    string `json:"error"`
}

// CheckpointResult 回滚后自动检查点的结果
// 检查点失败只作为警告上报，不影响回滚本身的成败
type CheckpointResult struct {
	SnapshotID string `json:"snapshotId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CleanupSnapshotRequest 强制清理单个快照请求
// 与删除的区别：引擎侧清理失败也照样移除元数据
type CleanupSnapshotRequest struct {
	ID string `uri:"id" binding:"required"`
}

// CleanupAllRequest 清理一个连接配置下的全部快照请求
type CleanupAllRequest struct {
	ProfileID string `json:"profileId" binding:"required"`
}

// CleanupResult 清理结果
type CleanupResult struct {
	RemovedSnapshots int      `json:"removedSnapshots"`
	DroppedArtifacts []string `json:"droppedArtifacts"`
	Warnings         []string `json:"warnings,omitempty"`
}

// ReconcileRequest 孤儿快照清扫请求
type ReconcileRequest struct {
	ProfileID string `json:"profileId" binding:"required"`
}

// ReconcileResult 孤儿快照清扫结果，零孤儿时为空操作
type ReconcileResult struct {
	CleanedCount int      `json:"cleanedCount"`
	OrphanNames  []string `json:"orphanNames"`
}

// UnmanagedArtifact 引擎侧存在但元数据不认识的快照库
// 只上报不删除，它可能属于别的工具或 DBA 的手工操作
type UnmanagedArtifact struct {
	Name           string    `json:"name"`
	SourceDatabase string    `json:"sourceDatabase"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ListUnmanagedRequest 未托管快照报告请求
type ListUnmanagedRequest struct {
	ProfileID string `form:"profileId" binding:"required"`
}

type ListUnmanagedResponse struct {
	Artifacts []UnmanagedArtifact `json:"artifacts"`
}

// StaleFile 磁盘上存在但不被任何在线元数据引用的快照文件
type StaleFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// FilesToCleanupRequest 待清理文件报告请求
type FilesToCleanupRequest struct {
	ProfileID string `form:"profileId" binding:"required"`
}

// FilesToCleanupResponse 只读报告，不触碰引擎，由调用方决定是否删除
type FilesToCleanupResponse struct {
	Files []StaleFile `json:"files"`
}
