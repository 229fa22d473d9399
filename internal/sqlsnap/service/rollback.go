package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository/model"
	"github.com/jimyag/sqlsnap/pkg/apierror"
	"github.com/jimyag/sqlsnap/pkg/mssql"
	"github.com/jimyag/sqlsnap/pkg/snapname"
)

// checkpointLabel 回滚成功后自动检查点使用的标签
const checkpointLabel = "automatic checkpoint"

// RollbackService 回滚编排服务
// 回滚是多步非原子流程：定位目标、清姊妹快照、逐库恢复、再清一遍、
// 元数据切换、自动检查点。不做跨请求互斥，并发回滚由调用方自己避免
type RollbackService struct {
	groupRepo    repository.GroupRepository
	snapshotRepo repository.SnapshotRepository
	snapshots    *SnapshotService
	settings     *SettingsService
	history      *HistoryService
}

// NewRollbackService 创建回滚服务
func NewRollbackService(repo *repository.Repository, snapshots *SnapshotService, settings *SettingsService, history *HistoryService) *RollbackService {
	return &RollbackService{
		groupRepo:    repository.NewGroupRepository(repo.DB()),
		snapshotRepo: repository.NewSnapshotRepository(repo.DB()),
		snapshots:    snapshots,
		settings:     settings,
		history:      history,
	}
}

// Rollback 将分组回滚到指定快照
// 逐库独立执行，单库失败记入 failedRollbacks 不中断其余库；
// 只有目标不存在、目标快照库已全部丢失、一个库都没恢复成功这三种情况
// 才让整个请求失败，其余失败都随结果返回
func (s *RollbackService) Rollback(ctx context.Context, req *entity.RollbackRequest) (*entity.RollbackResult, error) {
	logger := zerolog.Ctx(ctx)

	target, children, err := s.snapshots.getSnapshot(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	group, err := s.snapshots.getGroup(ctx, target.GroupID)
	if err != nil {
		return nil, err
	}
	groupName := displayGroupName(target, group)

	client, snapshotDir, err := s.snapshots.connect(ctx, group.ProfileID)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	// 先确认目标快照自己的快照库还在，全部丢失时直接失败，引擎侧不做任何改动
	restorable := make([]*model.DatabaseSnapshot, 0, len(children))
	missing := make([]*model.DatabaseSnapshot, 0)
	for _, child := range children {
		if !child.Success || child.ArtifactName == "" {
			continue
		}
		exists, err := client.DatabaseExists(ctx, child.ArtifactName)
		if err != nil {
			return nil, apierror.WrapError(apierror.ErrEngineUnavailable, "Failed to check snapshot artifact", err)
		}
		if exists {
			restorable = append(restorable, child)
		} else {
			missing = append(missing, child)
		}
	}
	if len(restorable) == 0 {
		return nil, apierror.WrapError(apierror.ErrSnapshotArtifactsMissing,
			fmt.Sprintf("No artifacts left for snapshot %s", target.ID), nil)
	}

	result := &entity.RollbackResult{
		SnapshotID:          target.ID,
		GroupID:             group.ID,
		RolledBackDatabases: make([]string, 0, len(restorable)),
		FailedRollbacks:     make([]entity.FailedRollback, 0),
	}
	for _, child := range missing {
		result.FailedRollbacks = append(result.FailedRollbacks, entity.FailedRollback{
			Database: child.Database,
			Error:    fmt.Sprintf("snapshot artifact %s no longer exists", child.ArtifactName),
		})
	}

	// 源库集合取自目标快照的逐库记录。清理范围故意放宽到这些源库上
	// 所有符合命名规范的快照库，把跨分组共享源库留下的旧残留一并清掉
	sourceDatabases := make(map[string]bool, len(children))
	for _, child := range children {
		sourceDatabases[child.Database] = true
	}

	result.DroppedSiblings += s.purgeSiblings(ctx, client, sourceDatabases, target.ID)

	for _, child := range restorable {
		if err := s.restoreDatabase(ctx, client, child.Database, child.ArtifactName); err != nil {
			logger.Error().Err(err).
				Str("database", child.Database).
				Str("artifact", child.ArtifactName).
				Msg("Database rollback failed")
			result.FailedRollbacks = append(result.FailedRollbacks, entity.FailedRollback{
				Database: child.Database,
				Error:    err.Error(),
			})
			continue
		}
		result.RolledBackDatabases = append(result.RolledBackDatabases, child.Database)
	}

	// 第二遍清扫，兜住第一遍失败的残留和恢复过程的副产物
	result.DroppedSiblings += s.purgeSiblings(ctx, client, sourceDatabases, target.ID)

	if len(result.RolledBackDatabases) == 0 {
		return nil, apierror.WithDetails(
			apierror.WrapError(apierror.ErrRollbackFailed, "No databases were rolled back", nil),
			map[string]any{"failedRollbacks": result.FailedRollbacks})
	}

	// 元数据切换：回滚让分组的全部历史快照失效，物理删除以重置序号空间
	if err := s.snapshotRepo.HardDeleteAllForGroup(ctx, group.ID); err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to cut over snapshot metadata", err)
	}

	enabled, err := s.settings.AutoCheckpointEnabled(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load auto checkpoint setting")
	}
	if enabled {
		result.Checkpoint = s.createCheckpoint(ctx, client, group, snapshotDir)
	}

	logger.Info().
		Str("snapshotID", target.ID).
		Str("groupID", group.ID).
		Int("rolledBack", len(result.RolledBackDatabases)).
		Int("failed", len(result.FailedRollbacks)).
		Int("droppedSiblings", result.DroppedSiblings).
		Msg("Rollback completed")

	checkpointID := ""
	if result.Checkpoint != nil {
		checkpointID = result.Checkpoint.SnapshotID
	}
	s.history.Append(ctx, entity.ActionRollback, groupName, target.ID,
		fmt.Sprintf("Rolled back group %q to snapshot %q (%d/%d databases)",
			groupName, target.Name, len(result.RolledBackDatabases), len(children)),
		map[string]any{
			"rolledBackDatabases": result.RolledBackDatabases,
			"failedRollbacks":     result.FailedRollbacks,
			"droppedSiblings":     result.DroppedSiblings,
			"checkpointId":        checkpointID,
		})

	return result, nil
}

// restoreDatabase 恢复单个库：单用户踢掉其他连接、删掉现库、从快照库重建、恢复多用户
// 删库之后这个库就必须走完恢复，中途失败会留下不一致状态，靠重试或人工兜底
func (s *RollbackService) restoreDatabase(ctx context.Context, client mssql.Client, database, artifact string) error {
	if err := client.SetSingleUser(ctx, database); err != nil {
		return fmt.Errorf("set single user: %w", err)
	}
	if err := client.DropDatabase(ctx, database); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	if err := client.RestoreFromSnapshot(ctx, database, artifact); err != nil {
		return fmt.Errorf("restore from snapshot: %w", err)
	}
	if err := client.SetMultiUser(ctx, database); err != nil {
		return fmt.Errorf("set multi user: %w", err)
	}
	return nil
}

// purgeSiblings 删掉源库上所有符合命名规范的快照库，目标快照自己的除外
// 删不掉的记日志跳过，第二遍清扫还有机会
func (s *RollbackService) purgeSiblings(ctx context.Context, client mssql.Client, sourceDatabases map[string]bool, targetID string) int {
	logger := zerolog.Ctx(ctx)

	artifacts, err := client.ListSnapshotArtifacts(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to list snapshot artifacts for sibling purge")
		return 0
	}

	dropped := 0
	for _, a := range artifacts {
		if !sourceDatabases[a.SourceDatabase] || !snapname.MatchesConvention(a.Name) || snapname.BelongsTo(a.Name, targetID) {
			continue
		}
		if err := client.DropDatabase(ctx, a.Name); err != nil {
			logger.Warn().Err(err).Str("artifact", a.Name).Msg("Failed to drop sibling artifact")
			continue
		}
		logger.Debug().Str("artifact", a.Name).Msg("Dropped sibling artifact")
		dropped++
	}
	return dropped
}

// createCheckpoint 回滚成功后立刻创建检查点，序号固定从 1 重新开始
// 检查点失败不影响回滚本身的成败，错误随结果带出
func (s *RollbackService) createCheckpoint(ctx context.Context, client mssql.Client, group *entity.Group, snapshotDir string) *entity.CheckpointResult {
	logger := zerolog.Ctx(ctx)

	checkpoint := s.snapshots.capture(ctx, client, group, snapshotDir, checkpointLabel, 1, time.Now())

	succeeded := false
	for _, d := range checkpoint.Databases {
		if d.Success {
			succeeded = true
			break
		}
	}
	if !succeeded {
		errText := "no database snapshot succeeded"
		for _, d := range checkpoint.Databases {
			if d.Error != "" {
				errText = d.Error
				break
			}
		}
		logger.Error().Str("groupID", group.ID).Str("error", errText).Msg("Checkpoint creation failed")
		return &entity.CheckpointResult{Error: errText}
	}

	if err := s.snapshots.persist(ctx, checkpoint); err != nil {
		logger.Error().Err(err).Str("groupID", group.ID).Msg("Failed to save checkpoint")
		return &entity.CheckpointResult{Error: err.Error()}
	}

	logger.Info().Str("checkpointID", checkpoint.ID).Str("groupID", group.ID).Msg("Checkpoint created")
	return &entity.CheckpointResult{SnapshotID: checkpoint.ID}
}
