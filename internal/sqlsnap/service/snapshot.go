package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository/model"
	"github.com/jimyag/sqlsnap/pkg/apierror"
	"github.com/jimyag/sqlsnap/pkg/mssql"
	"github.com/jimyag/sqlsnap/pkg/snapname"
)

// maxLiveSnapshots 每个分组允许的在线快照上限
const maxLiveSnapshots = 9

// SnapshotService 快照编排服务
type SnapshotService struct {
	groupRepo    repository.GroupRepository
	snapshotRepo repository.SnapshotRepository
	profiles     *ProfileService
	history      *HistoryService
	connector    mssql.Connector
}

// NewSnapshotService 创建快照服务
func NewSnapshotService(repo *repository.Repository, profiles *ProfileService, history *HistoryService, connector mssql.Connector) *SnapshotService {
	return &SnapshotService{
		groupRepo:    repository.NewGroupRepository(repo.DB()),
		snapshotRepo: repository.NewSnapshotRepository(repo.DB()),
		profiles:     profiles,
		history:      history,
		connector:    connector,
	}
}

// CreateSnapshot 为分组创建一次协调快照
// 逐库执行，单库失败不回滚已成功的库，部分成功的结果照样落库
func (s *SnapshotService) CreateSnapshot(ctx context.Context, req *entity.CreateSnapshotRequest) (*entity.Snapshot, error) {
	logger := zerolog.Ctx(ctx)

	group, err := s.getGroup(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}

	count, err := s.snapshotRepo.CountLiveByGroup(ctx, group.ID)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to count snapshots", err)
	}
	if count >= maxLiveSnapshots {
		return nil, apierror.WithDetails(apierror.ErrSnapshotLimitExceeded, map[string]any{
			"snapshotCount": count,
			"limit":         maxLiveSnapshots,
		})
	}

	maxSeq, err := s.snapshotRepo.MaxSequence(ctx, group.ID)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to compute snapshot sequence", err)
	}

	client, snapshotDir, err := s.connect(ctx, group.ProfileID)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	snapshot := s.capture(ctx, client, group, snapshotDir, req.Label, maxSeq+1, time.Now())
	if err := s.persist(ctx, snapshot); err != nil {
		return nil, err
	}

	succeeded := 0
	for _, d := range snapshot.Databases {
		if d.Success {
			succeeded++
		}
	}
	logger.Info().
		Str("snapshotID", snapshot.ID).
		Str("groupID", group.ID).
		Int("sequence", snapshot.Sequence).
		Int("succeeded", succeeded).
		Int("databases", len(snapshot.Databases)).
		Msg("Snapshot created")

	s.history.Append(ctx, entity.ActionSnapshotCreated, group.Name, snapshot.ID,
		fmt.Sprintf("Created snapshot %q (%d/%d databases)", snapshot.Name, succeeded, len(snapshot.Databases)),
		snapshot.Databases)

	return snapshot, nil
}

// ListSnapshots 按序号从新到旧列出分组的快照
// 顺带上报引擎侧符合命名规范但元数据不认识的快照库，引擎不可达时只返回元数据
func (s *SnapshotService) ListSnapshots(ctx context.Context, req *entity.ListSnapshotsRequest) (*entity.ListSnapshotsResponse, error) {
	logger := zerolog.Ctx(ctx)

	group, err := s.getGroup(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}

	models, err := s.snapshotRepo.ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to list snapshots", err)
	}

	resp := &entity.ListSnapshotsResponse{Snapshots: make([]entity.Snapshot, 0, len(models))}
	for i := len(models) - 1; i >= 0; i-- {
		m := models[i]
		children, err := s.snapshotRepo.ListDatabaseSnapshots(ctx, m.ID)
		if err != nil {
			return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to list snapshot databases", err)
		}
		e, err := snapshotModelToEntity(m, children)
		if err != nil {
			return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to convert snapshot", err)
		}
		resp.Snapshots = append(resp.Snapshots, *e)
	}

	client, _, err := s.connect(ctx, group.ProfileID)
	if err != nil {
		logger.Warn().Err(err).Str("groupID", group.ID).Msg("Skipping engine-side artifact discovery")
		return resp, nil
	}
	defer client.Close()

	artifacts, err := client.ListSnapshotArtifacts(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("groupID", group.ID).Msg("Failed to list engine-side snapshot artifacts")
		return resp, nil
	}

	known, err := s.knownArtifacts(ctx)
	if err != nil {
		return nil, err
	}
	groupDatabases := make(map[string]bool, len(group.Databases))
	for _, db := range group.Databases {
		groupDatabases[db] = true
	}
	for _, a := range artifacts {
		if !groupDatabases[a.SourceDatabase] || !snapname.MatchesConvention(a.Name) || known[a.Name] {
			continue
		}
		resp.UnmanagedArtifacts = append(resp.UnmanagedArtifacts, entity.UnmanagedArtifact{
			Name:           a.Name,
			SourceDatabase: a.SourceDatabase,
			CreatedAt:      a.CreatedAt,
		})
	}

	return resp, nil
}

// DeleteSnapshot 删除单个快照：尽力清掉引擎侧快照库，再移除元数据
// 单个快照库删除失败降级为警告，不阻塞元数据删除
func (s *SnapshotService) DeleteSnapshot(ctx context.Context, req *entity.DeleteSnapshotRequest) (*entity.DeleteSnapshotResponse, error) {
	logger := zerolog.Ctx(ctx)

	target, children, err := s.getSnapshot(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	group, err := s.getGroup(ctx, target.GroupID)
	if err != nil {
		return nil, err
	}

	client, _, err := s.connect(ctx, group.ProfileID)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	dropped, warnings := dropArtifacts(ctx, client, children)

	if err := s.snapshotRepo.Delete(ctx, target.ID); err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to delete snapshot metadata", err)
	}

	logger.Info().
		Str("snapshotID", target.ID).
		Int("dropped", len(dropped)).
		Int("warnings", len(warnings)).
		Msg("Snapshot deleted")

	s.history.Append(ctx, entity.ActionSnapshotDeleted, displayGroupName(target, group), target.ID,
		fmt.Sprintf("Deleted snapshot %q (%d artifacts dropped)", target.Name, len(dropped)),
		map[string]any{"droppedArtifacts": dropped, "warnings": warnings})

	return &entity.DeleteSnapshotResponse{
		SnapshotID:       target.ID,
		DroppedArtifacts: dropped,
		Warnings:         warnings,
	}, nil
}

// CleanupSnapshot 强制清理单个快照
// 与删除的区别：引擎不可达或删库失败都只是警告，元数据一定被清掉
func (s *SnapshotService) CleanupSnapshot(ctx context.Context, req *entity.CleanupSnapshotRequest) (*entity.CleanupResult, error) {
	logger := zerolog.Ctx(ctx)

	target, children, err := s.getSnapshot(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	result := &entity.CleanupResult{DroppedArtifacts: make([]string, 0, len(children))}
	groupName := target.GroupName

	group, err := s.getGroup(ctx, target.GroupID)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("group lookup failed, artifacts left behind: %v", err))
	} else {
		if groupName == "" {
			groupName = group.Name
		}
		client, _, cerr := s.connect(ctx, group.ProfileID)
		if cerr != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("engine unreachable, artifacts left behind: %v", cerr))
		} else {
			defer client.Close()
			dropped, warnings := dropArtifacts(ctx, client, children)
			result.DroppedArtifacts = dropped
			result.Warnings = append(result.Warnings, warnings...)
		}
	}

	if err := s.snapshotRepo.Delete(ctx, target.ID); err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to delete snapshot metadata", err)
	}
	result.RemovedSnapshots = 1

	logger.Info().
		Str("snapshotID", target.ID).
		Int("dropped", len(result.DroppedArtifacts)).
		Int("warnings", len(result.Warnings)).
		Msg("Snapshot cleaned up")

	s.history.Append(ctx, entity.ActionSnapshotCleaned, groupName, target.ID,
		fmt.Sprintf("Cleaned up snapshot %q (%d artifacts dropped)", target.Name, len(result.DroppedArtifacts)),
		result)

	return result, nil
}

// CleanupAll 一键清空：删除引擎侧的全部快照库并清掉该连接配置下的快照元数据
// 这是硬复位入口，引擎侧不区分是否托管，全部删除
func (s *SnapshotService) CleanupAll(ctx context.Context, req *entity.CleanupAllRequest) (*entity.CleanupResult, error) {
	logger := zerolog.Ctx(ctx)

	client, _, err := s.connect(ctx, req.ProfileID)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	result := &entity.CleanupResult{DroppedArtifacts: make([]string, 0)}

	artifacts, err := client.ListSnapshotArtifacts(ctx)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrEngineUnavailable, "Failed to list snapshot artifacts", err)
	}
	for _, a := range artifacts {
		if err := client.DropDatabase(ctx, a.Name); err != nil {
			logger.Warn().Err(err).Str("artifact", a.Name).Msg("Failed to drop snapshot artifact")
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", a.Name, err))
			continue
		}
		result.DroppedArtifacts = append(result.DroppedArtifacts, a.Name)
	}

	groups, err := s.groupRepo.List(ctx, req.ProfileID)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to list groups", err)
	}
	for _, g := range groups {
		snapshots, err := s.snapshotRepo.ListByGroup(ctx, g.ID)
		if err != nil {
			return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to list snapshots", err)
		}
		if len(snapshots) == 0 {
			continue
		}
		if err := s.snapshotRepo.DeleteByGroup(ctx, g.ID); err != nil {
			return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to delete snapshot metadata", err)
		}
		result.RemovedSnapshots += len(snapshots)
	}

	logger.Info().
		Str("profileID", req.ProfileID).
		Int("dropped", len(result.DroppedArtifacts)).
		Int("removed", result.RemovedSnapshots).
		Msg("All snapshots cleaned up")

	s.history.Append(ctx, entity.ActionSnapshotCleaned, "", "",
		fmt.Sprintf("Cleaned up all snapshots (%d artifacts dropped, %d snapshots removed)",
			len(result.DroppedArtifacts), result.RemovedSnapshots),
		result)

	return result, nil
}

// PurgeGroupSnapshots 级联删除分组的全部快照
// 引擎侧删除尽力而为，元数据一定清掉；引擎不可达整体降级为警告
func (s *SnapshotService) PurgeGroupSnapshots(ctx context.Context, group *entity.Group) (removed int, dropped []string, warnings []string, err error) {
	snapshots, err := s.snapshotRepo.ListByGroup(ctx, group.ID)
	if err != nil {
		return 0, nil, nil, apierror.WrapError(apierror.ErrInternalError, "Failed to list snapshots", err)
	}
	if len(snapshots) == 0 {
		return 0, nil, nil, nil
	}

	client, _, cerr := s.connect(ctx, group.ProfileID)
	if cerr != nil {
		warnings = append(warnings, fmt.Sprintf("engine unreachable, artifacts left behind: %v", cerr))
	} else {
		defer client.Close()
	}

	for _, snap := range snapshots {
		children, err := s.snapshotRepo.ListDatabaseSnapshots(ctx, snap.ID)
		if err != nil {
			return removed, dropped, warnings, apierror.WrapError(apierror.ErrInternalError, "Failed to list snapshot databases", err)
		}
		if client != nil {
			d, w := dropArtifacts(ctx, client, children)
			dropped = append(dropped, d...)
			warnings = append(warnings, w...)
		}
		if err := s.snapshotRepo.Delete(ctx, snap.ID); err != nil {
			return removed, dropped, warnings, apierror.WrapError(apierror.ErrInternalError, "Failed to delete snapshot metadata", err)
		}
		removed++
	}

	return removed, dropped, warnings, nil
}

// capture 逐库执行引擎快照并组装结果，不落库
// 回滚后的自动检查点复用这段逻辑，sequence 由调用方给定
func (s *SnapshotService) capture(ctx context.Context, client mssql.Client, group *entity.Group, snapshotDir, label string, sequence int, now time.Time) *entity.Snapshot {
	logger := zerolog.Ctx(ctx)

	id := snapname.SnapshotID(group.Name, label, now)
	snapshot := &entity.Snapshot{
		ID:        id,
		GroupID:   group.ID,
		GroupName: group.Name,
		Name:      strings.TrimSpace(label),
		Sequence:  sequence,
		CreatedAt: now,
		Databases: make([]entity.DatabaseSnapshot, 0, len(group.Databases)),
	}

	for _, database := range group.Databases {
		result := entity.DatabaseSnapshot{Database: database}

		dataFiles, err := client.ListDataFiles(ctx, database)
		switch {
		case err != nil:
			result.Error = err.Error()
		case len(dataFiles) == 0:
			result.Error = "no data files found"
		default:
			artifact := snapname.ArtifactName(id, database)
			files := make([]mssql.SnapshotFile, 0, len(dataFiles))
			paths := make([]string, 0, len(dataFiles))
			for _, f := range dataFiles {
				path := snapname.PhysicalFilePath(snapshotDir, artifact, f.LogicalName)
				files = append(files, mssql.SnapshotFile{LogicalName: f.LogicalName, Path: path})
				paths = append(paths, path)
			}
			if err := client.CreateSnapshot(ctx, database, artifact, files); err != nil {
				result.Error = err.Error()
			} else {
				result.ArtifactName = artifact
				result.Files = paths
				result.Success = true
			}
		}

		if !result.Success {
			logger.Warn().
				Str("database", database).
				Str("snapshotID", id).
				Str("error", result.Error).
				Msg("Database snapshot failed")
		}
		snapshot.Databases = append(snapshot.Databases, result)
	}

	return snapshot
}

// persist 将快照及逐库结果写入元数据库
func (s *SnapshotService) persist(ctx context.Context, snapshot *entity.Snapshot) error {
	now := snapshot.CreatedAt
	m := &model.Snapshot{
		ID:        snapshot.ID,
		GroupID:   snapshot.GroupID,
		GroupName: snapshot.GroupName,
		Name:      snapshot.Name,
		Sequence:  snapshot.Sequence,
		CreatedAt: now,
		UpdatedAt: now,
	}

	databases := make([]*model.DatabaseSnapshot, 0, len(snapshot.Databases))
	for i := range snapshot.Databases {
		d, err := databaseSnapshotEntityToModel(&snapshot.Databases[i], i)
		if err != nil {
			return apierror.WrapError(apierror.ErrInternalError, "Failed to encode snapshot databases", err)
		}
		d.SnapshotID = snapshot.ID
		d.CreatedAt = now
		d.UpdatedAt = now
		databases = append(databases, d)
	}

	if err := s.snapshotRepo.Create(ctx, m, databases); err != nil {
		return apierror.WrapError(apierror.ErrInternalError, "Failed to save snapshot", err)
	}
	return nil
}

// connect 按分组所属的连接配置建立引擎连接，返回连接和快照目录
func (s *SnapshotService) connect(ctx context.Context, profileID string) (mssql.Client, string, error) {
	cfg, err := s.profiles.EngineConfig(ctx, profileID)
	if err != nil {
		return nil, "", err
	}
	dir, err := s.profiles.SnapshotDir(ctx, profileID)
	if err != nil {
		return nil, "", err
	}
	client, err := s.connector.Connect(ctx, cfg)
	if err != nil {
		return nil, "", apierror.WrapError(apierror.ErrEngineUnavailable, "Failed to connect to engine", err)
	}
	return client, dir, nil
}

// knownArtifacts 汇总所有在线元数据里记录的快照库名
func (s *SnapshotService) knownArtifacts(ctx context.Context) (map[string]bool, error) {
	children, err := s.snapshotRepo.ListLiveDatabaseSnapshots(ctx)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to list snapshot databases", err)
	}
	known := make(map[string]bool, len(children))
	for _, c := range children {
		if c.ArtifactName != "" {
			known[c.ArtifactName] = true
		}
	}
	return known, nil
}

// getSnapshot 读取快照及逐库结果，不存在时映射为 SnapshotNotFound
func (s *SnapshotService) getSnapshot(ctx context.Context, id string) (*model.Snapshot, []*model.DatabaseSnapshot, error) {
	m, err := s.snapshotRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apierror.ErrSnapshotNotFound
		}
		return nil, nil, apierror.WrapError(apierror.ErrInternalError, "Failed to load snapshot", err)
	}
	children, err := s.snapshotRepo.ListDatabaseSnapshots(ctx, id)
	if err != nil {
		return nil, nil, apierror.WrapError(apierror.ErrInternalError, "Failed to load snapshot databases", err)
	}
	return m, children, nil
}

// getGroup 读取分组并转换为实体，不存在时映射为 GroupNotFound
func (s *SnapshotService) getGroup(ctx context.Context, id string) (*entity.Group, error) {
	m, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrGroupNotFound
		}
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to load group", err)
	}
	return groupModelToEntityWrapped(m)
}

// dropArtifacts 尽力删除引擎侧快照库
// success=false 的条目没有对应快照库，直接跳过；已不存在的快照库静默放过
func dropArtifacts(ctx context.Context, client mssql.Client, children []*model.DatabaseSnapshot) (dropped []string, warnings []string) {
	logger := zerolog.Ctx(ctx)

	dropped = make([]string, 0, len(children))
	for _, child := range children {
		if !child.Success || child.ArtifactName == "" {
			continue
		}
		exists, err := client.DatabaseExists(ctx, child.ArtifactName)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", child.ArtifactName, err))
			continue
		}
		if !exists {
			continue
		}
		if err := client.DropDatabase(ctx, child.ArtifactName); err != nil {
			logger.Warn().Err(err).Str("artifact", child.ArtifactName).Msg("Failed to drop snapshot artifact")
			warnings = append(warnings, fmt.Sprintf("%s: %v", child.ArtifactName, err))
			continue
		}
		dropped = append(dropped, child.ArtifactName)
	}
	return dropped, warnings
}

// displayGroupName 优先用快照上反规范化的分组名，旧数据为空时回退到分组当前名称
func displayGroupName(snapshot *model.Snapshot, group *entity.Group) string {
	if snapshot.GroupName != "" {
		return snapshot.GroupName
	}
	return group.Name
}
