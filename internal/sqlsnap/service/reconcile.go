package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository"
	"github.com/jimyag/sqlsnap/pkg/apierror"
	"github.com/jimyag/sqlsnap/pkg/fileapi"
	"github.com/jimyag/sqlsnap/pkg/snapname"
)

// FileClientGetter 按当前设置构造文件管理服务客户端
type FileClientGetter func(ctx context.Context) (fileapi.Client, error)

// ReconcileService 对账服务：引擎侧快照库和磁盘文件与元数据的交叉核对
type ReconcileService struct {
	snapshotRepo repository.SnapshotRepository
	profileRepo  repository.ProfileRepository
	snapshots    *SnapshotService
	profiles     *ProfileService
	fileClientFn FileClientGetter
	history      *HistoryService
}

// NewReconcileService 创建对账服务
func NewReconcileService(repo *repository.Repository, snapshots *SnapshotService, profiles *ProfileService, settings *SettingsService, history *HistoryService) *ReconcileService {
	return &ReconcileService{
		snapshotRepo: repository.NewSnapshotRepository(repo.DB()),
		profileRepo:  repository.NewProfileRepository(repo.DB()),
		snapshots:    snapshots,
		profiles:     profiles,
		fileClientFn: settings.FileClient,
		history:      history,
	}
}

// ReconcileOrphans 清扫孤儿快照库
// 逐个试读引擎侧快照库，读不动说明底层稀疏文件已丢失或损坏，强制删除；
// 读得动的即使元数据不认识也不动它。操作幂等，连续执行第二次清不出新东西
func (s *ReconcileService) ReconcileOrphans(ctx context.Context, req *entity.ReconcileRequest) (*entity.ReconcileResult, error) {
	logger := zerolog.Ctx(ctx)

	client, _, err := s.snapshots.connect(ctx, req.ProfileID)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	artifacts, err := client.ListSnapshotArtifacts(ctx)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrEngineUnavailable, "Failed to list snapshot artifacts", err)
	}

	result := &entity.ReconcileResult{OrphanNames: make([]string, 0)}
	for _, a := range artifacts {
		probeErr := client.ProbeSnapshot(ctx, a.Name)
		if probeErr == nil {
			continue
		}
		logger.Warn().Err(probeErr).Str("artifact", a.Name).Msg("Snapshot artifact is unreadable, dropping")
		if err := client.DropDatabase(ctx, a.Name); err != nil {
			logger.Warn().Err(err).Str("artifact", a.Name).Msg("Failed to drop orphaned artifact")
			continue
		}
		result.OrphanNames = append(result.OrphanNames, a.Name)
	}
	result.CleanedCount = len(result.OrphanNames)

	if result.CleanedCount > 0 {
		s.history.Append(ctx, entity.ActionOrphansReconciled, "", "",
			fmt.Sprintf("Reconciled %d orphaned snapshot artifacts", result.CleanedCount),
			map[string]any{"orphanNames": result.OrphanNames})
	}

	return result, nil
}

// ListUnmanaged 上报引擎侧存在但元数据不认识的快照库
// 只读报告，这些快照库可能属于别的工具或 DBA 的手工操作，由人来决定去留
func (s *ReconcileService) ListUnmanaged(ctx context.Context, req *entity.ListUnmanagedRequest) ([]entity.UnmanagedArtifact, error) {
	client, _, err := s.snapshots.connect(ctx, req.ProfileID)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	artifacts, err := client.ListSnapshotArtifacts(ctx)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrEngineUnavailable, "Failed to list snapshot artifacts", err)
	}
	known, err := s.snapshots.knownArtifacts(ctx)
	if err != nil {
		return nil, err
	}

	unmanaged := make([]entity.UnmanagedArtifact, 0)
	for _, a := range artifacts {
		if known[a.Name] {
			continue
		}
		unmanaged = append(unmanaged, entity.UnmanagedArtifact{
			Name:           a.Name,
			SourceDatabase: a.SourceDatabase,
			CreatedAt:      a.CreatedAt,
		})
	}
	return unmanaged, nil
}

// FilesToCleanup 交叉比对快照目录与元数据，找出不被任何在线快照引用的快照文件
// 只读报告，要不要删由调用方决定；未配置文件管理服务时直接报错
func (s *ReconcileService) FilesToCleanup(ctx context.Context, req *entity.FilesToCleanupRequest) ([]entity.StaleFile, error) {
	fileClient, err := s.fileClientFn(ctx)
	if err != nil {
		return nil, err
	}
	if fileClient == nil {
		return nil, apierror.WrapError(apierror.ErrValidation, "File API is not configured", nil)
	}

	snapshotDir, err := s.profiles.SnapshotDir(ctx, req.ProfileID)
	if err != nil {
		return nil, err
	}

	files, err := fileClient.ListFiles(ctx, snapshotDir)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to list snapshot directory", err)
	}

	children, err := s.snapshotRepo.ListLiveDatabaseSnapshots(ctx)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to list snapshot databases", err)
	}
	referenced := make(map[string]bool)
	for _, c := range children {
		e, err := databaseSnapshotModelToEntity(c)
		if err != nil {
			return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to decode snapshot files", err)
		}
		for _, f := range e.Files {
			referenced[fileBaseName(f)] = true
		}
	}

	stale := make([]entity.StaleFile, 0)
	for _, f := range files {
		if !snapname.IsSnapshotFile(f.Name) || referenced[f.Name] {
			continue
		}
		stale = append(stale, entity.StaleFile{Name: f.Name, Path: f.Path, Size: f.Size})
	}
	return stale, nil
}

// StartupSweep 启动时对每个连接配置做一次孤儿清扫
// 纯尽力而为：引擎连不上只记日志，绝不阻塞服务启动
func (s *ReconcileService) StartupSweep(ctx context.Context) {
	logger := zerolog.Ctx(ctx)

	profiles, err := s.profileRepo.List(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list profiles for startup sweep")
		return
	}
	for _, p := range profiles {
		result, err := s.ReconcileOrphans(ctx, &entity.ReconcileRequest{ProfileID: p.ID})
		if err != nil {
			logger.Warn().Err(err).Str("profileID", p.ID).Str("profile", p.Name).Msg("Startup sweep skipped")
			continue
		}
		logger.Info().
			Str("profileID", p.ID).
			Str("profile", p.Name).
			Int("cleaned", result.CleanedCount).
			Msg("Startup sweep completed")
	}
}

// fileBaseName 取路径最后一段，兼容引擎写回的 Windows 路径
func fileBaseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
