package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/service"
	"github.com/jimyag/sqlsnap/pkg/ginx"
	"github.com/rs/zerolog"
)

// SnapshotServiceInterface 定义快照服务接口
type SnapshotServiceInterface interface {
	CreateSnapshot(ctx context.Context, req *entity.CreateSnapshotRequest) (*entity.Snapshot, error)
	ListSnapshots(ctx context.Context, req *entity.ListSnapshotsRequest) (*entity.ListSnapshotsResponse, error)
	DeleteSnapshot(ctx context.Context, req *entity.DeleteSnapshotRequest) (*entity.DeleteSnapshotResponse, error)
	CleanupSnapshot(ctx context.Context, req *entity.CleanupSnapshotRequest) (*entity.CleanupResult, error)
	CleanupAll(ctx context.Context, req *entity.CleanupAllRequest) (*entity.CleanupResult, error)
}

type Snapshot struct {
	snapshotService SnapshotServiceInterface
}

func NewSnapshot(snapshotService *service.SnapshotService) *Snapshot {
	return &Snapshot{
		snapshotService: snapshotService,
	}
}

func (s *Snapshot) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/groups/:id/snapshots", ginx.Adapt5(s.CreateSnapshot))
	router.GET("/groups/:id/snapshots", ginx.Adapt5(s.ListSnapshots))
	router.DELETE("/snapshots/:id", ginx.Adapt5(s.DeleteSnapshot))
	router.POST("/snapshots/:id/cleanup", ginx.Adapt5(s.CleanupSnapshot))
	router.POST("/snapshots/cleanup", ginx.Adapt5(s.CleanupAll))
}

func (s *Snapshot) CreateSnapshot(ctx *gin.Context, req *entity.CreateSnapshotRequest) (*entity.CreateSnapshotResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("group_id", req.GroupID).
		Str("label", req.Label).
		Msg("API: CreateSnapshot called")

	snapshot, err := s.snapshotService.CreateSnapshot(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create snapshot")
		return nil, err
	}

	return &entity.CreateSnapshotResponse{
		Snapshot: snapshot,
	}, nil
}

func (s *Snapshot) ListSnapshots(ctx *gin.Context, req *entity.ListSnapshotsRequest) (*entity.ListSnapshotsResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("group_id", req.GroupID).
		Msg("API: ListSnapshots called")

	resp, err := s.snapshotService.ListSnapshots(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list snapshots")
		return nil, err
	}

	return resp, nil
}

func (s *Snapshot) DeleteSnapshot(ctx *gin.Context, req *entity.DeleteSnapshotRequest) (*entity.DeleteSnapshotResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("snapshot_id", req.ID).
		Msg("API: DeleteSnapshot called")

	resp, err := s.snapshotService.DeleteSnapshot(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to delete snapshot")
		return nil, err
	}

	if len(resp.Warnings) > 0 {
		logger.Warn().
			Str("snapshot_id", req.ID).
			Strs("warnings", resp.Warnings).
			Msg("Snapshot deleted with warnings")
	}
	return resp, nil
}

func (s *Snapshot) CleanupSnapshot(ctx *gin.Context, req *entity.CleanupSnapshotRequest) (*entity.CleanupResult, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("snapshot_id", req.ID).
		Msg("API: CleanupSnapshot called")

	result, err := s.snapshotService.CleanupSnapshot(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to cleanup snapshot")
		return nil, err
	}

	return result, nil
}

func (s *Snapshot) CleanupAll(ctx *gin.Context, req *entity.CleanupAllRequest) (*entity.CleanupResult, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("profile_id", req.ProfileID).
		Msg("API: CleanupAll called")

	result, err := s.snapshotService.CleanupAll(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to cleanup all snapshots")
		return nil, err
	}

	return result, nil
}
