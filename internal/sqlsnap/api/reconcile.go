package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/service"
	"github.com/jimyag/sqlsnap/pkg/ginx"
	"github.com/rs/zerolog"
)

// ReconcileServiceInterface 定义孤儿清扫服务接口
type ReconcileServiceInterface interface {
	ReconcileOrphans(ctx context.Context, req *entity.ReconcileRequest) (*entity.ReconcileResult, error)
	ListUnmanaged(ctx context.Context, req *entity.ListUnmanagedRequest) ([]entity.UnmanagedArtifact, error)
	FilesToCleanup(ctx context.Context, req *entity.FilesToCleanupRequest) ([]entity.StaleFile, error)
}

type Reconcile struct {
	reconcileService ReconcileServiceInterface
}

func NewReconcile(reconcileService *service.ReconcileService) *Reconcile {
	return &Reconcile{
		reconcileService: reconcileService,
	}
}

func (r *Reconcile) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/snapshots/reconcile", ginx.Adapt5(r.ReconcileOrphans))
	router.GET("/snapshots/unmanaged", ginx.Adapt5(r.ListUnmanaged))
	router.GET("/snapshots/files-to-cleanup", ginx.Adapt5(r.FilesToCleanup))
}

func (r *Reconcile) ReconcileOrphans(ctx *gin.Context, req *entity.ReconcileRequest) (*entity.ReconcileResult, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("profile_id", req.ProfileID).
		Msg("API: ReconcileOrphans called")

	result, err := r.reconcileService.ReconcileOrphans(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to reconcile orphans")
		return nil, err
	}

	return result, nil
}

func (r *Reconcile) ListUnmanaged(ctx *gin.Context, req *entity.ListUnmanagedRequest) (*entity.ListUnmanagedResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("profile_id", req.ProfileID).
		Msg("API: ListUnmanaged called")

	artifacts, err := r.reconcileService.ListUnmanaged(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list unmanaged artifacts")
		return nil, err
	}

	return &entity.ListUnmanagedResponse{
		Artifacts: artifacts,
	}, nil
}

func (r *Reconcile) FilesToCleanup(ctx *gin.Context, req *entity.FilesToCleanupRequest) (*entity.FilesToCleanupResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("profile_id", req.ProfileID).
		Msg("API: FilesToCleanup called")

	files, err := r.reconcileService.FilesToCleanup(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to report files to cleanup")
		return nil, err
	}

	return &entity.FilesToCleanupResponse{
		Files: files,
	}, nil
}
