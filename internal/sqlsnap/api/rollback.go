package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/service"
	"github.com/jimyag/sqlsnap/pkg/ginx"
	"github.com/rs/zerolog"
)

// RollbackServiceInterface 定义回滚服务接口
type RollbackServiceInterface interface {
	Rollback(ctx context.Context, req *entity.RollbackRequest) (*entity.RollbackResult, error)
}

type Rollback struct {
	rollbackService RollbackServiceInterface
}

func NewRollback(rollbackService *service.RollbackService) *Rollback {
	return &Rollback{
		rollbackService: rollbackService,
	}
}

func (r *Rollback) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/snapshots/:id/rollback", ginx.Adapt5(r.Rollback))
}

func (r *Rollback) Rollback(ctx *gin.Context, req *entity.RollbackRequest) (*entity.RollbackResult, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("snapshot_id", req.ID).
		Msg("API: Rollback called")

	result, err := r.rollbackService.Rollback(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to rollback snapshot")
		return nil, err
	}

	if len(result.FailedRollbacks) > 0 {
		logger.Warn().
			Str("snapshot_id", req.ID).
			Int("failed_rollbacks", len(result.FailedRollbacks)).
			Msg("Rollback finished with partial failures")
	}
	return result, nil
}
