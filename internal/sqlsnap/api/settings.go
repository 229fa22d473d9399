package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/service"
	"github.com/jimyag/sqlsnap/pkg/ginx"
	"github.com/rs/zerolog"
)

// SettingsServiceInterface 定义全局设置服务接口
type SettingsServiceInterface interface {
	Get(ctx context.Context) (*entity.Settings, error)
	Update(ctx context.Context, req *entity.UpdateSettingsRequest) (*entity.Settings, error)
}

type Settings struct {
	settingsService SettingsServiceInterface
}

func NewSettings(settingsService *service.SettingsService) *Settings {
	return &Settings{
		settingsService: settingsService,
	}
}

func (s *Settings) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/settings", ginx.Adapt3(s.GetSettings))
	router.PUT("/settings", ginx.Adapt5(s.UpdateSettings))
}

func (s *Settings) GetSettings(ctx *gin.Context) (*entity.Settings, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Msg("API: GetSettings called")

	settings, err := s.settingsService.Get(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to get settings")
		return nil, err
	}

	return settings, nil
}

func (s *Settings) UpdateSettings(ctx *gin.Context, req *entity.UpdateSettingsRequest) (*entity.Settings, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Bool("file_api_password_changed", req.FileAPIPassword != nil && *req.FileAPIPassword != "").
		Msg("API: UpdateSettings called")

	settings, err := s.settingsService.Update(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to update settings")
		return nil, err
	}

	return settings, nil
}
