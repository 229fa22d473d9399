package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository"
	"github.com/jimyag/sqlsnap/pkg/apierror"
	"github.com/jimyag/sqlsnap/pkg/fileapi"
)

// SettingsService 全局设置服务
type SettingsService struct {
	settingsRepo repository.SettingsRepository
	cipher       *Cipher
}

// NewSettingsService 创建全局设置服务
func NewSettingsService(repo *repository.Repository, cipher *Cipher) *SettingsService {
	return &SettingsService{
		settingsRepo: repository.NewSettingsRepository(repo.DB()),
		cipher:       cipher,
	}
}

// Get 读取全局设置
func (s *SettingsService) Get(ctx context.Context) (*entity.Settings, error) {
	m, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to load settings", err)
	}
	return settingsModelToEntity(m), nil
}

// Update 修改全局设置，只更新请求里出现的字段
func (s *SettingsService) Update(ctx context.Context, req *entity.UpdateSettingsRequest) (*entity.Settings, error) {
	logger := zerolog.Ctx(ctx)

	m, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to load settings", err)
	}

	if req.AutoCheckpoint != nil {
		m.AutoCheckpoint = *req.AutoCheckpoint
	}
	if req.MaxHistoryEntries != nil {
		m.MaxHistoryEntries = *req.MaxHistoryEntries
	}
	if req.FileAPIURL != nil {
		m.FileAPIURL = *req.FileAPIURL
	}
	if req.FileAPIUsername != nil {
		m.FileAPIUsername = *req.FileAPIUsername
	}
	if req.FileAPIPassword != nil && *req.FileAPIPassword != "" {
		enc, err := s.cipher.Encrypt(*req.FileAPIPassword)
		if err != nil {
			return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to encrypt file API password", err)
		}
		m.FileAPIPassword = enc
	}
	m.UpdatedAt = time.Now()

	if err := s.settingsRepo.Update(ctx, m); err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to save settings", err)
	}

	logger.Info().
		Bool("autoCheckpoint", m.AutoCheckpoint).
		Int("maxHistoryEntries", m.MaxHistoryEntries).
		Msg("Settings updated")

	return settingsModelToEntity(m), nil
}

// AutoCheckpointEnabled 回滚后是否自动创建检查点
func (s *SettingsService) AutoCheckpointEnabled(ctx context.Context) (bool, error) {
	m, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return false, apierror.WrapError(apierror.ErrInternalError, "Failed to load settings", err)
	}
	return m.AutoCheckpoint, nil
}

// FileClient 按当前设置构造文件管理服务客户端
// 未配置文件服务地址时返回 nil，调用方据此跳过文件报告
func (s *SettingsService) FileClient(ctx context.Context) (fileapi.Client, error) {
	m, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to load settings", err)
	}
	if m.FileAPIURL == "" {
		return nil, nil
	}

	password := ""
	if m.FileAPIPassword != "" {
		password, err = s.cipher.Decrypt(m.FileAPIPassword)
		if err != nil {
			return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to decrypt file API password", err)
		}
	}

	return fileapi.New(&fileapi.Config{
		BaseURL:  m.FileAPIURL,
		Username: m.FileAPIUsername,
		Password: password,
	}), nil
}
