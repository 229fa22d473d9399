package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository/model"
)

// SettingsRepository 全局设置仓库接口
type SettingsRepository interface {
	Get(ctx context.Context) (*model.Settings, error)
	Update(ctx context.Context, settings *model.Settings) error
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository 创建全局设置仓库
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get 读取设置，首次访问时写入默认值
func (r *settingsRepository) Get(ctx context.Context) (*model.Settings, error) {
	var settings model.Settings
	err := r.db.WithContext(ctx).Where("id = ?", model.SettingsRowID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = model.Settings{
			ID:                model.SettingsRowID,
			AutoCheckpoint:    true,
			MaxHistoryEntries: model.DefaultMaxHistoryEntries,
			UpdatedAt:         time.Now(),
		}
		if err := r.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Update 覆盖写入设置
func (r *settingsRepository) Update(ctx context.Context, settings *model.Settings) error {
	settings.ID = model.SettingsRowID
	return r.db.WithContext(ctx).Save(settings).Error
}
