package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository/model"
)

// ProfileRepository 连接配置仓库接口
type ProfileRepository interface {
	Create(ctx context.Context, profile *model.Profile) error
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	GetByName(ctx context.Context, name string) (*model.Profile, error)
	List(ctx context.Context) ([]*model.Profile, error)
	Update(ctx context.Context, profile *model.Profile) error
	Delete(ctx context.Context, id string) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建连接配置仓库
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Create 创建连接配置
func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// GetByID 根据 ID 获取连接配置
func (r *profileRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByName 根据名称获取连接配置
func (r *profileRepository) GetByName(ctx context.Context, name string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// List 列出全部连接配置
func (r *profileRepository) List(ctx context.Context) ([]*model.Profile, error) {
	var profiles []*model.Profile
	if err := r.db.WithContext(ctx).Order("created_at").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// Update 更新连接配置
func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

// Delete 软删除连接配置
func (r *profileRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Profile{}, "id = ?", id).Error
}
