package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository/model"
)

// GroupRepository 分组仓库接口
type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id string) (*model.Group, error)
	GetByName(ctx context.Context, profileID, name string) (*model.Group, error)
	List(ctx context.Context, profileID string) ([]*model.Group, error)
	Update(ctx context.Context, group *model.Group) error
	Delete(ctx context.Context, id string) error
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository 创建分组仓库
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

// Create 创建分组
func (r *groupRepository) Create(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

// GetByID 根据 ID 获取分组
func (r *groupRepository) GetByID(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// GetByName 根据 profile 和名称获取分组
func (r *groupRepository) GetByName(ctx context.Context, profileID, name string) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).Where("profile_id = ? AND name = ?", profileID, name).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// List 列出分组，profileID 为空时返回全部
func (r *groupRepository) List(ctx context.Context, profileID string) ([]*model.Group, error) {
	var groups []*model.Group
	query := r.db.WithContext(ctx).Model(&model.Group{})
	if profileID != "" {
		query = query.Where("profile_id = ?", profileID)
	}
	if err := query.Order("created_at").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// Update 更新分组
func (r *groupRepository) Update(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).Save(group).Error
}

// Delete 软删除分组
func (r *groupRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Group{}, "id = ?", id).Error
}
