package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository/model"
)

// HistoryRepository 历史记录仓库接口
type HistoryRepository interface {
	Append(ctx context.Context, entry *model.HistoryEntry) error
	List(ctx context.Context, limit int) ([]*model.HistoryEntry, error)
	Count(ctx context.Context) (int64, error)
	Trim(ctx context.Context, max int) (int64, error)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository 创建历史记录仓库
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// Append 追加一条历史记录
func (r *historyRepository) Append(ctx context.Context, entry *model.HistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List 按时间倒序列出历史记录，limit <= 0 时返回全部
func (r *historyRepository) List(ctx context.Context, limit int) ([]*model.HistoryEntry, error) {
	var entries []*model.HistoryEntry
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Count 统计历史记录条数
func (r *historyRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.HistoryEntry{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Trim 裁剪历史记录到 max 条，最旧的先删，返回删除的条数
func (r *historyRepository) Trim(ctx context.Context, max int) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.HistoryEntry{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count <= int64(max) {
		return 0, nil
	}

	excess := count - int64(max)
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&model.HistoryEntry{}).
		Order("created_at ASC, id ASC").
		Limit(int(excess)).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	result := r.db.WithContext(ctx).Delete(&model.HistoryEntry{}, "id IN ?", ids)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
