package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository/model"
)

// SnapshotRepository 快照仓库接口
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *model.Snapshot, databases []*model.DatabaseSnapshot) error
	GetByID(ctx context.Context, id string) (*model.Snapshot, error)
	ListByGroup(ctx context.Context, groupID string) ([]*model.Snapshot, error)
	ListAll(ctx context.Context) ([]*model.Snapshot, error)
	ListDatabaseSnapshots(ctx context.Context, snapshotID string) ([]*model.DatabaseSnapshot, error)
	ListLiveDatabaseSnapshots(ctx context.Context) ([]*model.DatabaseSnapshot, error)
	CountLiveByGroup(ctx context.Context, groupID string) (int64, error)
	MaxSequence(ctx context.Context, groupID string) (int, error)
	Update(ctx context.Context, snapshot *model.Snapshot) error
	UpdateDatabaseSnapshot(ctx context.Context, databaseSnapshot *model.DatabaseSnapshot) error
	Delete(ctx context.Context, id string) error
	DeleteByGroup(ctx context.Context, groupID string) error
	HardDeleteAllForGroup(ctx context.Context, groupID string) error
}

type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository 创建快照仓库
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

// Create 在一个事务里写入快照及其逐库结果
func (r *snapshotRepository) Create(ctx context.Context, snapshot *model.Snapshot, databases []*model.DatabaseSnapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(snapshot).Error; err != nil {
			return err
		}
		for _, d := range databases {
			d.SnapshotID = snapshot.ID
			if err := tx.Create(d).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID 根据 ID 获取快照
func (r *snapshotRepository) GetByID(ctx context.Context, id string) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&snapshot).Error; err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListByGroup 列出分组的在线快照，按序号排列
func (r *snapshotRepository) ListByGroup(ctx context.Context, groupID string) ([]*model.Snapshot, error) {
	var snapshots []*model.Snapshot
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("sequence").
		Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// ListAll 列出所有在线快照
func (r *snapshotRepository) ListAll(ctx context.Context) ([]*model.Snapshot, error) {
	var snapshots []*model.Snapshot
	if err := r.db.WithContext(ctx).Order("created_at").Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// ListDatabaseSnapshots 列出快照的逐库结果，按分组内顺序排列
func (r *snapshotRepository) ListDatabaseSnapshots(ctx context.Context, snapshotID string) ([]*model.DatabaseSnapshot, error) {
	var databases []*model.DatabaseSnapshot
	if err := r.db.WithContext(ctx).
		Where("snapshot_id = ?", snapshotID).
		Order("position").
		Find(&databases).Error; err != nil {
		return nil, err
	}
	return databases, nil
}

// ListLiveDatabaseSnapshots 返回所有在线的逐库快照记录，供对账与文件清理交叉比对
func (r *snapshotRepository) ListLiveDatabaseSnapshots(ctx context.Context) ([]*model.DatabaseSnapshot, error) {
	var databases []*model.DatabaseSnapshot
	if err := r.db.WithContext(ctx).Find(&databases).Error; err != nil {
		return nil, err
	}
	return databases, nil
}

// CountLiveByGroup 统计分组的在线快照数
func (r *snapshotRepository) CountLiveByGroup(ctx context.Context, groupID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Snapshot{}).
		Where("group_id = ?", groupID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MaxSequence 返回分组用过的最大序号
// 包含软删除的记录，保证序号在分组生命周期内不复用
func (r *snapshotRepository) MaxSequence(ctx context.Context, groupID string) (int, error) {
	var max int
	if err := r.db.WithContext(ctx).
		Model(&model.Snapshot{}).
		Unscoped().
		Where("group_id = ?", groupID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}

// Update 更新快照
func (r *snapshotRepository) Update(ctx context.Context, snapshot *model.Snapshot) error {
	return r.db.WithContext(ctx).Save(snapshot).Error
}

// UpdateDatabaseSnapshot 更新逐库结果（回填物理文件名等）
func (r *snapshotRepository) UpdateDatabaseSnapshot(ctx context.Context, databaseSnapshot *model.DatabaseSnapshot) error {
	return r.db.WithContext(ctx).Save(databaseSnapshot).Error
}

// Delete 软删除快照及其逐库结果
func (r *snapshotRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.DatabaseSnapshot{}, "snapshot_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Snapshot{}, "id = ?", id).Error
	})
}

// DeleteByGroup 软删除分组的全部快照
func (r *snapshotRepository) DeleteByGroup(ctx context.Context, groupID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.Snapshot{}).
			Where("group_id = ?", groupID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Delete(&model.DatabaseSnapshot{}, "snapshot_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Snapshot{}, "id IN ?", ids).Error
	})
}

// HardDeleteAllForGroup 物理删除分组的全部快照记录（含软删除的）
// 回滚的元数据切换用它清空整组历史，之后序号从 1 重新开始
func (r *snapshotRepository) HardDeleteAllForGroup(ctx context.Context, groupID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.Snapshot{}).
			Unscoped().
			Where("group_id = ?", groupID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Unscoped().Delete(&model.DatabaseSnapshot{}, "snapshot_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Snapshot{}, "id IN ?", ids).Error
	})
}
