package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository/model"
	"github.com/jimyag/sqlsnap/pkg/apierror"
	"github.com/jimyag/sqlsnap/pkg/idgen"
)

// GroupService 分组服务
type GroupService struct {
	groupRepo    repository.GroupRepository
	snapshotRepo repository.SnapshotRepository
	profiles     *ProfileService
	snapshots    *SnapshotService
	history      *HistoryService
	idGen        *idgen.Generator
}

// NewGroupService 创建分组服务
func NewGroupService(repo *repository.Repository, profiles *ProfileService, snapshots *SnapshotService, history *HistoryService) *GroupService {
	return &GroupService{
		groupRepo:    repository.NewGroupRepository(repo.DB()),
		snapshotRepo: repository.NewSnapshotRepository(repo.DB()),
		profiles:     profiles,
		snapshots:    snapshots,
		history:      history,
		idGen:        idgen.New(),
	}
}

// CreateGroup 创建分组
func (s *GroupService) CreateGroup(ctx context.Context, req *entity.CreateGroupRequest) (*entity.Group, error) {
	logger := zerolog.Ctx(ctx)

	if _, err := s.profiles.DescribeProfile(ctx, req.ProfileID); err != nil {
		return nil, err
	}

	id, err := s.idGen.GenerateGroupID()
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to generate group ID", err)
	}

	databases, err := json.Marshal(req.Databases)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to encode databases", err)
	}

	now := time.Now()
	m := &model.Group{
		ID:        id,
		ProfileID: req.ProfileID,
		Name:      strings.TrimSpace(req.Name),
		Databases: string(databases),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.groupRepo.Create(ctx, m); err != nil {
		return nil, apierror.WrapError(apierror.ErrValidation, "Failed to create group, the name may already be taken", err)
	}

	logger.Info().
		Str("groupID", id).
		Str("name", m.Name).
		Int("databases", len(req.Databases)).
		Msg("Group created")

	return groupModelToEntityWrapped(m)
}

// DescribeGroup 查询分组详情
func (s *GroupService) DescribeGroup(ctx context.Context, req *entity.DescribeGroupRequest) (*entity.Group, error) {
	return s.getGroup(ctx, req.ID)
}

// ListGroups 列出分组，可按连接配置过滤
func (s *GroupService) ListGroups(ctx context.Context, req *entity.ListGroupsRequest) ([]entity.Group, error) {
	models, err := s.groupRepo.List(ctx, req.ProfileID)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to list groups", err)
	}
	groups := make([]entity.Group, 0, len(models))
	for _, m := range models {
		e, err := groupModelToEntityWrapped(m)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *e)
	}
	return groups, nil
}

// UpdateGroup 修改分组
// 名称或数据库集合（忽略顺序）变化会让分组的全部快照失效：
// 还有在线快照且未带 confirmDelete 时返回确认要求，带上数量供调用方渲染确认框；
// confirmDelete=true 时先级联删除快照再应用修改
func (s *GroupService) UpdateGroup(ctx context.Context, req *entity.UpdateGroupRequest) (*entity.UpdateGroupResponse, error) {
	logger := zerolog.Ctx(ctx)

	group, err := s.getGroup(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	newName := group.Name
	if strings.TrimSpace(req.Name) != "" {
		newName = strings.TrimSpace(req.Name)
	}
	newDatabases := group.Databases
	if req.Databases != nil {
		if len(req.Databases) == 0 {
			return nil, apierror.WrapError(apierror.ErrValidation, "group needs at least one database", nil)
		}
		for _, db := range req.Databases {
			if strings.TrimSpace(db) == "" {
				return nil, apierror.WrapError(apierror.ErrValidation, "database names must not be blank", nil)
			}
		}
		newDatabases = req.Databases
	}

	if newName == group.Name && slicesEqual(group.Databases, newDatabases) {
		return &entity.UpdateGroupResponse{Group: group}, nil
	}

	// 只调整数据库顺序不算破坏性变更，快照仍然有效
	destructive := newName != group.Name || !sameDatabaseSet(group.Databases, newDatabases)

	deletedSnapshots := 0
	if destructive {
		count, err := s.snapshotRepo.CountLiveByGroup(ctx, group.ID)
		if err != nil {
			return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to count snapshots", err)
		}
		if count > 0 {
			if !req.ConfirmDelete {
				return nil, apierror.WithDetails(apierror.ErrConfirmationRequired, map[string]any{
					"snapshotCount": count,
					"databaseCount": len(group.Databases),
				})
			}
			removed, _, warnings, err := s.snapshots.PurgeGroupSnapshots(ctx, group)
			if err != nil {
				return nil, err
			}
			for _, w := range warnings {
				logger.Warn().Str("warning", w).Str("groupID", group.ID).Msg("Snapshot purge warning")
			}
			deletedSnapshots = removed
		}
	}

	databases, err := json.Marshal(newDatabases)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to encode databases", err)
	}
	m := &model.Group{
		ID:        group.ID,
		ProfileID: group.ProfileID,
		Name:      newName,
		Databases: string(databases),
		CreatedAt: group.CreatedAt,
		UpdatedAt: time.Now(),
	}
	if err := s.groupRepo.Update(ctx, m); err != nil {
		return nil, apierror.WrapError(apierror.ErrValidation, "Failed to update group, the name may already be taken", err)
	}

	logger.Info().
		Str("groupID", group.ID).
		Str("name", newName).
		Bool("destructive", destructive).
		Int("deletedSnapshots", deletedSnapshots).
		Msg("Group updated")

	s.history.Append(ctx, entity.ActionGroupMutated, newName, "",
		fmt.Sprintf("Updated group %q (%d snapshots deleted)", newName, deletedSnapshots),
		map[string]any{"previousName": group.Name, "databases": newDatabases, "deletedSnapshots": deletedSnapshots})

	updated, err := groupModelToEntityWrapped(m)
	if err != nil {
		return nil, err
	}
	return &entity.UpdateGroupResponse{Group: updated, DeletedSnapshots: deletedSnapshots}, nil
}

// DeleteGroup 删除分组并无条件级联删除其全部快照
func (s *GroupService) DeleteGroup(ctx context.Context, req *entity.DeleteGroupRequest) (*entity.DeleteGroupResponse, error) {
	logger := zerolog.Ctx(ctx)

	group, err := s.getGroup(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	removed, dropped, warnings, err := s.snapshots.PurgeGroupSnapshots(ctx, group)
	if err != nil {
		return nil, err
	}

	if err := s.groupRepo.Delete(ctx, group.ID); err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to delete group", err)
	}

	logger.Info().
		Str("groupID", group.ID).
		Str("name", group.Name).
		Int("deletedSnapshots", removed).
		Int("warnings", len(warnings)).
		Msg("Group deleted")

	s.history.Append(ctx, entity.ActionGroupDeleted, group.Name, "",
		fmt.Sprintf("Deleted group %q (%d snapshots removed)", group.Name, removed),
		map[string]any{"droppedArtifacts": dropped, "warnings": warnings})

	return &entity.DeleteGroupResponse{DeletedSnapshots: removed}, nil
}

// getGroup 读取分组并转换为实体，不存在时映射为 GroupNotFound
func (s *GroupService) getGroup(ctx context.Context, id string) (*entity.Group, error) {
	m, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrGroupNotFound
		}
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to load group", err)
	}
	return groupModelToEntityWrapped(m)
}

// groupModelToEntityWrapped 转换分组模型，转换失败映射为内部错误
func groupModelToEntityWrapped(m *model.Group) (*entity.Group, error) {
	e, err := groupModelToEntity(m)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to convert group", err)
	}
	return e, nil
}

// sameDatabaseSet 比较两个数据库列表是否为同一集合，忽略顺序
func sameDatabaseSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// slicesEqual 按顺序比较两个数据库列表
func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
