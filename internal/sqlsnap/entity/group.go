package entity

import (
	"strings"
	"time"

	"github.com/jimyag/sqlsnap/pkg/apierror"
)

// Group 一组作为整体做快照的数据库，共享同一个连接配置
type Group struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profileId"`
	Name      string    `json:"name"`
	Databases []string  `json:"databases"` // 保序，快照按此顺序逐库执行
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateGroupRequest 创建分组请求
type CreateGroupRequest struct {
	ProfileID string   `json:"profileId" binding:"required"`
	Name      string   `json:"name" binding:"required"`
	Databases []string `json:"databases" binding:"required"`
}

func (r *CreateGroupRequest) IsValid() error {
	if strings.TrimSpace(r.Name) == "" {
		return apierror.WrapError(apierror.ErrValidation, "group name must not be blank", nil)
	}
	if len(r.Databases) == 0 {
		return apierror.WrapError(apierror.ErrValidation, "group needs at least one database", nil)
	}
	for _, db := range r.Databases {
		if strings.TrimSpace(db) == "" {
			return apierror.WrapError(apierror.ErrValidation, "database names must not be blank", nil)
		}
	}
	return nil
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

// UpdateGroupRequest 修改分组请求
// 名称或数据库集合变化且分组还有在线快照时，需要 confirmDelete=true
type UpdateGroupRequest struct {
	ID            string   `uri:"id" binding:"required"`
	Name          string   `json:"name"`
	Databases     []string `json:"databases"`
	ConfirmDelete bool     `json:"confirmDelete"`
}

type UpdateGroupResponse struct {
	Group            *Group `json:"group"`
	DeletedSnapshots int    `json:"deletedSnapshots"`
}

// DescribeGroupRequest 查询分组详情请求
type DescribeGroupRequest struct {
	ID string `uri:"id" binding:"required"`
}

type DescribeGroupResponse struct {
	Group *Group `json:"group"`
}

// DeleteGroupRequest 删除分组请求，级联删除其全部快照，无需确认
type DeleteGroupRequest struct {
	ID string `uri:"id" binding:"required"`
}

type DeleteGroupResponse struct {
	DeletedSnapshots int `json:"deletedSnapshots"`
}

// ListGroupsRequest 列举分组请求
type ListGroupsRequest struct {
	ProfileID string `form:"profileId"`
}

type ListGroupsResponse struct {
	Groups []Group `json:"groups"`
}
