package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/service"
	"github.com/jimyag/sqlsnap/pkg/ginx"
	"github.com/rs/zerolog"
)

// GroupServiceInterface 定义分组服务接口
type GroupServiceInterface interface {
	CreateGroup(ctx context.Context, req *entity.CreateGroupRequest) (*entity.Group, error)
	DescribeGroup(ctx context.Context, req *entity.DescribeGroupRequest) (*entity.Group, error)
	ListGroups(ctx context.Context, req *entity.ListGroupsRequest) ([]entity.Group, error)
	UpdateGroup(ctx context.Context, req *entity.UpdateGroupRequest) (*entity.UpdateGroupResponse, error)
	DeleteGroup(ctx context.Context, req *entity.DeleteGroupRequest) (*entity.DeleteGroupResponse, error)
}

type Group struct {
	groupService GroupServiceInterface
}

func NewGroup(groupService *service.GroupService) *Group {
	return &Group{
		groupService: groupService,
	}
}

func (g *Group) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/groups", ginx.Adapt5(g.CreateGroup))
	router.GET("/groups", ginx.Adapt5(g.ListGroups))
	router.GET("/groups/:id", ginx.Adapt5(g.DescribeGroup))
	router.PUT("/groups/:id", ginx.Adapt5(g.UpdateGroup))
	router.DELETE("/groups/:id", ginx.Adapt5(g.DeleteGroup))
}

func (g *Group) CreateGroup(ctx *gin.Context, req *entity.CreateGroupRequest) (*entity.CreateGroupResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("profile_id", req.ProfileID).
		Str("name", req.Name).
		Strs("databases", req.Databases).
		Msg("API: CreateGroup called")

	group, err := g.groupService.CreateGroup(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create group")
		return nil, err
	}

	return &entity.CreateGroupResponse{
		Group: group,
	}, nil
}

func (g *Group) ListGroups(ctx *gin.Context, req *entity.ListGroupsRequest) (*entity.ListGroupsResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("profile_id", req.ProfileID).
		Msg("API: ListGroups called")

	groups, err := g.groupService.ListGroups(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list groups")
		return nil, err
	}

	return &entity.ListGroupsResponse{
		Groups: groups,
	}, nil
}

func (g *Group) DescribeGroup(ctx *gin.Context, req *entity.DescribeGroupRequest) (*entity.DescribeGroupResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("group_id", req.ID).
		Msg("API: DescribeGroup called")

	group, err := g.groupService.DescribeGroup(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to describe group")
		return nil, err
	}

	return &entity.DescribeGroupResponse{
		Group: group,
	}, nil
}

func (g *Group) UpdateGroup(ctx *gin.Context, req *entity.UpdateGroupRequest) (*entity.UpdateGroupResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("group_id", req.ID).
		Str("name", req.Name).
		Strs("databases", req.Databases).
		Bool("confirm_delete", req.ConfirmDelete).
		Msg("API: UpdateGroup called")

	resp, err := g.groupService.UpdateGroup(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to update group")
		return nil, err
	}

	return resp, nil
}

func (g *Group) DeleteGroup(ctx *gin.Context, req *entity.DeleteGroupRequest) (*entity.DeleteGroupResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("group_id", req.ID).
		Msg("API: DeleteGroup called")

	resp, err := g.groupService.DeleteGroup(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to delete group")
		return nil, err
	}

	return resp, nil
}
