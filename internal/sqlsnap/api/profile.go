package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/service"
	"github.com/jimyag/sqlsnap/pkg/ginx"
	"github.com/rs/zerolog"
)

// ProfileServiceInterface 定义连接配置服务接口
type ProfileServiceInterface interface {
	CreateProfile(ctx context.Context, req *entity.CreateProfileRequest) (*entity.Profile, error)
	DescribeProfile(ctx context.Context, id string) (*entity.Profile, error)
	ListProfiles(ctx context.Context) ([]entity.Profile, error)
	UpdateProfile(ctx context.Context, req *entity.UpdateProfileRequest) (*entity.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
	TestProfile(ctx context.Context, id string) (*entity.TestProfileResponse, error)
}

type Profile struct {
	profileService ProfileServiceInterface
}

func NewProfile(profileService *service.ProfileService) *Profile {
	return &Profile{
		profileService: profileService,
	}
}

func (p *Profile) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/profiles", ginx.Adapt5(p.CreateProfile))
	router.GET("/profiles", ginx.Adapt3(p.ListProfiles))
	router.GET("/profiles/:id", ginx.Adapt5(p.DescribeProfile))
	router.PUT("/profiles/:id", ginx.Adapt5(p.UpdateProfile))
	router.DELETE("/profiles/:id", ginx.Adapt4(p.DeleteProfile))
	router.POST("/profiles/:id/test", ginx.Adapt5(p.TestProfile))
}

func (p *Profile) CreateProfile(ctx *gin.Context, req *entity.CreateProfileRequest) (*entity.CreateProfileResponse, error) {
	logger := zerolog.Ctx(ctx)
	// 密码不落日志
	logger.Info().
		Str("name", req.Name).
		Str("host", req.Host).
		Int("port", req.Port).
		Str("username", req.Username).
		Str("snapshot_dir", req.SnapshotDir).
		Msg("API: CreateProfile called")

	profile, err := p.profileService.CreateProfile(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create profile")
		return nil, err
	}

	return &entity.CreateProfileResponse{
		Profile: profile,
	}, nil
}

func (p *Profile) ListProfiles(ctx *gin.Context) (*entity.ListProfilesResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Msg("API: ListProfiles called")

	profiles, err := p.profileService.ListProfiles(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list profiles")
		return nil, err
	}

	return &entity.ListProfilesResponse{
		Profiles: profiles,
	}, nil
}

func (p *Profile) DescribeProfile(ctx *gin.Context, req *entity.DescribeProfileRequest) (*entity.DescribeProfileResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("profile_id", req.ID).
		Msg("API: DescribeProfile called")

	profile, err := p.profileService.DescribeProfile(ctx, req.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to describe profile")
		return nil, err
	}

	return &entity.DescribeProfileResponse{
		Profile: profile,
	}, nil
}

func (p *Profile) UpdateProfile(ctx *gin.Context, req *entity.UpdateProfileRequest) (*entity.UpdateProfileResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("profile_id", req.ID).
		Str("name", req.Name).
		Str("host", req.Host).
		Bool("password_changed", req.Password != "").
		Msg("API: UpdateProfile called")

	profile, err := p.profileService.UpdateProfile(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to update profile")
		return nil, err
	}

	return &entity.UpdateProfileResponse{
		Profile: profile,
	}, nil
}

func (p *Profile) DeleteProfile(ctx *gin.Context, req *entity.DeleteProfileRequest) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("profile_id", req.ID).
		Msg("API: DeleteProfile called")

	if err := p.profileService.DeleteProfile(ctx, req.ID); err != nil {
		logger.Error().Err(err).Msg("Failed to delete profile")
		return err
	}

	return nil
}

func (p *Profile) TestProfile(ctx *gin.Context, req *entity.TestProfileRequest) (*entity.TestProfileResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("profile_id", req.ID).
		Msg("API: TestProfile called")

	resp, err := p.profileService.TestProfile(ctx, req.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to test profile")
		return nil, err
	}

	if !resp.OK {
		logger.Warn().
			Str("profile_id", req.ID).
			Str("error", resp.Error).
			Msg("Profile connectivity test failed")
	}
	return resp, nil
}
