package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository/model"
	"github.com/jimyag/sqlsnap/pkg/apierror"
	"github.com/jimyag/sqlsnap/pkg/idgen"
	"github.com/jimyag/sqlsnap/pkg/mssql"
)

// ProfileService 连接配置服务
// 密码静态加密存储，引擎连接配置按需解密构造，不持有全局单例
type ProfileService struct {
	profileRepo repository.ProfileRepository
	groupRepo   repository.GroupRepository
	connector   mssql.Connector
	cipher      *Cipher
	idGen       *idgen.Generator
}

// NewProfileService 创建连接配置服务
func NewProfileService(repo *repository.Repository, connector mssql.Connector, cipher *Cipher) *ProfileService {
	return &ProfileService{
		profileRepo: repository.NewProfileRepository(repo.DB()),
		groupRepo:   repository.NewGroupRepository(repo.DB()),
		connector:   connector,
		cipher:      cipher,
		idGen:       idgen.New(),
	}
}

// CreateProfile 创建连接配置
func (s *ProfileService) CreateProfile(ctx context.Context, req *entity.CreateProfileRequest) (*entity.Profile, error) {
	logger := zerolog.Ctx(ctx)

	id, err := s.idGen.GenerateProfileID()
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to generate profile ID", err)
	}

	encrypted, err := s.cipher.Encrypt(req.Password)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to encrypt password", err)
	}

	m := &model.Profile{
		ID:          id,
		Name:        req.Name,
		Host:        req.Host,
		Port:        req.Port,
		Username:    req.Username,
		Password:    encrypted,
		SnapshotDir: req.SnapshotDir,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.profileRepo.Create(ctx, m); err != nil {
		return nil, apierror.WrapError(apierror.ErrValidation, "Failed to create profile, the name may already be taken", err)
	}

	logger.Info().Str("profileID", id).Str("name", req.Name).Msg("Profile created")
	return profileModelToEntity(m)
}

// DescribeProfile 查询连接配置
func (s *ProfileService) DescribeProfile(ctx context.Context, id string) (*entity.Profile, error) {
	m, err := s.getProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	return profileModelToEntity(m)
}

// ListProfiles 列出全部连接配置
func (s *ProfileService) ListProfiles(ctx context.Context) ([]entity.Profile, error) {
	models, err := s.profileRepo.List(ctx)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to list profiles", err)
	}

	profiles := make([]entity.Profile, 0, len(models))
	for _, m := range models {
		e, err := profileModelToEntity(m)
		if err != nil {
			return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to convert profile", err)
		}
		profiles = append(profiles, *e)
	}
	return profiles, nil
}

// UpdateProfile 修改连接配置，密码留空表示保持不变
func (s *ProfileService) UpdateProfile(ctx context.Context, req *entity.UpdateProfileRequest) (*entity.Profile, error) {
	logger := zerolog.Ctx(ctx)

	m, err := s.getProfile(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		m.Name = req.Name
	}
	if req.Host != "" {
		m.Host = req.Host
	}
	if req.Port != 0 {
		m.Port = req.Port
	}
	if req.Username != "" {
		m.Username = req.Username
	}
	if req.Password != "" {
		encrypted, err := s.cipher.Encrypt(req.Password)
		if err != nil {
			return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to encrypt password", err)
		}
		m.Password = encrypted
	}
	if req.SnapshotDir != "" {
		m.SnapshotDir = req.SnapshotDir
	}
	m.UpdatedAt = time.Now()

	if err := s.profileRepo.Update(ctx, m); err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to update profile", err)
	}

	logger.Info().Str("profileID", m.ID).Msg("Profile updated")
	return profileModelToEntity(m)
}

// DeleteProfile 删除连接配置
// 仍有分组引用时拒绝删除，避免悄悄切断分组与引擎的归属
func (s *ProfileService) DeleteProfile(ctx context.Context, id string) error {
	logger := zerolog.Ctx(ctx)

	if _, err := s.getProfile(ctx, id); err != nil {
		return err
	}

	groups, err := s.groupRepo.List(ctx, id)
	if err != nil {
		return apierror.WrapError(apierror.ErrInternalError, "Failed to list groups of profile", err)
	}
	if len(groups) > 0 {
		return apierror.WrapError(apierror.ErrValidation,
			"The profile still has groups. Delete its groups first.", nil)
	}

	if err := s.profileRepo.Delete(ctx, id); err != nil {
		return apierror.WrapError(apierror.ErrInternalError, "Failed to delete profile", err)
	}

	logger.Info().Str("profileID", id).Msg("Profile deleted")
	return nil
}

// TestProfile 对连接配置做一次连通性测试
func (s *ProfileService) TestProfile(ctx context.Context, id string) (*entity.TestProfileResponse, error) {
	cfg, err := s.EngineConfig(ctx, id)
	if err != nil {
		return nil, err
	}

	client, err := s.connector.Connect(ctx, cfg)
	if err != nil {
		return &entity.TestProfileResponse{OK: false, Error: err.Error()}, nil
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		return &entity.TestProfileResponse{OK: false, Error: err.Error()}, nil
	}
	return &entity.TestProfileResponse{OK: true}, nil
}

// EngineConfig 按连接配置构造一份显式的引擎连接配置
// 每个请求的调用方都拿到自己的值，不共享可变状态
func (s *ProfileService) EngineConfig(ctx context.Context, id string) (*mssql.Config, error) {
	m, err := s.getProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	password, err := s.cipher.Decrypt(m.Password)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to decrypt password", err)
	}

	return &mssql.Config{
		Host:     m.Host,
		Port:     m.Port,
		User:     m.Username,
		Password: password,
	}, nil
}

// SnapshotDir 返回连接配置的快照稀疏文件目录
func (s *ProfileService) SnapshotDir(ctx context.Context, id string) (string, error) {
	m, err := s.getProfile(ctx, id)
	if err != nil {
		return "", err
	}
	return m.SnapshotDir, nil
}

// getProfile 读取连接配置，不存在时映射为 ProfileNotFound
func (s *ProfileService) getProfile(ctx context.Context, id string) (*model.Profile, error) {
	m, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrProfileNotFound
		}
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to load profile", err)
	}
	return m, nil
}
