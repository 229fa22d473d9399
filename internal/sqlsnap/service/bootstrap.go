package service

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
)

// bootstrapProfile 引导文件里的一条连接配置
type bootstrapProfile struct {
	Name        string `yaml:"name"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	SnapshotDir string `yaml:"snapshotDir"`
}

// bootstrapFile 引导文件结构
type bootstrapFile struct {
	Profiles []bootstrapProfile `yaml:"profiles"`
}

// ImportProfiles 从 YAML 引导文件导入连接配置，便于部署时预置引擎
// 按名称去重，已存在的跳过；文件有问题只记日志，不阻塞服务启动
func (s *ProfileService) ImportProfiles(ctx context.Context, path string) {
	logger := zerolog.Ctx(ctx)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to read profiles bootstrap file")
		return
	}

	var file bootstrapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to parse profiles bootstrap file")
		return
	}

	imported := 0
	for _, p := range file.Profiles {
		if p.Name == "" || p.Host == "" {
			logger.Warn().Str("profile", p.Name).Msg("Skipping bootstrap profile without name or host")
			continue
		}
		if _, err := s.profileRepo.GetByName(ctx, p.Name); err == nil {
			continue
		}
		if _, err := s.CreateProfile(ctx, &entity.CreateProfileRequest{
			Name:        p.Name,
			Host:        p.Host,
			Port:        p.Port,
			Username:    p.Username,
			Password:    p.Password,
			SnapshotDir: p.SnapshotDir,
		}); err != nil {
			logger.Warn().Err(err).Str("profile", p.Name).Msg("Failed to import bootstrap profile")
			continue
		}
		imported++
	}
	if imported > 0 {
		logger.Info().Int("imported", imported).Str("path", path).Msg("Imported bootstrap profiles")
	}
}
