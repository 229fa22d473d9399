// Package sqlsnap 提供 sqlsnap 服务器的主入口和初始化逻辑
package sqlsnap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jimmicro/grace"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/api"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/config"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/service"
	"github.com/jimyag/sqlsnap/pkg/mssql"
	"github.com/rs/zerolog"
)

type Server struct {
	cfg  *config.Config
	api  *api.API
	repo *repository.Repository

	reconcile *service.ReconcileService
}

func New(cfg *config.Config) (*Server, error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger

	// 0. 准备数据目录和元数据库
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	repo, err := repository.New(cfg.MetaDBPath())
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	logger.Info().Str("path", cfg.MetaDBPath()).Msg("Metadata store initialized")

	// 1. 创建密码加解密器和引擎 Connector
	cipher := service.NewCipher(cfg.Secret)
	connector := mssql.DefaultConnector{}

	// 2. 创建各 Service
	profileService := service.NewProfileService(repo, connector, cipher)
	settingsService := service.NewSettingsService(repo, cipher)
	historyService := service.NewHistoryService(repo)
	snapshotService := service.NewSnapshotService(repo, profileService, historyService, connector)
	groupService := service.NewGroupService(repo, profileService, snapshotService, historyService)
	rollbackService := service.NewRollbackService(repo, snapshotService, settingsService, historyService)
	reconcileService := service.NewReconcileService(repo, snapshotService, profileService, settingsService, historyService)

	// 3. 启动时导入连接配置（可选，文件不存在或损坏不阻塞启动）
	profileService.ImportProfiles(context.Background(), cfg.ProfilesFile)

	// 4. 创建 API
	apiInstance, err := api.New(
		cfg.Address,
		groupService,
		snapshotService,
		rollbackService,
		reconcileService,
		profileService,
		historyService,
		settingsService,
	)
	if err != nil {
		return nil, err
	}

	server := &Server{
		cfg:       cfg,
		api:       apiInstance,
		repo:      repo,
		reconcile: reconcileService,
	}
	return server, nil
}

func (s *Server) Run(ctx context.Context) error {
	// 启动清扫不阻塞服务就绪，引擎不可达时它只留日志
	go s.reconcile.StartupSweep(ctx)

	// 使用 grace.Shepherd 管理服务生命周期
	services := []grace.Grace{
		s.api,
	}

	shepherd := grace.NewShepherd(
		services,
		grace.WithTimeout(30*time.Second),
		grace.WithLogger(&zerologLogger{}),
	)

	shepherd.Start(ctx)
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.api.Shutdown(ctx)
}

// Name 实现 grace.Grace 接口
func (s *Server) Name() string {
	return "SQLSnap Server"
}

// zerologLogger 实现 grace.Logger 接口
type zerologLogger struct{}

func (l *zerologLogger) Info(msg string, args ...interface{}) {
	logger := zerolog.DefaultContextLogger.Info()
	// 如果有参数，使用 Msgf 格式化消息
	if len(args) > 0 {
		logger.Msgf(msg, args...)
	} else {
		logger.Msg(msg)
	}
}

func (l *zerologLogger) Error(msg string, args ...interface{}) {
	logger := zerolog.DefaultContextLogger.Error()
	// 如果有参数，使用 Msgf 格式化消息
	if len(args) > 0 {
		logger.Msgf(msg, args...)
	} else {
		logger.Msg(msg)
	}
}
