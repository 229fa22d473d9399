// Package api 提供 HTTP API 服务
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/service"
	"github.com/jimyag/sqlsnap/pkg/ginx"
	"github.com/jimyag/sqlsnap/pkg/idgen"
	"github.com/rs/zerolog"
)

type API struct {
	engine *gin.Engine
	server *http.Server

	group     *Group
	snapshot  *Snapshot
	rollback  *Rollback
	reconcile *Reconcile
	profile   *Profile
	history   *History
	settings  *Settings
}

func New(
	addr string,
	groupService *service.GroupService,
	snapshotService *service.SnapshotService,
	rollbackService *service.RollbackService,
	reconcileService *service.ReconcileService,
	profileService *service.ProfileService,
	historyService *service.HistoryService,
	settingsService *service.SettingsService,
) (*API, error) {
	engine := gin.Default()
	engine.Use(requestIDMiddleware())

	api := &API{
		engine:    engine,
		group:     NewGroup(groupService),
		snapshot:  NewSnapshot(snapshotService),
		rollback:  NewRollback(rollbackService),
		reconcile: NewReconcile(reconcileService),
		profile:   NewProfile(profileService),
		history:   NewHistory(historyService),
		settings:  NewSettings(settingsService),
	}

	apiGroup := engine.Group("/api")
	apiGroup.GET("/healthz", ginx.Adapt3(healthz))
	api.group.RegisterRoutes(apiGroup)
	api.snapshot.RegisterRoutes(apiGroup)
	api.rollback.RegisterRoutes(apiGroup)
	api.reconcile.RegisterRoutes(apiGroup)
	api.profile.RegisterRoutes(apiGroup)
	api.history.RegisterRoutes(apiGroup)
	api.settings.RegisterRoutes(apiGroup)

	printRoutes(engine)

	api.server = &http.Server{
		Addr:    addr,
		Handler: engine,
	}
	return api, nil
}

func (a *API) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		err := a.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (a *API) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Name 实现 grace.Grace 接口
func (a *API) Name() string {
	return "API Server"
}

// requestIDMiddleware 为每个请求生成请求 ID
// 错误响应会携带它，日志里也带上方便串联一次请求的全部记录
func requestIDMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		requestID, err := idgen.GenerateRequestID()
		if err != nil {
			// 生成失败不阻断请求，只是错误响应里请求 ID 为空
			zerolog.Ctx(ctx.Request.Context()).Warn().Err(err).Msg("Failed to generate request ID")
			ctx.Next()
			return
		}

		ginx.SetRequestID(ctx, requestID)
		ctx.Header("X-Request-ID", requestID)

		logger := zerolog.Ctx(ctx.Request.Context()).With().Str("request_id", requestID).Logger()
		ctx.Request = ctx.Request.WithContext(logger.WithContext(ctx.Request.Context()))
		ctx.Next()
	}
}

type healthzResponse struct {
	Status string `json:"status"`
}

func healthz(_ *gin.Context) (*healthzResponse, error) {
	return &healthzResponse{Status: "ok"}, nil
}

// printRoutes 启动时打印全部已注册的路由，方便核对
func printRoutes(engine *gin.Engine) {
	if zerolog.DefaultContextLogger == nil {
		return
	}
	for _, route := range engine.Routes() {
		zerolog.DefaultContextLogger.Info().
			Str("method", route.Method).
			Str("path", route.Path).
			Msg("Route registered")
	}
}
