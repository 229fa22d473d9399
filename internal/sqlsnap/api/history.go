package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/service"
	"github.com/jimyag/sqlsnap/pkg/ginx"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  32768,
	WriteBufferSize: 32768,
	CheckOrigin: func(r *http.Request) bool {
		// 允许所有来源 (生产环境应该检查 Origin)
		return true
	},
}

// HistoryServiceInterface 定义历史记录服务接口
type HistoryServiceInterface interface {
	List(ctx context.Context, req *entity.ListHistoryRequest) ([]entity.HistoryEntry, error)
	Watch() (<-chan entity.HistoryEntry, func())
}

type History struct {
	historyService HistoryServiceInterface
}

func NewHistory(historyService *service.HistoryService) *History {
	return &History{
		historyService: historyService,
	}
}

func (h *History) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/history", ginx.Adapt5(h.ListHistory))
	router.GET("/history/watch", h.Watch)
}

func (h *History) ListHistory(ctx *gin.Context, req *entity.ListHistoryRequest) (*entity.ListHistoryResponse, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Int("limit", req.Limit).
		Msg("API: ListHistory called")

	entries, err := h.historyService.List(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list history")
		return nil, err
	}

	return &entity.ListHistoryResponse{
		Entries: entries,
	}, nil
}

// Watch 处理历史记录的 WebSocket 实时推送
// 每条新追加的记录以一帧 JSON 下发，消费不过来的连接会丢帧
func (h *History) Watch(ctx *gin.Context) {
	logger := zerolog.Ctx(ctx.Request.Context())
	logger.Info().
		Str("remote_addr", ctx.Request.RemoteAddr).
		Msg("History watch connection request")

	// 升级为 WebSocket 连接
	wsConn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to upgrade WebSocket")
		return
	}
	defer wsConn.Close()

	entries, cancel := h.historyService.Watch()
	defer cancel()

	// 读泵只用来感知客户端断开
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := wsConn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				logger.Info().Msg("History watch feed closed")
				return
			}
			if err := wsConn.WriteJSON(entry); err != nil {
				logger.Warn().Err(err).Msg("History watch write failed")
				return
			}
		case <-done:
			logger.Info().Msg("History watch session ended")
			return
		case <-ctx.Request.Context().Done():
			return
		}
	}
}
