package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository/model"
	"github.com/jimyag/sqlsnap/pkg/apierror"
	"github.com/jimyag/sqlsnap/pkg/idgen"
)

// watchBuffer 每个订阅者的缓冲大小，写满时丢弃而不是阻塞编排流程
const watchBuffer = 16

// HistoryService 审计历史服务
// 每个编排动作追加且只追加一条记录，部分失败也不例外
type HistoryService struct {
	historyRepo  repository.HistoryRepository
	settingsRepo repository.SettingsRepository
	idGen        *idgen.Generator

	mu       sync.Mutex
	watchers map[uint64]chan entity.HistoryEntry
	nextID   uint64
}

// NewHistoryService 创建审计历史服务
func NewHistoryService(repo *repository.Repository) *HistoryService {
	return &HistoryService{
		historyRepo:  repository.NewHistoryRepository(repo.DB()),
		settingsRepo: repository.NewSettingsRepository(repo.DB()),
		idGen:        idgen.New(),
		watchers:     make(map[uint64]chan entity.HistoryEntry),
	}
}

// Append 追加一条审计记录并广播给订阅者
// 追加失败只记日志不上抛，审计通道的故障不应让编排动作整个失败
func (s *HistoryService) Append(ctx context.Context, action, groupName, snapshotID, message string, details any) {
	logger := zerolog.Ctx(ctx)

	id, err := s.idGen.GenerateHistoryID()
	if err != nil {
		logger.Error().Err(err).Str("action", action).Msg("Failed to generate history ID")
		return
	}

	detailsJSON := ""
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			logger.Error().Err(err).Str("action", action).Msg("Failed to marshal history details")
		} else {
			detailsJSON = string(raw)
		}
	}

	m := &model.HistoryEntry{
		ID:         id,
		Action:     action,
		GroupName:  groupName,
		SnapshotID: snapshotID,
		Message:    message,
		Details:    detailsJSON,
		CreatedAt:  time.Now(),
	}
	if err := s.historyRepo.Append(ctx, m); err != nil {
		logger.Error().Err(err).Str("action", action).Msg("Failed to append history entry")
		return
	}

	s.trim(ctx)

	e, err := historyModelToEntity(m)
	if err != nil {
		logger.Error().Err(err).Str("historyID", id).Msg("Failed to convert history entry")
		return
	}
	s.broadcast(*e)
}

// List 按时间倒序列出审计记录
func (s *HistoryService) List(ctx context.Context, req *entity.ListHistoryRequest) ([]entity.HistoryEntry, error) {
	limit := req.Limit
	if limit <= 0 {
		settings, err := s.settingsRepo.Get(ctx)
		if err != nil {
			return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to load settings", err)
		}
		limit = settings.MaxHistoryEntries
	}

	models, err := s.historyRepo.List(ctx, limit)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to list history entries", err)
	}

	entries := make([]entity.HistoryEntry, 0, len(models))
	for _, m := range models {
		e, err := historyModelToEntity(m)
		if err != nil {
			return nil, apierror.WrapError(apierror.ErrInternalError, "Failed to convert history entry", err)
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

// Watch 订阅新的审计记录，返回通道和取消函数
// 订阅者消费太慢时新记录被丢弃，历史接口仍然是完整事实来源
func (s *HistoryService) Watch() (<-chan entity.HistoryEntry, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan entity.HistoryEntry, watchBuffer)
	s.watchers[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if ch, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(ch)
		}
	}
	return ch, cancel
}

// broadcast 将新记录发给所有订阅者，不阻塞
func (s *HistoryService) broadcast(e entity.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- e:
		default:
		}
	}
}

// trim 裁剪超出上限的最旧记录
func (s *HistoryService) trim(ctx context.Context) {
	logger := zerolog.Ctx(ctx)

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load settings for history trim")
		return
	}
	removed, err := s.historyRepo.Trim(ctx, settings.MaxHistoryEntries)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to trim history entries")
		return
	}
	if removed > 0 {
		logger.Debug().Int64("removed", removed).Msg("Trimmed history entries")
	}
}
