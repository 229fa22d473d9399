package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository/model"
)

func TestHistoryRepository(t *testing.T) {
	t.Parallel()

	repo := setupTestDB(t)

	historyRepo := NewHistoryRepository(repo.DB())
	ctx := context.Background()

	t.Run("Append and List newest first", func(t *testing.T) {
		base := time.Now().Add(-time.Hour)
		for i := 0; i < 3; i++ {
			entry := &model.HistoryEntry{
				ID:        fmt.Sprintf("hist-list-%d", i),
				Action:    "snapshot_created",
				GroupName: "billing",
				Message:   fmt.Sprintf("entry %d", i),
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}
			require.NoError(t, historyRepo.Append(ctx, entry))
		}

		entries, err := historyRepo.List(ctx, 0)
		assert.NoError(t, err)
		require.GreaterOrEqual(t, len(entries), 3)
		// 最新的在前
		assert.Equal(t, "entry 2", entries[0].Message)
		assert.Equal(t, "entry 1", entries[1].Message)

		limited, err := historyRepo.List(ctx, 2)
		assert.NoError(t, err)
		assert.Len(t, limited, 2)
	})

	t.Run("Trim removes oldest first", func(t *testing.T) {
		repo := setupTestDB(t)
		historyRepo := NewHistoryRepository(repo.DB())

		base := time.Now().Add(-time.Hour)
		for i := 0; i < 5; i++ {
			entry := &model.HistoryEntry{
				ID:        fmt.Sprintf("hist-trim-%d", i),
				Action:    "rollback",
				Message:   fmt.Sprintf("entry %d", i),
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}
			require.NoError(t, historyRepo.Append(ctx, entry))
		}

		removed, err := historyRepo.Trim(ctx, 3)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		entries, err := historyRepo.List(ctx, 0)
		assert.NoError(t, err)
		require.Len(t, entries, 3)
		// 留下的是最新的三条
		assert.Equal(t, "entry 4", entries[0].Message)
		assert.Equal(t, "entry 2", entries[2].Message)

		// 没有超限时不删
		removed, err = historyRepo.Trim(ctx, 3)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), removed)
	})

	t.Run("Count", func(t *testing.T) {
		repo := setupTestDB(t)
		historyRepo := NewHistoryRepository(repo.DB())

		count, err := historyRepo.Count(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), count)

		require.NoError(t, historyRepo.Append(ctx, &model.HistoryEntry{
			ID:        "hist-count-1",
			Action:    "snapshot_created",
			Message:   "one",
			CreatedAt: time.Now(),
		}))

		count, err = historyRepo.Count(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}
