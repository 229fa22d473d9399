package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository"
	"github.com/jimyag/sqlsnap/pkg/apierror"
	"github.com/jimyag/sqlsnap/pkg/mssql"
)

func TestRollback(t *testing.T) {
	t.Parallel()

	t.Run("restores every database and creates an automatic checkpoint", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		ctx := context.Background()
		profile := createTestProfile(t, ts)
		group := createTestGroup(t, ts, profile.ID, "billing")

		ts.expectConnect()
		ts.expectCapture("billing")
		ts.expectCapture("billing_audit")

		older, err := ts.SnapshotService.CreateSnapshot(ctx, &entity.CreateSnapshotRequest{GroupID: group.ID, Label: "baseline"})
		require.NoError(t, err)
		newer, err := ts.SnapshotService.CreateSnapshot(ctx, &entity.CreateSnapshotRequest{GroupID: group.ID, Label: "later"})
		require.NoError(t, err)

		for _, d := range older.Databases {
			ts.MockClient.On("DatabaseExists", mock.Anything, d.ArtifactName).Return(true, nil)
		}

		// 第一遍清扫看到新旧两个快照的快照库，只有目标之外的被删
		all := make([]mssql.SnapshotArtifact, 0, 4)
		for _, s := range []*entity.Snapshot{older, newer} {
			for _, d := range s.Databases {
				all = append(all, mssql.SnapshotArtifact{Name: d.ArtifactName, SourceDatabase: d.Database, CreatedAt: time.Now()})
			}
		}
		remaining := []mssql.SnapshotArtifact{
			{Name: older.Databases[0].ArtifactName, SourceDatabase: "billing", CreatedAt: time.Now()},
			{Name: older.Databases[1].ArtifactName, SourceDatabase: "billing_audit", CreatedAt: time.Now()},
		}
		ts.MockClient.On("ListSnapshotArtifacts", mock.Anything).Return(all, nil).Once()
		ts.MockClient.On("ListSnapshotArtifacts", mock.Anything).Return(remaining, nil).Once()
		ts.MockClient.On("ListSnapshotArtifacts", mock.Anything).Return([]mssql.SnapshotArtifact{}, nil)

		for _, d := range newer.Databases {
			ts.MockClient.On("DropDatabase", mock.Anything, d.ArtifactName).Return(nil)
		}
		for _, d := range older.Databases {
			ts.MockClient.On("SetSingleUser", mock.Anything, d.Database).Return(nil)
			ts.MockClient.On("DropDatabase", mock.Anything, d.Database).Return(nil)
			ts.MockClient.On("RestoreFromSnapshot", mock.Anything, d.Database, d.ArtifactName).Return(nil)
			ts.MockClient.On("SetMultiUser", mock.Anything, d.Database).Return(nil)
		}

		result, err := ts.RollbackService.Rollback(ctx, &entity.RollbackRequest{ID: older.ID})
		require.NoError(t, err)

		assert.Equal(t, older.ID, result.SnapshotID)
		assert.Equal(t, group.ID, result.GroupID)
		assert.ElementsMatch(t, []string{"billing", "billing_audit"}, result.RolledBackDatabases)
		assert.Empty(t, result.FailedRollbacks)
		assert.Equal(t, 2, result.DroppedSiblings)
		require.NotNil(t, result.Checkpoint)
		assert.Empty(t, result.Checkpoint.Error)
		assert.True(t, strings.HasPrefix(result.Checkpoint.SnapshotID, "sf_billing_"))

		// 回滚让全部历史快照失效，只剩下序号从 1 重新开始的检查点
		listed, err := ts.SnapshotService.ListSnapshots(ctx, &entity.ListSnapshotsRequest{GroupID: group.ID})
		require.NoError(t, err)
		require.Len(t, listed.Snapshots, 1)
		assert.Equal(t, result.Checkpoint.SnapshotID, listed.Snapshots[0].ID)
		assert.Equal(t, 1, listed.Snapshots[0].Sequence)
		assert.Equal(t, "automatic checkpoint", listed.Snapshots[0].Name)

		entries, err := ts.HistoryService.List(ctx, &entity.ListHistoryRequest{})
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, entity.ActionRollback, entries[0].Action)
		assert.Equal(t, older.ID, entries[0].SnapshotID)
	})

	t.Run("continues after a single database failure", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		ctx := context.Background()
		profile := createTestProfile(t, ts)
		group := createTestGroup(t, ts, profile.ID, "billing")

		ts.expectConnect()
		ts.expectCapture("billing")
		ts.expectCapture("billing_audit")

		snapshot, err := ts.SnapshotService.CreateSnapshot(ctx, &entity.CreateSnapshotRequest{GroupID: group.ID, Label: "baseline"})
		require.NoError(t, err)

		for _, d := range snapshot.Databases {
			ts.MockClient.On("DatabaseExists", mock.Anything, d.ArtifactName).Return(true, nil)
		}
		ts.MockClient.On("ListSnapshotArtifacts", mock.Anything).Return([]mssql.SnapshotArtifact{}, nil)

		ts.MockClient.On("SetSingleUser", mock.Anything, "billing").Return(nil)
		ts.MockClient.On("DropDatabase", mock.Anything, "billing").Return(nil)
		ts.MockClient.On("RestoreFromSnapshot", mock.Anything, "billing", snapshot.Databases[0].ArtifactName).Return(nil)
		ts.MockClient.On("SetMultiUser", mock.Anything, "billing").Return(nil)

		// 第二个库在重建一步失败，之后的步骤不再执行
		ts.MockClient.On("SetSingleUser", mock.Anything, "billing_audit").Return(nil)
		ts.MockClient.On("DropDatabase", mock.Anything, "billing_audit").Return(nil)
		ts.MockClient.On("RestoreFromSnapshot", mock.Anything, "billing_audit", snapshot.Databases[1].ArtifactName).
			Return(errors.New("restore deadlocked"))

		result, err := ts.RollbackService.Rollback(ctx, &entity.RollbackRequest{ID: snapshot.ID})
		require.NoError(t, err)

		assert.Equal(t, []string{"billing"}, result.RolledBackDatabases)
		require.Len(t, result.FailedRollbacks, 1)
		assert.Equal(t, "billing_audit", result.FailedRollbacks[0].Database)
		assert.Contains(t, result.FailedRollbacks[0].Error, "restore deadlocked")
		require.NotNil(t, result.Checkpoint)
	})

	t.Run("fails before touching the engine when all artifacts are gone", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		ctx := context.Background()
		profile := createTestProfile(t, ts)
		group := createTestGroup(t, ts, profile.ID, "billing")

		ts.expectConnect()
		ts.expectCapture("billing")
		ts.expectCapture("billing_audit")

		snapshot, err := ts.SnapshotService.CreateSnapshot(ctx, &entity.CreateSnapshotRequest{GroupID: group.ID, Label: "gone"})
		require.NoError(t, err)

		for _, d := range snapshot.Databases {
			ts.MockClient.On("DatabaseExists", mock.Anything, d.ArtifactName).Return(false, nil)
		}

		_, err = ts.RollbackService.Rollback(ctx, &entity.RollbackRequest{ID: snapshot.ID})
		require.ErrorIs(t, err, apierror.ErrSnapshotArtifactsMissing)

		// 元数据原封不动，快照还能再试
		ts.MockClient.On("ListSnapshotArtifacts", mock.Anything).Return([]mssql.SnapshotArtifact{}, nil)
		listed, err := ts.SnapshotService.ListSnapshots(ctx, &entity.ListSnapshotsRequest{GroupID: group.ID})
		require.NoError(t, err)
		require.Len(t, listed.Snapshots, 1)
		assert.Equal(t, snapshot.ID, listed.Snapshots[0].ID)
	})

	t.Run("fails and keeps metadata when no database was rolled back", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		ctx := context.Background()
		profile := createTestProfile(t, ts)
		group := createTestGroup(t, ts, profile.ID, "billing", "billing")

		ts.expectConnect()
		ts.expectCapture("billing")

		snapshot, err := ts.SnapshotService.CreateSnapshot(ctx, &entity.CreateSnapshotRequest{GroupID: group.ID, Label: "stuck"})
		require.NoError(t, err)
		artifact := snapshot.Databases[0].ArtifactName

		ts.MockClient.On("DatabaseExists", mock.Anything, artifact).Return(true, nil)
		ts.MockClient.On("ListSnapshotArtifacts", mock.Anything).Return([]mssql.SnapshotArtifact{}, nil)
		ts.MockClient.On("SetSingleUser", mock.Anything, "billing").Return(errors.New("login timeout"))

		_, err = ts.RollbackService.Rollback(ctx, &entity.RollbackRequest{ID: snapshot.ID})
		require.ErrorIs(t, err, apierror.ErrRollbackFailed)

		var apiErr *apierror.Error
		require.ErrorAs(t, err, &apiErr)
		failed, ok := apiErr.Details["failedRollbacks"].([]entity.FailedRollback)
		require.True(t, ok)
		require.Len(t, failed, 1)
		assert.Contains(t, failed[0].Error, "login timeout")

		listed, err := ts.SnapshotService.ListSnapshots(ctx, &entity.ListSnapshotsRequest{GroupID: group.ID})
		require.NoError(t, err)
		require.Len(t, listed.Snapshots, 1)
	})

	t.Run("skips databases whose snapshot failed at capture time", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		ctx := context.Background()
		profile := createTestProfile(t, ts)
		group := createTestGroup(t, ts, profile.ID, "billing")

		ts.expectConnect()
		ts.expectCapture("billing")
		// 创建时第二个库失败，检查点时恢复正常
		ts.MockClient.On("ListDataFiles", mock.Anything, "billing_audit").Return(nil, errors.New("database offline")).Once()
		ts.expectCapture("billing_audit")

		snapshot, err := ts.SnapshotService.CreateSnapshot(ctx, &entity.CreateSnapshotRequest{GroupID: group.ID, Label: "partial"})
		require.NoError(t, err)
		require.False(t, snapshot.Databases[1].Success)
		artifact := snapshot.Databases[0].ArtifactName

		// 失败的库没有快照库，存在性检查和恢复都不该发生
		ts.MockClient.On("DatabaseExists", mock.Anything, artifact).Return(true, nil)
		ts.MockClient.On("ListSnapshotArtifacts", mock.Anything).Return([]mssql.SnapshotArtifact{}, nil)
		ts.MockClient.On("SetSingleUser", mock.Anything, "billing").Return(nil)
		ts.MockClient.On("DropDatabase", mock.Anything, "billing").Return(nil)
		ts.MockClient.On("RestoreFromSnapshot", mock.Anything, "billing", artifact).Return(nil)
		ts.MockClient.On("SetMultiUser", mock.Anything, "billing").Return(nil)

		result, err := ts.RollbackService.Rollback(ctx, &entity.RollbackRequest{ID: snapshot.ID})
		require.NoError(t, err)

		assert.Equal(t, []string{"billing"}, result.RolledBackDatabases)
		assert.Empty(t, result.FailedRollbacks)
	})

	t.Run("skips the checkpoint when disabled", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		ctx := context.Background()
		profile := createTestProfile(t, ts)
		group := createTestGroup(t, ts, profile.ID, "billing", "billing")

		_, err := ts.SettingsService.Update(ctx, &entity.UpdateSettingsRequest{AutoCheckpoint: boolPtr(false)})
		require.NoError(t, err)

		ts.expectConnect()
		ts.expectCapture("billing")

		snapshot, err := ts.SnapshotService.CreateSnapshot(ctx, &entity.CreateSnapshotRequest{GroupID: group.ID, Label: "plain"})
		require.NoError(t, err)
		artifact := snapshot.Databases[0].ArtifactName

		ts.MockClient.On("DatabaseExists", mock.Anything, artifact).Return(true, nil)
		ts.MockClient.On("ListSnapshotArtifacts", mock.Anything).Return([]mssql.SnapshotArtifact{}, nil)
		ts.MockClient.On("SetSingleUser", mock.Anything, "billing").Return(nil)
		ts.MockClient.On("DropDatabase", mock.Anything, "billing").Return(nil)
		ts.MockClient.On("RestoreFromSnapshot", mock.Anything, "billing", artifact).Return(nil)
		ts.MockClient.On("SetMultiUser", mock.Anything, "billing").Return(nil)

		result, err := ts.RollbackService.Rollback(ctx, &entity.RollbackRequest{ID: snapshot.ID})
		require.NoError(t, err)
		assert.Nil(t, result.Checkpoint)

		// 没有检查点，分组回到零快照状态
		listed, err := ts.SnapshotService.ListSnapshots(ctx, &entity.ListSnapshotsRequest{GroupID: group.ID})
		require.NoError(t, err)
		assert.Empty(t, listed.Snapshots)
	})

	t.Run("falls back to the live group name for legacy snapshots", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		ctx := context.Background()
		profile := createTestProfile(t, ts)
		group := createTestGroup(t, ts, profile.ID, "billing", "billing")

		ts.expectConnect()
		ts.expectCapture("billing")

		snapshot, err := ts.SnapshotService.CreateSnapshot(ctx, &entity.CreateSnapshotRequest{GroupID: group.ID, Label: "legacy"})
		require.NoError(t, err)
		artifact := snapshot.Databases[0].ArtifactName

		// 模拟反规范化字段缺失的旧数据
		snapshotRepo := repository.NewSnapshotRepository(ts.Repo.DB())
		m, err := snapshotRepo.GetByID(ctx, snapshot.ID)
		require.NoError(t, err)
		m.GroupName = ""
		require.NoError(t, snapshotRepo.Update(ctx, m))

		ts.MockClient.On("DatabaseExists", mock.Anything, artifact).Return(true, nil)
		ts.MockClient.On("ListSnapshotArtifacts", mock.Anything).Return([]mssql.SnapshotArtifact{}, nil)
		ts.MockClient.On("SetSingleUser", mock.Anything, "billing").Return(nil)
		ts.MockClient.On("DropDatabase", mock.Anything, "billing").Return(nil)
		ts.MockClient.On("RestoreFromSnapshot", mock.Anything, "billing", artifact).Return(nil)
		ts.MockClient.On("SetMultiUser", mock.Anything, "billing").Return(nil)

		_, err = ts.RollbackService.Rollback(ctx, &entity.RollbackRequest{ID: snapshot.ID})
		require.NoError(t, err)

		entries, err := ts.HistoryService.List(ctx, &entity.ListHistoryRequest{})
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, entity.ActionRollback, entries[0].Action)
		assert.Equal(t, "billing", entries[0].GroupName)
	})

	t.Run("returns SnapshotNotFound for unknown snapshot", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		_, err := ts.RollbackService.Rollback(context.Background(), &entity.RollbackRequest{ID: "sf_missing_00000000"})
		assert.ErrorIs(t, err, apierror.ErrSnapshotNotFound)
	})

	t.Run("fails hard when artifact existence cannot be checked", func(t *testing.T) {
		t.Parallel()

		ts := setupTestServices(t)
		ctx := context.Background()
		profile := createTestProfile(t, ts)
		group := createTestGroup(t, ts, profile.ID, "billing", "billing")

		ts.expectConnect()
		ts.expectCapture("billing")

		snapshot, err := ts.SnapshotService.CreateSnapshot(ctx, &entity.CreateSnapshotRequest{GroupID: group.ID, Label: "x"})
		require.NoError(t, err)

		ts.MockClient.On("DatabaseExists", mock.Anything, snapshot.Databases[0].ArtifactName).
			Return(false, errors.New("query timeout"))

		_, err = ts.RollbackService.Rollback(ctx, &entity.RollbackRequest{ID: snapshot.ID})
		assert.ErrorIs(t, err, apierror.ErrEngineUnavailable)
	})
}
