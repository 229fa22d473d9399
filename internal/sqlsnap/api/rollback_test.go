package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/pkg/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRollbackService 是 RollbackService 的 mock 实现
type MockRollbackService struct {
	mock.Mock
}

func (m *MockRollbackService) Rollback(ctx context.Context, req *entity.RollbackRequest) (*entity.RollbackResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RollbackResult), args.Error(1)
}

func TestRollback_Rollback(t *testing.T) {
	t.Parallel()

	t.Run("successful rollback always reports failedRollbacks", func(t *testing.T) {
		t.Parallel()

		mockService := new(MockRollbackService)
		mockService.On("Rollback", mock.Anything, mock.MatchedBy(func(req *entity.RollbackRequest) bool {
			return req.ID == "sf_billing_0a1b2c3d"
		})).Return(&entity.RollbackResult{
			SnapshotID:          "sf_billing_0a1b2c3d",
			GroupID:             "grp-123",
			RolledBackDatabases: []string{"billing", "billing_audit"},
			FailedRollbacks:     []entity.FailedRollback{},
			DroppedSiblings:     2,
			Checkpoint:          &entity.CheckpointResult{SnapshotID: "sf_billing_deadbeef"},
		}, nil)

		rollbackAPI := &Rollback{rollbackService: mockService}
		router := setupTestRouter()
		rollbackAPI.RegisterRoutes(router.Group("/api"))

		req := httptest.NewRequest(http.MethodPost, "/api/snapshots/sf_billing_0a1b2c3d/rollback", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		// failedRollbacks 即使为空也必须出现在响应里
		var raw map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		_, present := raw["failedRollbacks"]
		assert.True(t, present, "failedRollbacks should always be serialized")

		var result entity.RollbackResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, []string{"billing", "billing_audit"}, result.RolledBackDatabases)
		assert.Equal(t, 2, result.DroppedSiblings)
		require.NotNil(t, result.Checkpoint)
		assert.Equal(t, "sf_billing_deadbeef", result.Checkpoint.SnapshotID)
		mockService.AssertExpectations(t)
	})

	t.Run("partial failure is still a successful response", func(t *testing.T) {
		t.Parallel()

		mockService := new(MockRollbackService)
		mockService.On("Rollback", mock.Anything, mock.AnythingOfType("*entity.RollbackRequest")).
			Return(&entity.RollbackResult{
				SnapshotID:          "sf_billing_0a1b2c3d",
				GroupID:             "grp-123",
				RolledBackDatabases: []string{"billing"},
				FailedRollbacks: []entity.FailedRollback{
					{Database: "billing_audit", Error: "restore deadlocked"},
				},
			}, nil)

		rollbackAPI := &Rollback{rollbackService: mockService}
		router := setupTestRouter()
		rollbackAPI.RegisterRoutes(router.Group("/api"))

		req := httptest.NewRequest(http.MethodPost, "/api/snapshots/sf_billing_0a1b2c3d/rollback", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var result entity.RollbackResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		require.Len(t, result.FailedRollbacks, 1)
		assert.Equal(t, "billing_audit", result.FailedRollbacks[0].Database)
		mockService.AssertExpectations(t)
	})

	t.Run("artifacts already gone", func(t *testing.T) {
		t.Parallel()

		mockService := new(MockRollbackService)
		mockService.On("Rollback", mock.Anything, mock.AnythingOfType("*entity.RollbackRequest")).
			Return(nil, apierror.ErrSnapshotArtifactsMissing)

		rollbackAPI := &Rollback{rollbackService: mockService}
		router := setupTestRouter()
		rollbackAPI.RegisterRoutes(router.Group("/api"))

		req := httptest.NewRequest(http.MethodPost, "/api/snapshots/sf_billing_0a1b2c3d/rollback", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusGone, w.Code)
		resp := decodeErrorResponse(t, w.Body.Bytes())
		assert.Equal(t, "SnapshotArtifactsMissing", resp.Errors[0].Code)
		mockService.AssertExpectations(t)
	})

	t.Run("no database restored", func(t *testing.T) {
		t.Parallel()

		mockService := new(MockRollbackService)
		mockService.On("Rollback", mock.Anything, mock.AnythingOfType("*entity.RollbackRequest")).
			Return(nil, apierror.WithDetails(apierror.ErrRollbackFailed, map[string]any{
				"failedRollbacks": []entity.FailedRollback{
					{Database: "billing", Error: "set single user: login timeout"},
					{Database: "billing_audit", Error: "set single user: login timeout"},
				},
			}))

		rollbackAPI := &Rollback{rollbackService: mockService}
		router := setupTestRouter()
		rollbackAPI.RegisterRoutes(router.Group("/api"))

		req := httptest.NewRequest(http.MethodPost, "/api/snapshots/sf_billing_0a1b2c3d/rollback", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadGateway, w.Code)
		resp := decodeErrorResponse(t, w.Body.Bytes())
		assert.Equal(t, "RollbackFailed", resp.Errors[0].Code)
		assert.Contains(t, resp.Errors[0].Details, "failedRollbacks")
		mockService.AssertExpectations(t)
	})

	t.Run("snapshot not found", func(t *testing.T) {
		t.Parallel()

		mockService := new(MockRollbackService)
		mockService.On("Rollback", mock.Anything, mock.AnythingOfType("*entity.RollbackRequest")).
			Return(nil, apierror.ErrSnapshotNotFound)

		rollbackAPI := &Rollback{rollbackService: mockService}
		router := setupTestRouter()
		rollbackAPI.RegisterRoutes(router.Group("/api"))

		req := httptest.NewRequest(http.MethodPost, "/api/snapshots/sf_missing/rollback", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})
}
