package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/pkg/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGroupService 是 GroupService 的 mock 实现
type MockGroupService struct {
	mock.Mock
}

func (m *MockGroupService) CreateGroup(ctx context.Context, req *entity.CreateGroupRequest) (*entity.Group, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Group), args.Error(1)
}

func (m *MockGroupService) DescribeGroup(ctx context.Context, req *entity.DescribeGroupRequest) (*entity.Group, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Group), args.Error(1)
}

func (m *MockGroupService) ListGroups(ctx context.Context, req *entity.ListGroupsRequest) ([]entity.Group, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Group), args.Error(1)
}

func (m *MockGroupService) UpdateGroup(ctx context.Context, req *entity.UpdateGroupRequest) (*entity.UpdateGroupResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UpdateGroupResponse), args.Error(1)
}

func (m *MockGroupService) DeleteGroup(ctx context.Context, req *entity.DeleteGroupRequest) (*entity.DeleteGroupResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DeleteGroupResponse), args.Error(1)
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// decodeErrorResponse 从响应体解出统一错误结构
func decodeErrorResponse(t *testing.T, body []byte) *apierror.ErrorResponse {
	t.Helper()
	var resp apierror.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.Errors)
	return &resp
}

func TestGroup_CreateGroup(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name         string
		req          *entity.CreateGroupRequest
		mockSetup    func(*MockGroupService)
		expectStatus int
		expectCode   string
	}{
		{
			name: "successful create",
			req: &entity.CreateGroupRequest{
				ProfileID: "prof-1",
				Name:      "billing",
				Databases: []string{"billing", "billing_audit"},
			},
			mockSetup: func(m *MockGroupService) {
				m.On("CreateGroup", mock.Anything, mock.AnythingOfType("*entity.CreateGroupRequest")).
					Return(&entity.Group{
						ID:        "grp-123",
						ProfileID: "prof-1",
						Name:      "billing",
						Databases: []string{"billing", "billing_audit"},
					}, nil)
			},
			expectStatus: http.StatusOK,
		},
		{
			name: "duplicate name rejected",
			req: &entity.CreateGroupRequest{
				ProfileID: "prof-1",
				Name:      "billing",
				Databases: []string{"billing"},
			},
			mockSetup: func(m *MockGroupService) {
				m.On("CreateGroup", mock.Anything, mock.AnythingOfType("*entity.CreateGroupRequest")).
					Return(nil, apierror.WrapError(apierror.ErrValidation, "a group named billing already exists", nil))
			},
			expectStatus: http.StatusBadRequest,
			expectCode:   "ValidationError",
		},
		{
			name: "blank name rejected before reaching the service",
			req: &entity.CreateGroupRequest{
				ProfileID: "prof-1",
				Name:      "   ",
				Databases: []string{"billing"},
			},
			expectStatus: http.StatusBadRequest,
		},
		{
			name: "missing databases rejected before reaching the service",
			req: &entity.CreateGroupRequest{
				ProfileID: "prof-1",
				Name:      "billing",
			},
			expectStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockService := new(MockGroupService)
			if tc.mockSetup != nil {
				tc.mockSetup(mockService)
			}

			groupAPI := &Group{
				groupService: mockService,
			}

			router := setupTestRouter()
			apiGroup := router.Group("/api")
			groupAPI.RegisterRoutes(apiGroup)

			reqBody, err := json.Marshal(tc.req)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/api/groups", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tc.expectStatus, w.Code)
			if tc.expectCode != "" {
				resp := decodeErrorResponse(t, w.Body.Bytes())
				assert.Equal(t, tc.expectCode, resp.Errors[0].Code)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestGroup_ListGroups(t *testing.T) {
	t.Parallel()

	t.Run("lists all groups", func(t *testing.T) {
		t.Parallel()

		mockService := new(MockGroupService)
		mockService.On("ListGroups", mock.Anything, mock.MatchedBy(func(req *entity.ListGroupsRequest) bool {
			return req.ProfileID == ""
		})).Return([]entity.Group{
			{ID: "grp-1", Name: "billing"},
			{ID: "grp-2", Name: "crm"},
		}, nil)

		groupAPI := &Group{groupService: mockService}
		router := setupTestRouter()
		groupAPI.RegisterRoutes(router.Group("/api"))

		req := httptest.NewRequest(http.MethodGet, "/api/groups", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp entity.ListGroupsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Groups, 2)
		mockService.AssertExpectations(t)
	})

	t.Run("filters by profile from the query string", func(t *testing.T) {
		t.Parallel()

		mockService := new(MockGroupService)
		mockService.On("ListGroups", mock.Anything, mock.MatchedBy(func(req *entity.ListGroupsRequest) bool {
			return req.ProfileID == "prof-1"
		})).Return([]entity.Group{{ID: "grp-1", Name: "billing"}}, nil)

		groupAPI := &Group{groupService: mockService}
		router := setupTestRouter()
		groupAPI.RegisterRoutes(router.Group("/api"))

		req := httptest.NewRequest(http.MethodGet, "/api/groups?profileId=prof-1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp entity.ListGroupsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Groups, 1)
		mockService.AssertExpectations(t)
	})
}

func TestGroup_DescribeGroup(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name         string
		groupID      string
		mockSetup    func(*MockGroupService)
		expectStatus int
		expectCode   string
	}{
		{
			name:    "successful describe",
			groupID: "grp-123",
			mockSetup: func(m *MockGroupService) {
				m.On("DescribeGroup", mock.Anything, mock.MatchedBy(func(req *entity.DescribeGroupRequest) bool {
					return req.ID == "grp-123"
				})).Return(&entity.Group{ID: "grp-123", Name: "billing"}, nil)
			},
			expectStatus: http.StatusOK,
		},
		{
			name:    "group not found",
			groupID: "grp-missing",
			mockSetup: func(m *MockGroupService) {
				m.On("DescribeGroup", mock.Anything, mock.AnythingOfType("*entity.DescribeGroupRequest")).
					Return(nil, apierror.ErrGroupNotFound)
			},
			expectStatus: http.StatusNotFound,
			expectCode:   "GroupNotFound",
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockService := new(MockGroupService)
			tc.mockSetup(mockService)

			groupAPI := &Group{groupService: mockService}
			router := setupTestRouter()
			groupAPI.RegisterRoutes(router.Group("/api"))

			req := httptest.NewRequest(http.MethodGet, "/api/groups/"+tc.groupID, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.expectStatus, w.Code)
			if tc.expectCode != "" {
				resp := decodeErrorResponse(t, w.Body.Bytes())
				assert.Equal(t, tc.expectCode, resp.Errors[0].Code)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestGroup_UpdateGroup(t *testing.T) {
	t.Parallel()

	t.Run("merges the path id with the body", func(t *testing.T) {
		t.Parallel()

		mockService := new(MockGroupService)
		mockService.On("UpdateGroup", mock.Anything, mock.MatchedBy(func(req *entity.UpdateGroupRequest) bool {
			return req.ID == "grp-123" && req.Name == "billing-v2" && !req.ConfirmDelete
		})).Return(&entity.UpdateGroupResponse{
			Group: &entity.Group{ID: "grp-123", Name: "billing-v2"},
		}, nil)

		groupAPI := &Group{groupService: mockService}
		router := setupTestRouter()
		groupAPI.RegisterRoutes(router.Group("/api"))

		body := bytes.NewReader([]byte(`{"name":"billing-v2"}`))
		req := httptest.NewRequest(http.MethodPut, "/api/groups/grp-123", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp entity.UpdateGroupResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "billing-v2", resp.Group.Name)
		mockService.AssertExpectations(t)
	})

	t.Run("surfaces the confirmation conflict with its details", func(t *testing.T) {
		t.Parallel()

		mockService := new(MockGroupService)
		mockService.On("UpdateGroup", mock.Anything, mock.AnythingOfType("*entity.UpdateGroupRequest")).
			Return(nil, apierror.WithDetails(apierror.ErrConfirmationRequired, map[string]any{
				"snapshotCount": 2,
				"databaseCount": 3,
			}))

		groupAPI := &Group{groupService: mockService}
		router := setupTestRouter()
		groupAPI.RegisterRoutes(router.Group("/api"))

		body := bytes.NewReader([]byte(`{"name":"renamed"}`))
		req := httptest.NewRequest(http.MethodPut, "/api/groups/grp-123", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusConflict, w.Code)
		resp := decodeErrorResponse(t, w.Body.Bytes())
		assert.Equal(t, "ConfirmationRequired", resp.Errors[0].Code)
		assert.EqualValues(t, 2, resp.Errors[0].Details["snapshotCount"])
		assert.EqualValues(t, 3, resp.Errors[0].Details["databaseCount"])
		mockService.AssertExpectations(t)
	})
}

func TestGroup_DeleteGroup(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name         string
		groupID      string
		mockSetup    func(*MockGroupService)
		expectStatus int
	}{
		{
			name:    "successful delete reports the cascade size",
			groupID: "grp-123",
			mockSetup: func(m *MockGroupService) {
				m.On("DeleteGroup", mock.Anything, mock.MatchedBy(func(req *entity.DeleteGroupRequest) bool {
					return req.ID == "grp-123"
				})).Return(&entity.DeleteGroupResponse{DeletedSnapshots: 3}, nil)
			},
			expectStatus: http.StatusOK,
		},
		{
			name:    "group not found",
			groupID: "grp-missing",
			mockSetup: func(m *MockGroupService) {
				m.On("DeleteGroup", mock.Anything, mock.AnythingOfType("*entity.DeleteGroupRequest")).
					Return(nil, apierror.ErrGroupNotFound)
			},
			expectStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockService := new(MockGroupService)
			tc.mockSetup(mockService)

			groupAPI := &Group{groupService: mockService}
			router := setupTestRouter()
			groupAPI.RegisterRoutes(router.Group("/api"))

			req := httptest.NewRequest(http.MethodDelete, "/api/groups/"+tc.groupID, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.expectStatus, w.Code)
			if tc.expectStatus == http.StatusOK {
				var resp entity.DeleteGroupResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, 3, resp.DeletedSnapshots)
			}
			mockService.AssertExpectations(t)
		})
	}
}
