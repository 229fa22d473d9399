package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/sqlsnap/internal/sqlsnap/entity"
	"github.com/jimyag/sqlsnap/internal/sqlsnap/repository"
	"github.com/jimyag/sqlsnap/pkg/mssql"
)

// TestServices 包含测试所需的所有服务和依赖
type TestServices struct {
	Repo             *repository.Repository
	MockConnector    *mssql.MockConnector
	MockClient       *mssql.MockClient
	ProfileService   *ProfileService
	GroupService     *GroupService
	SnapshotService  *SnapshotService
	RollbackService  *RollbackService
	ReconcileService *ReconcileService
	HistoryService   *HistoryService
	SettingsService  *SettingsService
	TempDir          string
}

// setupTestServices 为每个测试用例创建独立的测试环境
// 每个测试用例都有自己的数据库文件和 mock 引擎连接
func setupTestServices(t *testing.T) *TestServices {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := repository.New(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = repo.Close()
		_ = os.RemoveAll(tmpDir)
	})

	mockClient := mssql.NewMockClient()
	mockClient.On("Close").Return(nil).Maybe()

	mockConnector := mssql.NewMockConnector()

	cipher := NewCipher("test-secret")
	historyService := NewHistoryService(repo)
	settingsService := NewSettingsService(repo, cipher)
	profileService := NewProfileService(repo, mockConnector, cipher)
	snapshotService := NewSnapshotService(repo, profileService, historyService, mockConnector)
	groupService := NewGroupService(repo, profileService, snapshotService, historyService)
	rollbackService := NewRollbackService(repo, snapshotService, settingsService, historyService)
	reconcileService := NewReconcileService(repo, snapshotService, profileService, settingsService, historyService)

	return &TestServices{
		Repo:             repo,
		MockConnector:    mockConnector,
		MockClient:       mockClient,
		ProfileService:   profileService,
		GroupService:     groupService,
		SnapshotService:  snapshotService,
		RollbackService:  rollbackService,
		ReconcileService: reconcileService,
		HistoryService:   historyService,
		SettingsService:  settingsService,
		TempDir:          tmpDir,
	}
}

// expectConnect 注册标准的引擎连接期望，之后的连接都拿到共享的 mock client
func (ts *TestServices) expectConnect() {
	ts.MockConnector.On("Connect", mock.Anything, mock.AnythingOfType("*mssql.Config")).Return(ts.MockClient, nil)
}

// expectCapture 注册单个库成功打快照所需的引擎期望
func (ts *TestServices) expectCapture(database string) {
	ts.MockClient.On("ListDataFiles", mock.Anything, database).Return([]mssql.DataFile{
		{LogicalName: database + "_data", PhysicalPath: `C:\data\` + database + `.mdf`},
	}, nil)
	ts.MockClient.On("CreateSnapshot", mock.Anything, database, mock.AnythingOfType("string"), mock.Anything).Return(nil)
}

// createTestProfile 创建一个测试用连接配置
func createTestProfile(t *testing.T, ts *TestServices) *entity.Profile {
	t.Helper()

	profile, err := ts.ProfileService.CreateProfile(context.Background(), &entity.CreateProfileRequest{
		Name:        "staging",
		Host:        "127.0.0.1",
		Port:        1433,
		Username:    "sa",
		Password:    "Passw0rd!",
		SnapshotDir: `C:\snapshots`,
	})
	require.NoError(t, err)
	return profile
}

// createTestGroup 创建一个测试用分组
func createTestGroup(t *testing.T, ts *TestServices, profileID, name string, databases ...string) *entity.Group {
	t.Helper()

	if len(databases) == 0 {
		databases = []string{"billing", "billing_audit"}
	}
	group, err := ts.GroupService.CreateGroup(context.Background(), &entity.CreateGroupRequest{
		ProfileID: profileID,
		Name:      name,
		Databases: databases,
	})
	require.NoError(t, err)
	return group
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(i int) *int {
	return &i
}

func strPtr(s string) *string {
	return &s
}
