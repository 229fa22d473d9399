package mssql

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient 是 Client 的 mock 实现
// 用于测试，不需要真实的 SQL Server 连接
type MockClient struct {
	mock.Mock
}

var _ Client = (*MockClient)(nil)

// NewMockClient 创建 mock client
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockClient) DatabaseExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockClient) ListDataFiles(ctx context.Context, database string) ([]DataFile, error) {
	args := m.Called(ctx, database)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]DataFile), args.Error(1)
}

func (m *MockClient) ListPhysicalFiles(ctx context.Context, database string) ([]string, error) {
	args := m.Called(ctx, database)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockClient) CreateSnapshot(ctx context.Context, source, artifact string, files []SnapshotFile) error {
	args := m.Called(ctx, source, artifact, files)
	return args.Error(0)
}

func (m *MockClient) ListSnapshotArtifacts(ctx context.Context) ([]SnapshotArtifact, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SnapshotArtifact), args.Error(1)
}

func (m *MockClient) ProbeSnapshot(ctx context.Context, artifact string) error {
	args := m.Called(ctx, artifact)
	return args.Error(0)
}

func (m *MockClient) RestoreFromSnapshot(ctx context.Context, database, artifact string) error {
	args := m.Called(ctx, database, artifact)
	return args.Error(0)
}

func (m *MockClient) DropDatabase(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockClient) SetSingleUser(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockClient) SetMultiUser(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// MockConnector 是 Connector 的 mock 实现
// Connect 返回预先注入的 Client
type MockConnector struct {
	mock.Mock
}

var _ Connector = (*MockConnector)(nil)

// NewMockConnector 创建 mock connector
func NewMockConnector() *MockConnector {
	return &MockConnector{}
}

func (m *MockConnector) Connect(ctx context.Context, cfg *Config) (Client, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Client), args.Error(1)
}
