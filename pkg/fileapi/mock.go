package fileapi

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient 是 Client 的 mock 实现
type MockClient struct {
	mock.Mock
}

var _ Client = (*MockClient)(nil)

// NewMockClient 创建 mock client
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) ListFiles(ctx context.Context, dir string) ([]FileInfo, error) {
	args := m.Called(ctx, dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]FileInfo), args.Error(1)
}

func (m *MockClient) DeleteFile(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}
