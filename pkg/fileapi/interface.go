package fileapi

import (
	"context"
)

// Config 文件管理服务的连接配置
type Config struct {
	BaseURL  string
	Username string
	Password string
}

// FileInfo 文件管理服务返回的一个文件
type FileInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Client 定义文件管理服务客户端接口
// 编排器只通过它查看和清理引擎宿主机上的快照稀疏文件
type Client interface {
	ListFiles(ctx context.Context, dir string) ([]FileInfo, error)
	DeleteFile(ctx context.Context, path string) error
}
