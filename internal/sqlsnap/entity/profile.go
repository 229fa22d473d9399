package entity

import (
	"strings"
	"time"

	"github.com/jimyag/sqlsnap/pkg/apierror"
)

// Profile 连接配置，划定一批分组的引擎归属
// 密码只进不出，任何响应都不携带
type Profile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Host        string    `json:"host"`
	Port        int       `json:"port"`
	Username    string    `json:"username"`
	SnapshotDir string    `json:"snapshotDir"` // 引擎宿主机上的稀疏文件目录
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateProfileRequest 创建连接配置请求
type CreateProfileRequest struct {
	Name        string `json:"name" binding:"required"`
	Host        string `json:"host" binding:"required"`
	Port        int    `json:"port"`
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	SnapshotDir string `json:"snapshotDir" binding:"required"`
}

func (r *CreateProfileRequest) IsValid() error {
	if strings.TrimSpace(r.Name) == "" {
		return apierror.WrapError(apierror.ErrValidation, "profile name must not be blank", nil)
	}
	if r.Port < 0 || r.Port > 65535 {
		return apierror.WrapError(apierror.ErrValidation, "port must be between 0 and 65535", nil)
	}
	return nil
}

type CreateProfileResponse struct {
	Profile *Profile `json:"profile"`
}

// UpdateProfileRequest 修改连接配置请求，密码留空表示保持不变
type UpdateProfileRequest struct {
	ID          string `uri:"id" binding:"required"`
	Name        string `json:"name"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	SnapshotDir string `json:"snapshotDir"`
}

type UpdateProfileResponse struct {
	Profile *Profile `json:"profile"`
}

// DescribeProfileRequest 查询连接配置请求
type DescribeProfileRequest struct {
	ID string `uri:"id" binding:"required"`
}

type DescribeProfileResponse struct {
	Profile *Profile `json:"profile"`
}

// DeleteProfileRequest 删除连接配置请求
type DeleteProfileRequest struct {
	ID string `uri:"id" binding:"required"`
}

type ListProfilesResponse struct {
	Profiles []Profile `json:"profiles"`
}

// TestProfileRequest 连通性测试请求
type TestProfileRequest struct {
	ID string `uri:"id" binding:"required"`
}

// TestProfileResponse 连通性测试结果
type TestProfileResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
