package entity

import (
	"github.com/jimyag/sqlsnap/pkg/apierror"
)

// Settings 全局运行参数，单行存储
type Settings struct {
	AutoCheckpoint    bool   `json:"autoCheckpoint"`    // 回滚成功后自动创建检查点快照
	MaxHistoryEntries int    `json:"maxHistoryEntries"` // 历史记录上限，超出时裁掉最旧的
	FileAPIURL        string `json:"fileApiUrl"`        // 文件管理服务地址，留空则禁用文件报告
	FileAPIUsername   string `json:"fileApiUsername"`
	FileAPIPassword   string `json:"-"` // 只进不出
}

// UpdateSettingsRequest 修改全局设置请求，密码留空表示保持不变
type UpdateSettingsRequest struct {
	AutoCheckpoint    *bool   `json:"autoCheckpoint"`
	MaxHistoryEntries *int    `json:"maxHistoryEntries"`
	FileAPIURL        *string `json:"fileApiUrl"`
	FileAPIUsername   *string `json:"fileApiUsername"`
	FileAPIPassword   *string `json:"fileApiPassword"`
}

func (r *UpdateSettingsRequest) IsValid() error {
	if r.MaxHistoryEntries != nil && *r.MaxHistoryEntries < 1 {
		return apierror.WrapError(apierror.ErrValidation, "maxHistoryEntries must be at least 1", nil)
	}
	return nil
}
