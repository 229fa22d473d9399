// Package apierror 提供带错误码的错误类型，用于所有服务的统一错误处理
//
// 错误分为两类通道：
//   - 主错误：NotFound、PreconditionFailed、EngineUnavailable 等，
//     作为 handler 的 error 返回，由 pkg/ginx 渲染为对应的 HTTP 状态码
//   - 结果内警告：逐数据库的部分失败和尽力清理的失败，
//     不进入 error 通道，由操作结果结构自带的列表携带
//
// Error 实现了 errors.Is / errors.Unwrap，可以这样判断错误类型：
//
//	if errors.Is(err, apierror.ErrGroupNotFound) {
//	    // 404
//	}
//
// Details 字段用于携带机器可读的附加信息，例如需要确认的破坏性变更：
//
//	return apierror.WithDetails(apierror.ErrConfirmationRequired, map[string]any{
//	    "snapshotCount": 2,
//	    "databaseCount": 3,
//	})
package apierror
