package apierror

import "net/http"

// 编排器的错误分类
//
// NotFound / PreconditionFailed / EngineUnavailable 作为请求的主错误返回；
// 部分失败（PartialFailure）与尽力清理失败（Advisory）不走错误通道，
// 由各操作的结果结构携带，调用方永远能拿到逐库的失败明细
var (
	// ErrGroupNotFound 分组不存在
	ErrGroupNotFound = &Error{
		Code:       "GroupNotFound",
		Message:    "The specified group does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	// ErrSnapshotNotFound 快照不存在
	ErrSnapshotNotFound = &Error{
		Code:       "SnapshotNotFound",
		Message:    "The specified snapshot does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	// ErrProfileNotFound 连接配置不存在
	ErrProfileNotFound = &Error{
		Code:       "ProfileNotFound",
		Message:    "The specified connection profile does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	// ErrSnapshotLimitExceeded 分组的在线快照数已达上限
	ErrSnapshotLimitExceeded = &Error{
		Code:       "SnapshotLimitExceeded",
		Message:    "The group has reached the maximum number of live snapshots. Delete an existing snapshot before creating a new one.",
		HTTPStatus: http.StatusPreconditionFailed,
	}

	// ErrConfirmationRequired 破坏性分组变更需要调用方确认
	// Details 携带 snapshotCount 和 databaseCount，供 UI 渲染确认提示
	ErrConfirmationRequired = &Error{
		Code:       "ConfirmationRequired",
		Message:    "Changing the group would invalidate its live snapshots. Repeat the request with confirmDelete=true to delete them.",
		HTTPStatus: http.StatusConflict,
	}

	// ErrEngineUnavailable 无法建立引擎连接，整个请求失败，不假设任何状态已改变
	ErrEngineUnavailable = &Error{
		Code:       "EngineUnavailable",
		Message:    "Could not establish a connection to the database engine.",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	// ErrRollbackFailed 回滚没有恢复任何数据库
	ErrRollbackFailed = &Error{
		Code:       "RollbackFailed",
		Message:    "The rollback did not restore any database.",
		HTTPStatus: http.StatusBadGateway,
	}

	// ErrSnapshotArtifactsMissing 目标快照的引擎侧快照库在恢复前就已消失
	ErrSnapshotArtifactsMissing = &Error{
		Code:       "SnapshotArtifactsMissing",
		Message:    "None of the snapshot's engine-side artifacts exist anymore. Use the cleanup endpoint to remove the stale metadata.",
		HTTPStatus: http.StatusGone,
	}

	// ErrValidation 请求参数校验失败
	ErrValidation = &Error{
		Code:       "ValidationError",
		Message:    "The request parameters are invalid.",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrInternalError 内部错误
	ErrInternalError = &Error{
		Code:       "InternalError",
		Message:    "An internal error has occurred. Retry your request, and report the problem if it persists.",
		HTTPStatus: http.StatusInternalServerError,
	}
)
