package ginx

import (
	"github.com/gin-gonic/gin"
)

// requestIDKey 用于在 gin.Context 中存储请求 ID 的 key
const requestIDKey = "ginx-request-id"

// SetRequestID 将请求 ID 存入上下文，错误响应会携带它
func SetRequestID(ctx *gin.Context, requestID string) {
	ctx.Set(requestIDKey, requestID)
}

// RequestID 获取请求 ID，如果不存在则返回空字符串
func RequestID(ctx *gin.Context) string {
	id, exists := ctx.Get(requestIDKey)
	if !exists {
		return ""
	}
	if str, ok := id.(string); ok {
		return str
	}
	return ""
}
