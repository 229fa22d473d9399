// Package ginx 提供 gin 框架的 handler 适配器，支持自动参数绑定和响应处理
//
// 请求和响应都使用 JSON 格式：
//   - 参数绑定优先级：JSON Body > URI 参数 > Query 参数 > Form 参数
//   - 错误响应统一序列化为 apierror.ErrorResponse，携带请求 ID
//   - *apierror.Error 的 HTTPStatus 决定响应状态码
//
// 支持多种 handler 函数签名：
//
//	// 1. 有参数，有返回值，有 error
//	func(c *gin.Context, args *Args) (resp, error)
//
//	// 2. 有参数，只有 error
//	func(c *gin.Context, args *Args) error
//
//	// 3. 有参数，只有返回值
//	func(c *gin.Context, args *Args) resp
//
//	// 4. 无参数，有返回值，有 error
//	func(c *gin.Context) (resp, error)
//
//	// 5. 无参数，只有 error
//	func(c *gin.Context) error
//
//	// 6. 无参数，只有返回值
//	func(c *gin.Context) resp
//
//	// 7. 无参数，无返回值
//	func(c *gin.Context)
//
// 使用示例：
//
//	router := gin.Default()
//
//	// 有参数，有返回值，有 error
//	router.POST("/groups", ginx.Adapt5(func(c *gin.Context, args *CreateGroupArgs) (*Group, error) {
//	    return &Group{...}, nil
//	}))
//
//	// 有参数，只有 error
//	router.DELETE("/groups/:id", ginx.Adapt4(func(c *gin.Context, args *DescribeGroupArgs) error {
//	    return nil
//	}))
//
//	// 无参数，有返回值
//	router.GET("/healthz", ginx.Adapt2(func(c *gin.Context) string {
//	    return "ok"
//	}))
package ginx
