package bootstrap

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"caregate/app/http/middlewares"
	paymentsvc "caregate/app/services/payment"
	"caregate/pkg/metrics"
	"caregate/routes"
)

// SetupGatewayRoute 网关路由初始化
// 该方法用于设置网关的路由配置，包括：
// 1. 注册全局中间件
// 2. 注册 API 路由
// 3. 配置 404 处理器
func SetupGatewayRoute(router *gin.Engine, m *metrics.Metrics) {
	// 注册全局中间件
	registerGlobalMiddleWare(router, m)

	// 安全头和跨域只在对外的网关上需要
	router.Use(
		middlewares.SecurityHeaders(),
		middlewares.Cors(),
	)

	// 注册 API 路由
	// 具体路由定义在 routes 包中
	routes.RegisterGatewayRoutes(router, m)

	// 配置 404 路由处理器
	setup404Handler(router)
}

// SetupPaymentRoute 支付后端路由初始化
func SetupPaymentRoute(router *gin.Engine, m *metrics.Metrics, service *paymentsvc.Service) {
	registerGlobalMiddleWare(router, m)

	routes.RegisterPaymentRoutes(router, m, service)

	setup404Handler(router)
}

// registerGlobalMiddleWare 注册全局中间件
// 设置应用级别的中间件，作用于所有请求
// - Logger 中间件：记录请求日志
// - Recovery 中间件：从 panic 中恢复
// - Observe 中间件：记录请求时延和计数指标
func registerGlobalMiddleWare(router *gin.Engine, m *metrics.Metrics) {
	router.Use(
		middlewares.Logger(),   // 记录请求日志
		middlewares.Recovery(), // 在发生 panic 时恢复
		middlewares.Observe(m), // 指标覆盖所有请求，无论命中哪条路由
	)
}

// setup404Handler 配置 404 请求处理器
func setup404Handler(router *gin.Engine) {
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Route not found",
		})
	})
}
