// Package routes 注册 HTTP 路由
package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"caregate/app/http/controllers/api/v1/gateway"
	"caregate/app/http/middlewares"
	"caregate/pkg/config"
	"caregate/pkg/metrics"
	"caregate/pkg/proxy"
)

// RegisterGatewayRoutes 注册网关的所有路由
//
// /api 下的请求先过限流，受保护的路由再过鉴权，
// 两者任一失败都在网关终止，不会到达任何后端
func RegisterGatewayRoutes(r *gin.Engine, m *metrics.Metrics) {
	// 存活检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "api-gateway",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Prometheus 拉取端点
	r.GET("/metrics", m.Handler())

	forwarder := proxy.NewForwarder(
		time.Duration(config.GetInt("gateway.proxy_timeout_seconds", 30)) * time.Second)
	gc := gateway.NewGatewayController(forwarder)

	api := r.Group("/api")
	api.Use(middlewares.LimitIP())
	{
		// 用户路由，注册和登录无需鉴权
		users := api.Group("/users")
		{
			users.POST("/register", gc.RegisterUser)
			users.POST("/login", gc.Login)
			users.GET("/profile", middlewares.AuthRequired(), gc.Profile)
		}

		// 预约路由
		appointments := api.Group("/appointments", middlewares.AuthRequired())
		{
			appointments.POST("", gc.CreateAppointment)
			appointments.GET("", gc.ListAppointments)
			appointments.GET("/:id", gc.GetAppointment)
		}

		// 支付路由
		payments := api.Group("/payments", middlewares.AuthRequired())
		{
			payments.POST("", gc.CreatePayment)
			payments.GET("/:id", gc.GetPayment)
		}
	}
}
