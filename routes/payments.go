package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"caregate/app/http/controllers/api/v1/payments"
	paymentsvc "caregate/app/services/payment"
	"caregate/pkg/metrics"
)

// RegisterPaymentRoutes 注册支付后端的所有路由
//
// 支付后端只接受来自网关的内网流量，鉴权与限流都在网关完成
func RegisterPaymentRoutes(r *gin.Engine, m *metrics.Metrics, service *paymentsvc.Service) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "payment-service",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.GET("/metrics", m.Handler())

	pc := payments.NewPaymentsController(service)

	r.POST("/payments", pc.Store)
	r.GET("/payments/user/:user_id", pc.IndexByUser)
	r.GET("/payments/:payment_id", pc.Show)
}
