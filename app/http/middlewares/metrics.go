package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"caregate/pkg/metrics"
)

// Observe 请求指标中间件
// 无论命中哪条路由、无论成败都记录一次耗时和计数
func Observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// 使用路由模板做标签，避免路径参数导致标签基数爆炸
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
