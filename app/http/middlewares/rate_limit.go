package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	limiterlib "github.com/ulule/limiter/v3"

	"caregate/pkg/limiter"
	"caregate/pkg/logger"
	"caregate/pkg/response"
)

// LimitIP 全局限流中间件，针对 IP 进行限流
// 按配置使用固定窗口（默认 15 分钟内每 IP 最多 100 次）
func LimitIP() gin.HandlerFunc {
	lim, err := limiter.NewFromConfig()
	if err != nil {
		logger.ErrorString("限流器", "创建失败", err.Error())
		// 降级处理：限流器不可用时放行请求
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return limitHandler(lim)
}

// LimitPerWindow 指定额度的限流中间件，便于按路由覆盖默认额度
func LimitPerWindow(limit int64, window time.Duration) gin.HandlerFunc {
	lim, err := limiter.NewFixedWindow(limit, window)
	if err != nil {
		logger.ErrorString("限流器", "创建失败", err.Error())
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return limitHandler(lim)
}

// limitHandler 创建限流处理器
func limitHandler(lim *limiterlib.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := limiter.GetKeyIP(c)

		// Get 查询并累加当前窗口的计数；被拒绝的请求不再累加
		result, err := lim.Get(c.Request.Context(), key)
		if err != nil {
			logger.ErrorString("限流器", "取计数失败", err.Error())
			// 降级处理：允许请求通过
			c.Next()
			return
		}

		// 设置 RateLimit 相关响应头
		c.Header("X-RateLimit-Limit", cast.ToString(result.Limit))
		c.Header("X-RateLimit-Remaining", cast.ToString(result.Remaining))
		c.Header("X-RateLimit-Reset", cast.ToString(result.Reset))

		if result.Reached {
			response.Abort429(c, "Too many requests")
			return
		}

		c.Next()
	}
}
