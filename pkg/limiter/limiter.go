// Package limiter 处理限流逻辑
package limiter

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	limiterlib "github.com/ulule/limiter/v3"
	smemory "github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"caregate/pkg/config"
	"caregate/pkg/logger"
	"caregate/pkg/redis"
)

// GetKeyIP 获取限流的 Key，使用调用方 IP
func GetKeyIP(c *gin.Context) string {
	return c.ClientIP()
}

// NewFixedWindow 创建一个固定窗口限流器
// 固定窗口的边界不随请求对齐，跨窗口的突发流量最多可放行 2 倍额度，
// 与上游网关的既有语义保持一致
func NewFixedWindow(limit int64, window time.Duration) (*limiterlib.Limiter, error) {
	rate := limiterlib.Rate{
		Period: window,
		Limit:  limit,
	}

	store, err := newStore()
	if err != nil {
		return nil, err
	}

	return limiterlib.New(store, rate), nil
}

// NewFromConfig 按配置创建限流器，默认 15 分钟窗口、每 IP 100 次
func NewFromConfig() (*limiterlib.Limiter, error) {
	limit := config.GetInt64("limiter.max_requests", 100)
	window := time.Duration(config.GetInt("limiter.window_minutes", 15)) * time.Minute
	return NewFixedWindow(limit, window)
}

// newStore 按配置初始化计数存储
// memory：并发安全的进程内计数器；redis：多实例共享计数
func newStore() (limiterlib.Store, error) {
	driver := config.GetString("limiter.driver", "memory")
	switch driver {
	case "memory":
		return smemory.NewStore(), nil
	case "redis":
		if redis.Redis == nil {
			return nil, fmt.Errorf("limiter: redis store requested but redis is not initialized")
		}
		store, err := sredis.NewStoreWithOptions(redis.Redis.Client, limiterlib.StoreOptions{
			// 为 limiter 设置前缀，保持 redis 里数据的整洁
			Prefix: config.GetString("app.name", "caregate") + ":limiter",
		})
		if err != nil {
			logger.LogIf(err)
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("limiter: unsupported driver %q", driver)
	}
}
