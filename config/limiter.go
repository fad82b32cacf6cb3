package config

import "caregate/pkg/config"

func init() {
	config.Add("limiter", func() map[string]interface{} {
		return map[string]interface{}{

			// 限流计数的存储驱动，memory 或 redis
			// 多实例部署时必须用 redis，否则每个实例各自计数
			"driver": config.Env("LIMITER_DRIVER", "memory"),

			// 固定窗口长度（分钟）
			"window_minutes": config.Env("LIMITER_WINDOW_MINUTES", 15),

			// 单个 IP 在窗口内允许的最大请求数
			"max_requests": config.Env("LIMITER_MAX_REQUESTS", 100),
		}
	})
}
