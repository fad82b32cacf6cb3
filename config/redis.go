package config

import (
	"caregate/pkg/config"
)

func init() {
	config.Add("redis", func() map[string]interface{} {
		return map[string]interface{}{
			"host":     config.Env("REDIS_HOST", "127.0.0.1"),
			"port":     config.Env("REDIS_PORT", "6379"),
			"password": config.Env("REDIS_PASSWORD", ""),

			// 限流计数使用 1 号库
			"database": config.Env("REDIS_MAIN_DB", 1),
		}
	})
}
