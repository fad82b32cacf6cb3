package config

import "caregate/pkg/config"

func init() {
	config.Add("broker", func() map[string]interface{} {
		return map[string]interface{}{

			// NATS 服务器地址，多个以逗号分隔
			"urls": config.Env("BROKER_URLS", "nats://127.0.0.1:4222"),

			// 支付事件发布的主题
			"topic": config.Env("BROKER_TOPIC", "payment-events"),

			// 单次发布的超时时间（秒）
			"publish_timeout_seconds": config.Env("BROKER_PUBLISH_TIMEOUT_SECONDS", 5),

			// 主题消息的保留时长（小时）
			"retention_hours": config.Env("BROKER_RETENTION_HOURS", 7*24),

			// outbox 中继配置
			"relay": map[string]interface{}{
				"worker_count": config.Env("RELAY_WORKER_COUNT", 3),
				"batch_size":   config.Env("RELAY_BATCH_SIZE", 50),
				"poll_ms":      config.Env("RELAY_POLL_MS", 500),
				"max_attempts": config.Env("RELAY_MAX_ATTEMPTS", 5),
				"rate_limit":   config.Env("RELAY_RATE_LIMIT", 1000),
			},
		}
	})
}
