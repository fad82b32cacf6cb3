package config

import "caregate/pkg/config"

func init() {
	config.Add("gateway", func() map[string]interface{} {
		return map[string]interface{}{

			// 各后端服务地址
			"user_service_url":        config.Env("USER_SERVICE_URL", "http://localhost:8001"),
			"appointment_service_url": config.Env("APPOINTMENT_SERVICE_URL", "http://localhost:8002"),
			"payment_service_url":     config.Env("PAYMENT_SERVICE_URL", "http://127.0.0.1:8003"),

			// 转发请求的超时时间（秒）
			"proxy_timeout_seconds": config.Env("PROXY_TIMEOUT_SECONDS", 30),
		}
	})
}
