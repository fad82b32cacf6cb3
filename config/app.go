package config

import "caregate/pkg/config"

func init() {
	config.Add("app", func() map[string]interface{} {
		return map[string]interface{}{

			// 应用名称
			"name": config.Env("APP_NAME", "CareGate"),

			// 当前环境，用以区分多环境，一般为 local, stage, production, test
			"env": config.Env("APP_ENV", "production"),

			// 是否进入调试模式
			"debug": config.Env("APP_DEBUG", false),

			// 网关服务端口
			"port": config.Env("APP_PORT", "3000"),

			// 支付后端服务端口
			"payment_port": config.Env("PAYMENT_PORT", "8003"),

			// 设置时区，日志记录里会使用到
			"timezone": config.Env("TIMEZONE", "UTC"),
		}
	})
}
