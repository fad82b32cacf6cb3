package config

import "caregate/pkg/config"

func init() {
	config.Add("jwt", func() map[string]interface{} {
		return map[string]interface{}{

			// 签名密钥，生产环境必须通过环境变量覆盖
			"secret": config.Env("JWT_SECRET", "your-secret-key-change-in-production"),

			// 令牌有效期（秒），默认 24 小时
			"expire_seconds": config.Env("JWT_EXPIRE_SECONDS", 86400),
		}
	})
}
