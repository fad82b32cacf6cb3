// Package app 提供应用程序相关的辅助函数
package app

import (
	"time"

	"caregate/pkg/config"
)

// IsLocal 判断当前是否运行在本地环境
func IsLocal() bool {
	return config.Get("app.env") == "local"
}

// IsProduction 判断当前是否运行在生产环境
func IsProduction() bool {
	return config.Get("app.env") == "production"
}

// IsTesting 判断当前是否运行在测试环境
func IsTesting() bool {
	return config.Get("app.env") == "testing"
}

// TimenowInTimezone 获取当前时间（支持时区设置）
// 从配置文件读取 app.timezone 配置项来确定时区
func TimenowInTimezone() time.Time {
	timezone, err := time.LoadLocation(config.GetString("app.timezone", "UTC"))
	if err != nil {
		return time.Now().UTC()
	}
	return time.Now().In(timezone)
}
