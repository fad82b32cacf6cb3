package config

import "caregate/pkg/config"

func init() {
	config.Add("log", func() map[string]interface{} {
		return map[string]interface{}{

			// 日志级别，可选：debug, info, warn, error, fatal
			"level": config.Env("LOG_LEVEL", "debug"),

			// 日志记录类型，可选：single（单文件）, daily（按天切割）
			"type": config.Env("LOG_TYPE", "single"),

			// 日志文件路径
			"filename": config.Env("LOG_NAME", "storage/logs/logs.log"),

			// 每个日志文件保存的最大尺寸，单位 MB
			"max_size": config.Env("LOG_MAX_SIZE", 64),

			// 最多保存多少个备份
			"max_backup": config.Env("LOG_MAX_BACKUP", 5),

			// 日志文件最多保存天数，0 为不删除
			"max_age": config.Env("LOG_MAX_AGE", 30),

			// 是否压缩归档日志
			"compress": config.Env("LOG_COMPRESS", false),
		}
	})
}
