package bootstrap

import (
	"fmt"

	"caregate/pkg/config"
	"caregate/pkg/redis"
)

// SetupRedis 初始化 Redis
// 仅在限流驱动配置为 redis 时需要调用
func SetupRedis() {
	redis.ConnectRedis(
		fmt.Sprintf("%v:%v", config.GetString("redis.host"), config.GetString("redis.port")),
		config.GetString("redis.username"),
		config.GetString("redis.password"),
		config.GetInt("redis.database"),
	)
}
