// Package redis 提供 Redis 连接的工具包，目前仅作为限流计数的共享存储
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"caregate/pkg/logger"
)

// 关键配置常量
const (
	// DefaultPoolSize Redis 连接池大小
	DefaultPoolSize = 100
	// DefaultTimeout 默认操作超时时间
	DefaultTimeout = 5 * time.Second
	// DefaultMinIdleConns 最小空闲连接数
	DefaultMinIdleConns = 10
	// DefaultMaxRetries 最大重试次数
	DefaultMaxRetries = 3
)

// RedisClient Redis 客户端封装
type RedisClient struct {
	Client  *redislib.Client
	Context context.Context
}

var (
	once sync.Once
	// Redis 全局客户端对象
	Redis *RedisClient
)

// ConnectRedis 初始化 Redis 连接
func ConnectRedis(address, username, password string, db int) {
	once.Do(func() {
		Redis = NewClient(address, username, password, db)
	})
}

// NewClient 创建新的 Redis 客户端
func NewClient(address, username, password string, db int) *RedisClient {
	rds := &RedisClient{
		Context: context.Background(),
	}

	rds.Client = redislib.NewClient(&redislib.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       db,

		// 连接池配置
		PoolSize:     DefaultPoolSize,
		MinIdleConns: DefaultMinIdleConns,
		PoolTimeout:  DefaultTimeout,

		// 读写超时
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		// 重试策略
		MaxRetries:      DefaultMaxRetries,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
	})

	// 测试连接
	if err := rds.Ping(); err != nil {
		panic(fmt.Sprintf("Redis 连接失败: %v", err))
	}

	return rds
}

// Ping 测试 Redis 连接
func (rds *RedisClient) Ping() error {
	ctx, cancel := context.WithTimeout(rds.Context, DefaultTimeout)
	defer cancel()

	_, err := rds.Client.Ping(ctx).Result()
	return err
}

// Close 关闭 Redis 连接
func (rds *RedisClient) Close() {
	if err := rds.Client.Close(); err != nil {
		logger.ErrorString("Redis", "Close", err.Error())
	}
}
