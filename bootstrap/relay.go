package bootstrap

import (
	"time"

	"caregate/app/repositories"
	"caregate/pkg/config"
	"caregate/pkg/logger"
	"caregate/pkg/metrics"
	"caregate/pkg/relay"
)

// SetupRelay 启动 outbox 中继
// 中继负责把即时发布失败的支付事件重新投递出去
func SetupRelay(publisher relay.Publisher, m *metrics.Metrics) *relay.Relay {
	r := relay.NewRelay(repositories.NewOutboxRepository(), publisher, m, relay.Config{
		WorkerCount:    config.GetInt("broker.relay.worker_count", 3),
		BatchSize:      config.GetInt("broker.relay.batch_size", 50),
		PollInterval:   time.Duration(config.GetInt("broker.relay.poll_ms", 500)) * time.Millisecond,
		PublishTimeout: time.Duration(config.GetInt("broker.publish_timeout_seconds", 5)) * time.Second,
		MaxAttempts:    config.GetInt("broker.relay.max_attempts", 5),
		RateLimit:      config.GetInt("broker.relay.rate_limit", 1000),
	})

	r.Start()
	logger.InfoString("Relay", "Setup", "outbox 中继启动成功")
	return r
}
