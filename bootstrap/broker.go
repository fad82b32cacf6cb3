package bootstrap

import (
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"caregate/pkg/broker"
	"caregate/pkg/config"
	"caregate/pkg/logger"
)

// SetupBroker 建立事件通道连接并确保支付事件主题存在
func SetupBroker() (*broker.Publisher, error) {
	publisher, err := broker.Connect(broker.Config{
		URLs:           strings.Split(config.GetString("broker.urls"), ","),
		Name:           config.GetString("app.name"),
		PublishTimeout: time.Duration(config.GetInt("broker.publish_timeout_seconds", 5)) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	topic := config.GetString("broker.topic", "payment-events")
	maxAge := time.Duration(config.GetInt("broker.retention_hours", 7*24)) * time.Hour
	if err := publisher.EnsureTopic(topic, nats.FileStorage, maxAge); err != nil {
		publisher.Close()
		return nil, err
	}

	logger.InfoString("Broker", "Setup", "事件通道连接成功，主题："+topic)
	return publisher, nil
}
