// Package broker 提供事件通道的发布能力，基于 NATS JetStream
//
// 语义约定：
// 1. 按主题（topic）划分的持久化流
// 2. 有序、至少一次投递
// 3. 发布调用只暴露成功/失败，不暴露下游消费确认
package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"caregate/pkg/logger"
)

// Config 事件通道配置
type Config struct {
	// URLs broker 地址列表，如 ["nats://127.0.0.1:4222"]
	URLs []string
	// Name 连接名，便于在服务端排查
	Name string
	// PublishTimeout 单次发布的超时时间
	PublishTimeout time.Duration
	// Storage 流的存储介质，默认落盘
	Storage nats.StorageType
	// MaxAge 消息保留时长，零值表示不限制
	MaxAge time.Duration
}

// Publisher 事件发布器
// 进程内共享一条长连接，nats 客户端本身保证并发发布安全
type Publisher struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	timeout time.Duration
}

// Connect 建立 broker 连接
func Connect(cfg Config) (*Publisher, error) {
	if len(cfg.URLs) == 0 {
		return nil, errors.New("broker: no urls configured")
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}

	nc, err := nats.Connect(strings.Join(cfg.URLs, ","),
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.ErrorString("Broker", "Disconnect", err.Error())
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logger.InfoString("Broker", "Reconnect", conn.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("broker: connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("broker: jetstream: %w", err)
	}

	return &Publisher{
		nc:      nc,
		js:      js,
		timeout: cfg.PublishTimeout,
	}, nil
}

// EnsureTopic 确保主题对应的持久化流存在
// 需要在首次发布之前调用一次，重复调用是幂等的
func (p *Publisher) EnsureTopic(topic string, storage nats.StorageType, maxAge time.Duration) error {
	name := streamName(topic)

	_, err := p.js.StreamInfo(name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("broker: stream info %s: %w", name, err)
	}

	_, err = p.js.AddStream(&nats.StreamConfig{
		Name:      name,
		Subjects:  []string{topic},
		Storage:   storage,
		Retention: nats.LimitsPolicy,
		MaxAge:    maxAge,
	})
	if err != nil {
		return fmt.Errorf("broker: add stream %s: %w", name, err)
	}

	logger.InfoString("Broker", "Stream", fmt.Sprintf("流 %s 就绪，主题 %s", name, topic))
	return nil
}

// Publish 向指定主题发布一条消息，等待服务端确认
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, err := p.js.Publish(topic, payload, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("broker: publish %s: %w", topic, err)
	}
	return nil
}

// Close 关闭连接，先排空未发送完的消息
func (p *Publisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		logger.ErrorString("Broker", "Drain", err.Error())
		p.nc.Close()
	}
}

// streamName 将主题名转换为合法的流名称
// 流名称不允许包含 "."、"*"、">" 和空格
func streamName(topic string) string {
	replacer := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")
	return strings.ToUpper(replacer.Replace(topic))
}
