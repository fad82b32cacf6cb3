// Package relay 发件箱中继
// 轮询待投递的发件箱消息并发布到事件通道，投递确认后才标记完成，
// 保证已落库的支付事件至少投递一次
package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"caregate/app/models/outbox"
	"caregate/app/repositories"
	"caregate/pkg/logger"
	"caregate/pkg/metrics"
)

// Publisher 事件发布能力
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Config 中继配置
type Config struct {
	WorkerCount     int           // 并发投递 worker 数量
	BatchSize       int           // 每轮拉取的消息数
	PollInterval    time.Duration // 空轮询的间隔
	PublishTimeout  time.Duration // 单条消息的发布超时
	MaxAttempts     int           // 最大投递尝试次数
	RateLimit       int           // 每秒投递上限
	ShutdownTimeout time.Duration // 关闭等待超时
}

// Relay 发件箱中继
type Relay struct {
	repo      *repositories.OutboxRepository
	publisher Publisher
	metrics   *metrics.Metrics
	limiter   *rate.Limiter
	stopChan  chan struct{}
	wg        sync.WaitGroup
	config    Config
}

// NewRelay 创建中继实例
func NewRelay(repo *repositories.OutboxRepository, publisher Publisher, m *metrics.Metrics, config Config) *Relay {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 3
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 500 * time.Millisecond
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = 5 * time.Second
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 1000
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 30 * time.Second
	}

	return &Relay{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		limiter:   rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimit),
		stopChan:  make(chan struct{}),
		config:    config,
	}
}

// Start 启动中继：一个调度器拉取消息，多个 worker 并发投递
func (r *Relay) Start() {
	taskChan := make(chan outbox.Message, r.config.BatchSize)

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.startWorker(i, taskChan)
	}

	r.wg.Add(1)
	go r.dispatch(taskChan)

	logger.InfoString("Relay", "Start", fmt.Sprintf(
		"发件箱中继启动 workers=%d batch=%d", r.config.WorkerCount, r.config.BatchSize))
}

// dispatch 轮询发件箱，把待投递消息分发给 worker
func (r *Relay) dispatch(taskChan chan<- outbox.Message) {
	defer r.wg.Done()
	defer close(taskChan)

	for {
		select {
		case <-r.stopChan:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.config.PublishTimeout)
		messages, err := r.repo.FetchPending(ctx, r.config.BatchSize)
		cancel()
		if err != nil {
			logger.ErrorString("Relay", "Fetch", err.Error())
			r.sleep(r.config.PollInterval)
			continue
		}

		if len(messages) == 0 {
			// 避免空队列时的忙等
			r.sleep(r.config.PollInterval)
			continue
		}

		for _, msg := range messages {
			select {
			case taskChan <- msg:
			case <-r.stopChan:
				return
			}
		}
	}
}

// startWorker 启动单个投递 worker
func (r *Relay) startWorker(id int, taskChan <-chan outbox.Message) {
	defer r.wg.Done()

	logger.InfoString("Relay", "Worker", fmt.Sprintf("Worker %d started", id))

	for msg := range taskChan {
		if err := r.deliver(msg); err != nil {
			logger.ErrorString("Relay", "Deliver", fmt.Sprintf(
				"Worker %d 投递失败 outbox=%d: %v", id, msg.ID, err))
		}
	}
}

// deliver 投递一条消息：认领 → 限速 → 发布 → 标记
func (r *Relay) deliver(msg outbox.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.PublishTimeout)
	defer cancel()

	// 条件更新认领，避免多个 worker 重复投递同一条
	claimed, err := r.repo.Claim(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("claim: %w", err)
	}
	if !claimed {
		return nil
	}

	// 投递限速
	if err := r.limiter.Wait(ctx); err != nil {
		// 超时未取得令牌，退回 pending 等下一轮
		return r.repo.MarkFailed(ctx, msg.ID, r.config.MaxAttempts)
	}

	if err := r.publisher.Publish(ctx, msg.Topic, []byte(msg.Payload)); err != nil {
		r.metrics.OutboxFailedTotal.Inc()
		if markErr := r.repo.MarkFailed(ctx, msg.ID, r.config.MaxAttempts); markErr != nil {
			return fmt.Errorf("publish: %v, mark failed: %w", err, markErr)
		}
		return fmt.Errorf("publish: %w", err)
	}

	r.metrics.OutboxPublishedTotal.Inc()
	return r.repo.MarkPublished(ctx, msg.ID)
}

// sleep 可被 Stop 打断的休眠
func (r *Relay) sleep(d time.Duration) {
	select {
	case <-time.After(d):
	case <-r.stopChan:
	}
}

// Stop 优雅关闭中继，等待在途投递完成
func (r *Relay) Stop() {
	close(r.stopChan)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.InfoString("Relay", "Stop", "发件箱中继已停止")
	case <-time.After(r.config.ShutdownTimeout):
		logger.WarnString("Relay", "Stop", "中继关闭等待超时")
	}
}
