package relay

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"

	"caregate/app/models/outbox"
	"caregate/app/repositories"
	"caregate/pkg/database"
	"caregate/pkg/database/migrations"
	"caregate/pkg/logger"
	"caregate/pkg/metrics"
)

type recordingPublisher struct {
	mu        sync.Mutex
	failUntil int // 前 N 次调用返回错误
	calls     int
	published []string
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failUntil {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, string(payload))
	return nil
}

func (p *recordingPublisher) publishedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func setupRelayTest(t *testing.T) *repositories.OutboxRepository {
	t.Helper()

	dbFile := filepath.Join(t.TempDir(), "test.db")
	database.Connect(sqlite.Open(dbFile), logger.NewGormLogger())
	if err := database.AutoMigrate(migrations.RegisterTables()); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("database.Close: %v", err)
		}
	})
	return repositories.NewOutboxRepository()
}

func insertPending(t *testing.T, payload string) uint64 {
	t.Helper()
	msg := &outbox.Message{
		Topic:   "payment-events",
		Payload: payload,
		Status:  outbox.StatusPending,
	}
	if err := database.DB.Create(msg).Error; err != nil {
		t.Fatalf("写入待投递消息: %v", err)
	}
	return msg.ID
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("等待条件超时")
}

func TestRelayDeliversPendingMessages(t *testing.T) {
	repo := setupRelayTest(t)
	publisher := &recordingPublisher{}

	insertPending(t, `{"n":1}`)
	insertPending(t, `{"n":2}`)

	r := NewRelay(repo, publisher, metrics.New(), Config{
		WorkerCount:  2,
		PollInterval: 20 * time.Millisecond,
	})
	r.Start()
	defer r.Stop()

	waitFor(t, 3*time.Second, func() bool {
		return publisher.publishedCount() == 2
	})

	ctx := context.Background()
	published, err := repo.CountByStatus(ctx, outbox.StatusPublished)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if published != 2 {
		t.Errorf("已发布消息数 = %d, want 2", published)
	}
	pending, err := repo.CountByStatus(ctx, outbox.StatusPending)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if pending != 0 {
		t.Errorf("待投递消息数 = %d, want 0", pending)
	}
}

func TestRelayRetriesFailedPublish(t *testing.T) {
	repo := setupRelayTest(t)
	// 前两次发布失败，第三次成功
	publisher := &recordingPublisher{failUntil: 2}

	insertPending(t, `{"n":1}`)

	r := NewRelay(repo, publisher, metrics.New(), Config{
		WorkerCount:  1,
		PollInterval: 20 * time.Millisecond,
		MaxAttempts:  5,
	})
	r.Start()
	defer r.Stop()

	waitFor(t, 3*time.Second, func() bool {
		return publisher.publishedCount() == 1
	})

	published, err := repo.CountByStatus(context.Background(), outbox.StatusPublished)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if published != 1 {
		t.Errorf("已发布消息数 = %d, want 1", published)
	}
}

func TestRelayMarksDeadAfterMaxAttempts(t *testing.T) {
	repo := setupRelayTest(t)
	// 始终失败
	publisher := &recordingPublisher{failUntil: 1 << 30}

	id := insertPending(t, `{"n":1}`)

	r := NewRelay(repo, publisher, metrics.New(), Config{
		WorkerCount:  1,
		PollInterval: 20 * time.Millisecond,
		MaxAttempts:  2,
	})
	r.Start()
	defer r.Stop()

	waitFor(t, 3*time.Second, func() bool {
		count, err := repo.CountByStatus(context.Background(), outbox.StatusDead)
		return err == nil && count == 1
	})

	var msg outbox.Message
	if err := database.DB.First(&msg, id).Error; err != nil {
		t.Fatalf("读取消息: %v", err)
	}
	if msg.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", msg.Attempts)
	}
}

func TestRelayStopReturnsPromptly(t *testing.T) {
	repo := setupRelayTest(t)
	publisher := &recordingPublisher{}

	r := NewRelay(repo, publisher, metrics.New(), Config{
		WorkerCount:  1,
		PollInterval: 20 * time.Millisecond,
	})
	r.Start()

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop 未在期限内返回")
	}
}
