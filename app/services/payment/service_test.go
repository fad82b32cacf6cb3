package payment

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"

	"caregate/app/models/outbox"
	model "caregate/app/models/payment"
	"caregate/app/repositories"
	"caregate/pkg/database"
	"caregate/pkg/database/migrations"
	"caregate/pkg/logger"
	"caregate/pkg/metrics"
)

// stubPublisher 记录发布调用，可配置为始终失败
type stubPublisher struct {
	mu        sync.Mutex
	fail      bool
	published [][]byte
}

func (p *stubPublisher) Publish(_ context.Context, _ string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, payload)
	return nil
}

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func setupService(t *testing.T, publisher EventPublisher, decider Decider) *Service {
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

	return NewService(
		repositories.NewPaymentRepository(),
		repositories.NewOutboxRepository(),
		publisher,
		decider,
		metrics.New(),
		"payment-events",
	)
}

var transactionIDPattern = regexp.MustCompile(`^txn_\d+$`)

func TestProcessCompletedPayment(t *testing.T) {
	publisher := &stubPublisher{}
	service := setupService(t, publisher, &FixedDecider{Status: model.StatusCompleted})
	ctx := context.Background()

	receipt, err := service.Process(ctx, ProcessRequest{
		AppointmentID: 11,
		UserID:        42,
		Amount:        150.505,
		PaymentMethod: model.MethodInsurance,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if receipt.Status != string(model.StatusCompleted) {
		t.Errorf("Status = %q, want completed", receipt.Status)
	}
	// 金额保留两位小数
	if receipt.Amount != 150.51 {
		t.Errorf("Amount = %v, want 150.51", receipt.Amount)
	}
	if !transactionIDPattern.MatchString(receipt.TransactionID) {
		t.Errorf("TransactionID = %q 不符合 txn_<毫秒> 格式", receipt.TransactionID)
	}

	// 记录可以按支付标识查回
	record, err := service.GetByPaymentID(ctx, receipt.PaymentID)
	if err != nil {
		t.Fatalf("GetByPaymentID: %v", err)
	}
	if record.PaymentMethod != model.MethodInsurance {
		t.Errorf("PaymentMethod = %q, want insurance", record.PaymentMethod)
	}

	// 事件已即时发布，字段与记录一致
	if publisher.count() != 1 {
		t.Fatalf("发布次数 = %d, want 1", publisher.count())
	}
	var event Event
	if err := json.Unmarshal(publisher.published[0], &event); err != nil {
		t.Fatalf("事件不是合法 JSON: %v", err)
	}
	if event.EventType != EventTypePaymentCompleted {
		t.Errorf("EventType = %q", event.EventType)
	}
	if event.PaymentID != receipt.PaymentID {
		t.Errorf("事件 PaymentID = %q, want %q", event.PaymentID, receipt.PaymentID)
	}
	if event.Amount != 150.51 {
		t.Errorf("事件 Amount = %v, want 150.51", event.Amount)
	}
}

func TestProcessFailedPayment(t *testing.T) {
	publisher := &stubPublisher{}
	service := setupService(t, publisher, &FixedDecider{Status: model.StatusFailed})

	receipt, err := service.Process(context.Background(), ProcessRequest{
		AppointmentID: 11,
		UserID:        42,
		Amount:        80,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	// 结算失败也是一次成功处理的支付，同样落库、同样发事件
	if receipt.Status != string(model.StatusFailed) {
		t.Errorf("Status = %q, want failed", receipt.Status)
	}
	if publisher.count() != 1 {
		t.Errorf("发布次数 = %d, want 1", publisher.count())
	}
}

func TestProcessDefaultsPaymentMethod(t *testing.T) {
	publisher := &stubPublisher{}
	service := setupService(t, publisher, &FixedDecider{Status: model.StatusCompleted})
	ctx := context.Background()

	receipt, err := service.Process(ctx, ProcessRequest{
		AppointmentID: 11,
		UserID:        42,
		Amount:        50,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	record, err := service.GetByPaymentID(ctx, receipt.PaymentID)
	if err != nil {
		t.Fatalf("GetByPaymentID: %v", err)
	}
	if record.PaymentMethod != model.DefaultMethod {
		t.Errorf("PaymentMethod = %q, want %q", record.PaymentMethod, model.DefaultMethod)
	}
}

func TestProcessValidation(t *testing.T) {
	publisher := &stubPublisher{}
	service := setupService(t, publisher, &FixedDecider{Status: model.StatusCompleted})

	tests := []struct {
		name string
		req  ProcessRequest
	}{
		{name: "缺少预约", req: ProcessRequest{UserID: 42, Amount: 50}},
		{name: "缺少用户", req: ProcessRequest{AppointmentID: 11, Amount: 50}},
		{name: "金额为零", req: ProcessRequest{AppointmentID: 11, UserID: 42}},
		{name: "金额为负", req: ProcessRequest{AppointmentID: 11, UserID: 42, Amount: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.Process(context.Background(), tt.req); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}

	// 校验失败不应产生任何事件
	if publisher.count() != 0 {
		t.Errorf("发布次数 = %d, want 0", publisher.count())
	}
}

func TestProcessSurvivesPublishFailure(t *testing.T) {
	publisher := &stubPublisher{fail: true}
	service := setupService(t, publisher, &FixedDecider{Status: model.StatusCompleted})
	ctx := context.Background()

	receipt, err := service.Process(ctx, ProcessRequest{
		AppointmentID: 11,
		UserID:        42,
		Amount:        50,
	})
	if err != nil {
		t.Fatalf("即时发布失败不应影响支付结果: %v", err)
	}

	// 记录已落库
	if _, err := service.GetByPaymentID(ctx, receipt.PaymentID); err != nil {
		t.Fatalf("GetByPaymentID: %v", err)
	}

	// 消息留在发件箱等待中继重投
	count, err := repositories.NewOutboxRepository().CountByStatus(ctx, outbox.StatusPending)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if count != 1 {
		t.Errorf("待投递消息数 = %d, want 1", count)
	}
}

func TestProcessMarksOutboxPublished(t *testing.T) {
	publisher := &stubPublisher{}
	service := setupService(t, publisher, &FixedDecider{Status: model.StatusCompleted})
	ctx := context.Background()

	if _, err := service.Process(ctx, ProcessRequest{
		AppointmentID: 11,
		UserID:        42,
		Amount:        50,
	}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// 即时发布成功后发件箱里不应残留待投递消息
	outboxRepo := repositories.NewOutboxRepository()
	pending, err := outboxRepo.CountByStatus(ctx, outbox.StatusPending)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if pending != 0 {
		t.Errorf("待投递消息数 = %d, want 0", pending)
	}
	published, err := outboxRepo.CountByStatus(ctx, outbox.StatusPublished)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if published != 1 {
		t.Errorf("已发布消息数 = %d, want 1", published)
	}
}

func TestGetByPaymentIDNotFound(t *testing.T) {
	service := setupService(t, &stubPublisher{}, &FixedDecider{Status: model.StatusCompleted})

	if _, err := service.GetByPaymentID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
