// Package payment 支付处理服务
// 编排一次支付请求的校验、结算决策、落库和事件发布
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	model "caregate/app/models/payment"
	"caregate/app/repositories"
	"caregate/pkg/app"
	"caregate/pkg/logger"
	"caregate/pkg/metrics"
)

var (
	// ErrValidation 必填字段缺失或不合法，发生在生成任何标识之前
	ErrValidation = errors.New("missing required fields")
	// ErrPersistence 支付记录落库失败，此时不会产生任何下游事件
	ErrPersistence = errors.New("failed to persist payment")
	// ErrNotFound 支付记录不存在
	ErrNotFound = repositories.ErrPaymentNotFound
)

// EventTypePaymentCompleted 支付事件类型
const EventTypePaymentCompleted = "payment_completed"

// EventPublisher 事件发布能力
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// ProcessRequest 一次支付请求的入参
type ProcessRequest struct {
	AppointmentID int64
	UserID        int64
	Amount        float64
	PaymentMethod string
}

// Receipt 支付回执
type Receipt struct {
	PaymentID     string    `json:"payment_id"`
	Status        string    `json:"status"`
	Amount        float64   `json:"amount"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Event 支付事件，与已落库的支付记录一一对应
type Event struct {
	EventType     string  `json:"event_type"`
	PaymentID     string  `json:"payment_id"`
	AppointmentID int64   `json:"appointment_id"`
	UserID        int64   `json:"user_id"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	Timestamp     string  `json:"timestamp"`
}

// Service 支付处理服务
type Service struct {
	repo       *repositories.PaymentRepository
	outboxRepo *repositories.OutboxRepository
	publisher  EventPublisher
	decider    Decider
	metrics    *metrics.Metrics
	topic      string
}

// NewService 创建支付处理服务
func NewService(repo *repositories.PaymentRepository, outboxRepo *repositories.OutboxRepository,
	publisher EventPublisher, decider Decider, m *metrics.Metrics, topic string) *Service {
	return &Service{
		repo:       repo,
		outboxRepo: outboxRepo,
		publisher:  publisher,
		decider:    decider,
		metrics:    m,
		topic:      topic,
	}
}

// Process 处理一次支付请求
//
// 流程：校验 → 生成标识 → 结算决策 → 记录与事件同事务落库 → 尝试即时发布 → 返回回执
// 落库失败立即中止，绝不发布事件；即时发布失败只记日志，
// 不影响调用方的成功响应，由 outbox 中继兜底重投
func (s *Service) Process(ctx context.Context, req ProcessRequest) (*Receipt, error) {
	if req.AppointmentID <= 0 || req.UserID <= 0 || req.Amount <= 0 {
		return nil, ErrValidation
	}

	// 金额保留两位小数
	amount := math.Round(req.Amount*100) / 100

	method := req.PaymentMethod
	if method == "" {
		method = model.DefaultMethod
	}

	// 支付标识在任何持久化动作之前生成，且只生成一次
	paymentID := uuid.New().String()
	transactionID := fmt.Sprintf("txn_%d", time.Now().UnixMilli())

	// 结算决策，当前为模拟实现
	status := s.decider.Decide(ctx)

	now := app.TimenowInTimezone()
	record := &model.Payment{
		PaymentID:     paymentID,
		AppointmentID: req.AppointmentID,
		UserID:        req.UserID,
		Amount:        amount,
		Status:        string(status),
		PaymentMethod: method,
		TransactionID: transactionID,
		CreatedAt:     now,
	}

	event := Event{
		EventType:     EventTypePaymentCompleted,
		PaymentID:     paymentID,
		AppointmentID: req.AppointmentID,
		UserID:        req.UserID,
		Amount:        amount,
		Status:        string(status),
		Timestamp:     now.Format(time.RFC3339),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// 记录与发件箱消息在同一事务内落库
	outboxID, err := s.repo.CreateWithOutbox(ctx, record, s.topic, payload)
	if err != nil {
		logger.ErrorString("Payment", "Persist", err.Error())
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.metrics.ObservePayment(string(status))

	// 尝试即时发布；失败不回滚、不报错，留给中继重投
	s.publishCommitted(ctx, outboxID, payload)

	return &Receipt{
		PaymentID:     paymentID,
		Status:        string(status),
		Amount:        amount,
		TransactionID: transactionID,
		CreatedAt:     record.CreatedAt,
	}, nil
}

// publishCommitted 对已提交的记录做一次即时发布
func (s *Service) publishCommitted(ctx context.Context, outboxID uint64, payload []byte) {
	if err := s.publisher.Publish(ctx, s.topic, payload); err != nil {
		logger.ErrorString("Payment", "Publish", fmt.Sprintf(
			"即时发布失败，交由中继重投 outbox=%d: %v", outboxID, err))
		s.metrics.OutboxFailedTotal.Inc()
		return
	}

	s.metrics.OutboxPublishedTotal.Inc()
	if err := s.outboxRepo.MarkPublished(ctx, outboxID); err != nil {
		// 标记失败最多导致中继重复投递一次，至少一次语义允许
		logger.WarnString("Payment", "Outbox", fmt.Sprintf(
			"标记已发布失败 outbox=%d: %v", outboxID, err))
	}
}

// GetByPaymentID 按支付标识查询
func (s *Service) GetByPaymentID(ctx context.Context, paymentID string) (*model.Payment, error) {
	return s.repo.GetByPaymentID(ctx, paymentID)
}

// ListByUserID 按用户查询，按创建时间倒序
func (s *Service) ListByUserID(ctx context.Context, userID int64) ([]model.Payment, error) {
	return s.repo.ListByUserID(ctx, userID)
}
