package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"caregate/app/models/outbox"
	"caregate/app/models/payment"
	"caregate/pkg/database"
)

// ErrPaymentNotFound 支付记录不存在
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepository 支付记录仓库
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建仓库实例
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		db: database.DB,
	}
}

// CreateWithOutbox 在同一事务内写入支付记录和对应的发件箱消息
// 返回发件箱消息 ID，供调用方在即时投递成功后标记
// 任何一步失败整个事务回滚：没有落库的支付绝不会产生下游事件
func (r *PaymentRepository) CreateWithOutbox(ctx context.Context, p *payment.Payment, topic string, payload []byte) (uint64, error) {
	var outboxID uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}

		msg := &outbox.Message{
			Topic:   topic,
			Payload: string(payload),
			Status:  outbox.StatusPending,
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		outboxID = msg.ID
		return nil
	})
	return outboxID, err
}

// GetByPaymentID 根据支付标识获取支付记录
func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByUserID 获取某用户的全部支付记录，按创建时间倒序
// 没有记录时返回空切片，不视为错误
func (r *PaymentRepository) ListByUserID(ctx context.Context, userID int64) ([]payment.Payment, error) {
	payments := make([]payment.Payment, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
