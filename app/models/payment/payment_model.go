package payment

import (
	"time"
)

// Payment 支付记录模型
// 写入后不再变更，本服务也不做删除（保留策略不在范围内）
type Payment struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentID     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"payment_id"`
	AppointmentID int64     `gorm:"not null;index" json:"appointment_id"`
	UserID        int64     `gorm:"not null;index" json:"user_id"`
	Amount        float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status        string    `gorm:"type:varchar(50);not null" json:"status"`
	PaymentMethod string    `gorm:"type:varchar(50)" json:"payment_method"`
	TransactionID string    `gorm:"type:varchar(64)" json:"transaction_id"`
	CreatedAt     time.Time `gorm:"" json:"created_at"`
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
