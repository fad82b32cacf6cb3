package payment

import (
	"errors"
)

// Status 支付状态
type Status string

const (
	StatusCompleted Status = "completed" // 结算成功
	StatusFailed    Status = "failed"    // 结算失败
)

// 支付方式
const (
	MethodCard      = "card"
	MethodInsurance = "insurance"
	DefaultMethod   = MethodCard
)

// Validate 校验支付记录的必填字段
func (p *Payment) Validate() error {
	if p.AppointmentID <= 0 {
		return errors.New("appointment_id is required")
	}
	if p.UserID <= 0 {
		return errors.New("user_id is required")
	}
	if p.Amount <= 0 {
		return errors.New("amount must be greater than 0")
	}
	return nil
}

// IsCompleted 检查支付是否成功
func (p *Payment) IsCompleted() bool {
	return p.Status == string(StatusCompleted)
}

// IsFailed 检查支付是否失败
func (p *Payment) IsFailed() bool {
	return p.Status == string(StatusFailed)
}
