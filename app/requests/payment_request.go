package requests

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/thedevsaddam/govalidator"
)

// PaymentCreateRequest 创建支付的请求体
type PaymentCreateRequest struct {
	AppointmentID int64   `json:"appointment_id" valid:"appointment_id"`
	UserID        int64   `json:"user_id" valid:"user_id"`
	Amount        float64 `json:"amount" valid:"amount"`
	PaymentMethod string  `json:"payment_method" valid:"payment_method"`
}

// ValidatePaymentCreate 校验创建支付的请求
// 校验失败必须发生在生成任何支付标识之前
func ValidatePaymentCreate(c *gin.Context) (*PaymentCreateRequest, error) {
	var req PaymentCreateRequest

	// 1. 首先绑定 JSON
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}

	// 2. 验证规则
	rules := govalidator.MapData{
		"appointment_id": []string{"required"},
		"user_id":        []string{"required"},
		"amount":         []string{"required"},
		"payment_method": []string{"in:card,insurance"},
	}

	// 3. 验证消息
	messages := govalidator.MapData{
		"appointment_id": []string{
			"required:预约 ID 不能为空",
		},
		"user_id": []string{
			"required:用户 ID 不能为空",
		},
		"amount": []string{
			"required:金额不能为空",
		},
		"payment_method": []string{
			"in:支付方式必须是 card 或 insurance",
		},
	}

	if err := ValidateStruct(&req, rules, messages); err != nil {
		return nil, err
	}

	// 4. 额外的数值校验
	if req.AppointmentID <= 0 || req.UserID <= 0 {
		return nil, fmt.Errorf("无效的预约或用户标识")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("金额必须大于 0")
	}

	return &req, nil
}
