// Package payments 支付后端的 HTTP 控制器
package payments

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"caregate/app/requests"
	paymentsvc "caregate/app/services/payment"
	"caregate/pkg/response"
)

// PaymentsController 支付控制器
type PaymentsController struct {
	service *paymentsvc.Service
}

// NewPaymentsController 创建支付控制器
func NewPaymentsController(service *paymentsvc.Service) *PaymentsController {
	return &PaymentsController{
		service: service,
	}
}

// Store 处理一次支付请求
// POST /payments
func (pc *PaymentsController) Store(c *gin.Context) {
	req, err := requests.ValidatePaymentCreate(c)
	if err != nil {
		response.BadRequest(c, err, "Missing required fields")
		return
	}

	receipt, err := pc.service.Process(c.Request.Context(), paymentsvc.ProcessRequest{
		AppointmentID: req.AppointmentID,
		UserID:        req.UserID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		if errors.Is(err, paymentsvc.ErrValidation) {
			response.Abort400(c, "Missing required fields")
			return
		}
		response.ServerError(c, err, "Failed to process payment")
		return
	}

	response.Created(c, receipt)
}

// Show 按支付标识查询
// GET /payments/:payment_id
func (pc *PaymentsController) Show(c *gin.Context) {
	record, err := pc.service.GetByPaymentID(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		if errors.Is(err, paymentsvc.ErrNotFound) {
			response.Abort404(c, "Payment not found")
			return
		}
		response.ServerError(c, err, "Failed to fetch payment")
		return
	}

	response.JSON(c, record)
}

// IndexByUser 按用户查询全部支付记录，按创建时间倒序
// GET /payments/user/:user_id
func (pc *PaymentsController) IndexByUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		response.Abort400(c, "Invalid user id")
		return
	}

	records, err := pc.service.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		response.ServerError(c, err, "Failed to fetch payments")
		return
	}

	// 没有记录时返回空数组而不是错误
	response.JSON(c, records)
}
