// Package gateway 网关转发控制器
// 每个方法对应一条网关路由，把请求转发到静态前缀表里配置的上游
package gateway

import (
	"github.com/gin-gonic/gin"

	"caregate/app/http/middlewares"
	"caregate/pkg/config"
	"caregate/pkg/proxy"
	"caregate/pkg/response"
)

// GatewayController 网关控制器
type GatewayController struct {
	forwarder *proxy.Forwarder

	userServiceURL        string
	appointmentServiceURL string
	paymentServiceURL     string
}

// NewGatewayController 创建网关控制器
// 上游基础地址来自配置，一经创建不再变化
func NewGatewayController(forwarder *proxy.Forwarder) *GatewayController {
	return &GatewayController{
		forwarder:             forwarder,
		userServiceURL:        config.GetString("gateway.user_service_url"),
		appointmentServiceURL: config.GetString("gateway.appointment_service_url"),
		paymentServiceURL:     config.GetString("gateway.payment_service_url"),
	}
}

// RegisterUser 转发用户注册
// POST /api/users/register
func (gc *GatewayController) RegisterUser(c *gin.Context) {
	gc.forwarder.Forward(c, gc.userServiceURL, "/register", "Failed to register user")
}

// Login 转发用户登录
// POST /api/users/login
func (gc *GatewayController) Login(c *gin.Context) {
	gc.forwarder.Forward(c, gc.userServiceURL, "/login", "Failed to login")
}

// Profile 转发用户资料查询，路径携带调用方身份
// GET /api/users/profile
func (gc *GatewayController) Profile(c *gin.Context) {
	principal := middlewares.CurrentPrincipal(c)
	if principal == nil {
		response.Abort401(c, "Access token required")
		return
	}
	gc.forwarder.Forward(c, gc.userServiceURL, "/profile/"+principal.UserID, "Failed to get profile")
}

// CreateAppointment 转发创建预约
// POST /api/appointments
func (gc *GatewayController) CreateAppointment(c *gin.Context) {
	gc.forwarder.Forward(c, gc.appointmentServiceURL, "/appointments", "Failed to create appointment")
}

// ListAppointments 转发预约列表查询，查询参数原样透传
// GET /api/appointments
func (gc *GatewayController) ListAppointments(c *gin.Context) {
	gc.forwarder.Forward(c, gc.appointmentServiceURL, "/appointments", "Failed to get appointments")
}

// GetAppointment 转发单个预约查询
// GET /api/appointments/:id
func (gc *GatewayController) GetAppointment(c *gin.Context) {
	gc.forwarder.Forward(c, gc.appointmentServiceURL, "/appointments/"+c.Param("id"), "Failed to get appointment")
}

// CreatePayment 转发支付请求
// POST /api/payments
func (gc *GatewayController) CreatePayment(c *gin.Context) {
	gc.forwarder.Forward(c, gc.paymentServiceURL, "/payments", "Failed to process payment")
}

// GetPayment 转发支付查询
// GET /api/payments/:id
func (gc *GatewayController) GetPayment(c *gin.Context) {
	gc.forwarder.Forward(c, gc.paymentServiceURL, "/payments/"+c.Param("id"), "Failed to get payment")
}
