package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"caregate/app/repositories"
	paymentsvc "caregate/app/services/payment"
	"caregate/bootstrap"
	btsConfig "caregate/config"
	"caregate/pkg/broker"
	"caregate/pkg/config"
	"caregate/pkg/database"
	"caregate/pkg/metrics"
	"caregate/pkg/relay"
)

// 加载应用程序的基础配置
func init() {
	// 加载 config 目录下的配置信息
	btsConfig.Initialize()
}

// 应用程序上下文，用于优雅关闭
type App struct {
	gateway   *http.Server
	payment   *http.Server
	relay     *relay.Relay
	publisher *broker.Publisher
}

func main() {
	// 解析命令行参数
	env := parseFlags()

	// 初始化应用配置
	app, err := setupApplication(env)
	if err != nil {
		log.Fatalf("初始化应用程序失败: %v", err)
	}

	// 启动服务器（包含优雅关闭）
	app.start()
}

// parseFlags 解析命令行参数
// 返回环境配置参数
func parseFlags() string {
	var env string
	flag.StringVar(&env, "env", "", "加载 .env 文件，例如 --env=testing 将加载 .env.testing 文件")
	flag.Parse()
	return env
}

// setupApplication 初始化应用程序所需的各种组件
func setupApplication(env string) (*App, error) {
	// 先初始化配置
	config.InitConfig(env)

	// 然后初始化日志
	bootstrap.SetupLogger()

	// 初始化数据库
	bootstrap.SetupDB()

	// 限流驱动为 redis 时才需要连接
	if config.GetString("limiter.driver") == "redis" {
		bootstrap.SetupRedis()
	}

	// 建立事件通道并确保主题存在
	publisher, err := bootstrap.SetupBroker()
	if err != nil {
		return nil, err
	}

	// 指标在网关和支付后端之间共享同一个注册表
	m := metrics.Default()

	// 启动 outbox 中继，兜底重投未发布的事件
	r := bootstrap.SetupRelay(publisher, m)

	// 组装支付处理服务
	service := paymentsvc.NewService(
		repositories.NewPaymentRepository(),
		repositories.NewOutboxRepository(),
		publisher,
		paymentsvc.NewSimulatedDecider(),
		m,
		config.GetString("broker.topic", "payment-events"),
	)

	// 设置 gin 为生产模式
	// 这样可以减少不必要的日志输出，提高性能
	gin.SetMode(gin.ReleaseMode)

	// 对外的网关
	gatewayRouter := gin.New()
	bootstrap.SetupGatewayRoute(gatewayRouter, m)

	// 内网的支付后端
	paymentRouter := gin.New()
	bootstrap.SetupPaymentRoute(paymentRouter, m, service)

	return &App{
		gateway: &http.Server{
			Addr:    ":" + config.Get("app.port"),
			Handler: gatewayRouter,
		},
		payment: &http.Server{
			Addr:    ":" + config.Get("app.payment_port"),
			Handler: paymentRouter,
		},
		relay:     r,
		publisher: publisher,
	}, nil
}

// start 启动服务器并处理优雅关闭
func (a *App) start() {
	// 创建系统信号监听器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("网关正在启动，监听端口 %s\n", a.gateway.Addr)
		if err := a.gateway.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("网关启动失败: %v", err)
		}
	}()

	go func() {
		log.Printf("支付后端正在启动，监听端口 %s\n", a.payment.Addr)
		if err := a.payment.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("支付后端启动失败: %v", err)
		}
	}()

	// 等待中断信号
	<-quit
	log.Println("正在关闭服务器...")

	// 创建一个带超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 关闭顺序：先停 HTTP 服务器，再停中继，最后断开事件通道和数据库
	// 中继晚于服务器关闭，处理中的请求还能把 outbox 消息交给它补投
	if err := a.gateway.Shutdown(ctx); err != nil {
		log.Printf("网关关闭异常: %v", err)
	}
	if err := a.payment.Shutdown(ctx); err != nil {
		log.Printf("支付后端关闭异常: %v", err)
	}

	a.relay.Stop()
	a.publisher.Close()

	if err := database.Close(); err != nil {
		log.Printf("数据库关闭异常: %v", err)
	}

	log.Println("服务器已成功关闭")
}
