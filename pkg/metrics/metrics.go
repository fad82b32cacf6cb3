// Package metrics 提供 Prometheus 指标的注册与暴露
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 进程级指标集合
// 构造一次，注入到需要打点的组件中
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP 请求指标，标签与上游网关保持一致
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec

	// 支付处理指标
	PaymentsTotal *prometheus.CounterVec

	// Outbox 转发指标
	OutboxPublishedTotal prometheus.Counter
	OutboxFailedTotal    prometheus.Counter
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default 返回进程级的默认指标集合
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

// New 创建一个独立的指标集合，使用独立的 Registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	// 进程与 Go 运行时指标
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: registry,

		HTTPRequestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status_code"},
		),
		HTTPRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		PaymentsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_total",
				Help: "Total number of payments processed",
			},
			[]string{"status"},
		),
		OutboxPublishedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "outbox_published_total",
				Help: "Total number of outbox messages confirmed to the broker",
			},
		),
		OutboxFailedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "outbox_publish_failures_total",
				Help: "Total number of failed outbox publish attempts",
			},
		),
	}

	return m
}

// ObserveRequest 记录一次 HTTP 请求的耗时和计数
// 只做累加，不会阻塞请求路径
func (m *Metrics) ObserveRequest(method, route string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
}

// ObservePayment 按结果状态累计支付次数
func (m *Metrics) ObservePayment(status string) {
	m.PaymentsTotal.WithLabelValues(status).Inc()
}

// Handler 返回 /metrics 的拉取端点，按 Prometheus 文本格式序列化当前 Registry
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
