// Package proxy 负责把网关请求原样转发到上游后端服务
package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"

	"caregate/pkg/logger"
	"caregate/pkg/response"
)

// Forwarder 上游请求转发器
// 转发方法、JSON 请求体、查询参数和 Authorization 头，
// 其余调用方请求头一律不透传
type Forwarder struct {
	client *resty.Client
}

// upstreamError 上游返回的结构化错误体
type upstreamError struct {
	Error string `json:"error"`
}

// NewForwarder 创建转发器
// 上游调用必须有显式超时，避免慢后端拖垮网关的并发额度
func NewForwarder(timeout time.Duration) *Forwarder {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(1 * time.Second)

	return &Forwarder{client: client}
}

// Forward 转发一次请求到上游并把结果写回调用方
//
// 成功时原样返回上游的状态码和响应体；
// 上游返回结构化错误体时透传其状态码和 error 信息；
// 上游不可达或返回非结构化错误时，统一响应 500 和固定文案，
// 调用方永远看不到原始的传输层错误
func (f *Forwarder) Forward(c *gin.Context, upstreamBase, path, fallbackMsg string) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, err, "Invalid request body")
		return
	}

	req := f.client.R().SetContext(c.Request.Context())

	// 只透传 Authorization 头
	if auth := c.GetHeader("Authorization"); auth != "" {
		req.SetHeader("Authorization", auth)
	}
	if len(body) > 0 {
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(body)
	}
	// 查询参数原样转发
	if rawQuery := c.Request.URL.RawQuery; rawQuery != "" {
		req.SetQueryString(rawQuery)
	}

	resp, err := req.Execute(c.Request.Method, upstreamBase+path)
	if err != nil {
		logger.ErrorString("Proxy", "Upstream", fmt.Sprintf(
			"转发失败 %s %s%s: %v", c.Request.Method, upstreamBase, path, err))
		response.Abort500(c, fallbackMsg)
		return
	}

	status := resp.StatusCode()
	if status < http.StatusBadRequest {
		// 成功响应逐字节透传
		c.Data(status, contentTypeOf(resp), resp.Body())
		return
	}

	// 上游错误：能解析出结构化错误体时透传状态码和信息
	var ue upstreamError
	if err := json.Unmarshal(resp.Body(), &ue); err == nil && ue.Error != "" {
		response.Error(c, status, ue.Error)
		return
	}

	logger.ErrorString("Proxy", "Upstream", fmt.Sprintf(
		"上游返回非结构化错误 %s %s%s: 状态 %d", c.Request.Method, upstreamBase, path, status))
	response.Abort500(c, fallbackMsg)
}

// contentTypeOf 提取上游响应的 Content-Type，缺省按 JSON 处理
func contentTypeOf(resp *resty.Response) string {
	if ct := resp.Header().Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/json; charset=utf-8"
}
