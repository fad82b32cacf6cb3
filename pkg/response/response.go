// Package response 提供统一的 HTTP 响应处理
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"caregate/pkg/logger"
)

/* 错误响应结构
{
    "error": "Access token required"
}
对外暴露的错误始终只有一个 error 字段，内部错误细节一律不回显给调用方
*/

// JSON 直接返回 JSON 数据
func JSON(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Data 响应 200 和数据
func Data(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 响应 201 和数据
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// ------------------ 错误响应系列 ------------------

// Error 响应任意状态码的错误，统一为单字段 error 对象
func Error(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": msg,
	})
}

// Abort400 响应 400 错误
func Abort400(c *gin.Context, msg string) {
	Error(c, http.StatusBadRequest, msg)
}

// Abort401 响应 401 错误
func Abort401(c *gin.Context, msg string) {
	Error(c, http.StatusUnauthorized, msg)
}

// Abort403 响应 403 错误
func Abort403(c *gin.Context, msg string) {
	Error(c, http.StatusForbidden, msg)
}

// Abort404 响应 404 错误
func Abort404(c *gin.Context, msg string) {
	Error(c, http.StatusNotFound, msg)
}

// Abort429 响应 429 错误
func Abort429(c *gin.Context, msg string) {
	Error(c, http.StatusTooManyRequests, msg)
}

// Abort500 响应 500 错误
func Abort500(c *gin.Context, msg string) {
	Error(c, http.StatusInternalServerError, msg)
}

// BadRequest 响应 400 错误，内部错误只进日志
func BadRequest(c *gin.Context, err error, msg string) {
	logger.LogWarnIf(err)
	Error(c, http.StatusBadRequest, msg)
}

// ServerError 响应 500 错误，内部错误只进日志
func ServerError(c *gin.Context, err error, msg string) {
	logger.LogIf(err)
	Error(c, http.StatusInternalServerError, msg)
}
