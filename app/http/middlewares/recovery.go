package middlewares

import (
	"net"
	"net/http/httputil"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"caregate/pkg/logger"
	"caregate/pkg/response"
)

// Recovery 使用 zap.Error() 来记录 Panic 和 call stack
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				// 获取用户的请求信息
				httpRequest, _ := httputil.DumpRequest(c.Request, true)

				// 链接中断，客户端中断连接为正常行为，不需要记录堆栈信息
				var brokenPipe bool
				if ne, ok := err.(*net.OpError); ok {
					if se, ok := ne.Err.(*os.SyscallError); ok {
						errStr := strings.ToLower(se.Error())
						if strings.Contains(errStr, "broken pipe") || strings.Contains(errStr, "connection reset by peer") {
							brokenPipe = true
						}
					}
				}

				// 链接已断开，无法写回响应
				if brokenPipe {
					if logger.Logger != nil {
						logger.Logger.Error(c.Request.URL.Path,
							zap.Time("time", time.Now()),
							zap.Any("error", err),
							zap.String("request", string(httpRequest)),
						)
					}
					c.Error(err.(error)) //nolint: errcheck
					c.Abort()
					return
				}

				// 记录堆栈信息
				if logger.Logger != nil {
					logger.Logger.Error("recovery from panic",
						zap.Time("time", time.Now()),
						zap.Any("error", err),
						zap.String("request", string(httpRequest)),
						zap.Stack("stacktrace"),
					)
				}

				// 对外只返回通用错误，不泄露内部细节
				response.Abort500(c, "Internal server error")
			}
		}()
		c.Next()
	}
}
