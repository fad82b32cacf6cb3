package middlewares

import (
	"errors"

	"github.com/gin-gonic/gin"

	"caregate/pkg/jwtauth"
	"caregate/pkg/response"
)

// principalKey Principal 在 gin 上下文中的键
const principalKey = "principal"

// AuthRequired Token 鉴权中间件
// 校验通过后把 Principal 写入请求上下文，下游处理器直接读取，不再重复校验；
// 鉴权失败的请求在网关终止，不会到达任何后端
func AuthRequired() gin.HandlerFunc {
	verifier := jwtauth.NewJWT()

	return func(c *gin.Context) {
		principal, err := verifier.VerifyRequest(c)
		if err != nil {
			switch {
			case errors.Is(err, jwtauth.ErrTokenMissing):
				response.Abort401(c, "Access token required")
			case errors.Is(err, jwtauth.ErrTokenExpired):
				response.Abort403(c, "Token expired")
			default:
				response.Abort403(c, "Invalid token")
			}
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// CurrentPrincipal 读取上下文中的 Principal，未鉴权的路由返回 nil
func CurrentPrincipal(c *gin.Context) *jwtauth.Principal {
	value, exists := c.Get(principalKey)
	if !exists {
		return nil
	}
	principal, ok := value.(*jwtauth.Principal)
	if !ok {
		return nil
	}
	return principal
}
