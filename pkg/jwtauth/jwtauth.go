// Package jwtauth 处理 Bearer Token 的签发与校验
package jwtauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"

	"caregate/pkg/config"
)

var (
	// ErrTokenMissing 请求未携带 Token
	ErrTokenMissing = errors.New("access token required")
	// ErrTokenInvalid Token 签名错误或结构不合法
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired Token 已过期
	ErrTokenExpired = errors.New("token expired")
)

// Principal 通过 Token 校验得到的调用方身份
// 只在单次请求的生命周期内存在，不做持久化
type Principal struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// Claims 自定义 JWT 载荷
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwtlib.RegisteredClaims
}

// JWT Token 签发与校验器
type JWT struct {
	// 签名密钥，与各后端服务共享
	SignKey []byte
	// 签发的 Token 有效期
	ExpireTime time.Duration
}

// NewJWT 从配置创建校验器
func NewJWT() *JWT {
	return &JWT{
		SignKey:    []byte(config.GetString("jwt.secret")),
		ExpireTime: time.Duration(config.GetInt("jwt.expire_seconds", 86400)) * time.Second,
	}
}

// IssueToken 签发 Token，主要用于本地联调和测试
func (j *JWT) IssueToken(userID, role string) (string, error) {
	return j.IssueTokenWithTTL(userID, role, j.ExpireTime)
}

// IssueTokenWithTTL 签发指定有效期的 Token
func (j *JWT) IssueTokenWithTTL(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(j.SignKey)
}

// VerifyToken 校验 Token 字符串，成功时返回 Principal
func (j *JWT) VerifyToken(tokenString string) (*Principal, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	token, err := jwtlib.ParseWithClaims(tokenString, claims, func(token *jwtlib.Token) (interface{}, error) {
		// 只接受 HMAC 家族算法，避免算法混淆攻击
		if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.SignKey, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	principal := &Principal{
		UserID: claims.UserID,
		Role:   claims.Role,
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal, nil
}

// VerifyRequest 从请求头提取并校验 Token
// 格式要求：Authorization: Bearer <token>
func (j *JWT) VerifyRequest(c *gin.Context) (*Principal, error) {
	tokenString, err := getTokenFromHeader(c)
	if err != nil {
		return nil, err
	}
	return j.VerifyToken(tokenString)
}

// getTokenFromHeader 从 Authorization 头解析 Bearer Token
func getTokenFromHeader(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrTokenMissing
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrTokenMissing
	}
	return parts[1], nil
}
