// Package middleware provides the gin middleware of the API server
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cleyfe/chaincare/internal/logic"
	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie 会话 cookie 名
	SessionCookie = "chaincare_session"
	claimsKey     = "chaincare.claims"
)

// TokenParser 校验会话令牌
type TokenParser interface {
	ParseToken(ctx context.Context, token string) (*logic.Claims, error)
}

// Auth 要求有效的 Bearer 令牌或会话 cookie
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				token = cookie
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
			return
		}

		claims, err := parser.ParseToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// ClaimsFrom 读取 Auth 写入的会话信息
func ClaimsFrom(c *gin.Context) (*logic.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*logic.Claims)
	return claims, ok
}

// RequireOperator 仅允许配置的运维账户调用，需在 Auth 之后使用。
// 用户名只匹配密码登录会话，钱包只匹配签名登录会话
func RequireOperator(users, wallets []string) gin.HandlerFunc {
	allowedUsers := make(map[string]struct{}, len(users))
	for _, u := range users {
		allowedUsers[strings.TrimSpace(u)] = struct{}{}
	}
	allowedWallets := make(map[string]struct{}, len(wallets))
	for _, w := range wallets {
		allowedWallets[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
			return
		}

		allowed := false
		if claims.UserId != 0 {
			_, allowed = allowedUsers[claims.Subject]
		} else if claims.Wallet != "" {
			_, allowed = allowedWallets[strings.ToLower(claims.Wallet)]
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Operator access required"})
			return
		}
		c.Next()
	}
}
