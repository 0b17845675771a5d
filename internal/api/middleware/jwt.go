package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/leoarenas/smarttasks/internal/model"
	"github.com/leoarenas/smarttasks/internal/pkg/session"
)

const userKey = "user"

// UserLookup 每个请求都重新读取会话用户。
type UserLookup interface {
	UserByID(ctx context.Context, id string) (*model.User, error)
}

// AuthMiddleware 校验 Bearer 会话令牌并将当前用户写入上下文。
func AuthMiddleware(issuer *session.Issuer, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := issuer.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, session.ErrExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		user, err := users.UserByID(c.Request.Context(), claims.UserID)
		if err != nil || user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		SetCurrentUser(c, user)
		c.Next()
	}
}

// RequireAdmin 拒绝非管理员，必须放在 AuthMiddleware 之后。
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin permissions required"})
			return
		}
		c.Next()
	}
}

// CurrentUser 返回 AuthMiddleware 写入的用户。
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

// SetCurrentUser 把当前用户写入请求上下文。
func SetCurrentUser(c *gin.Context, user *model.User) {
	c.Set(userKey, user)
}
