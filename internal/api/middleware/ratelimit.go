package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leoarenas/smarttasks/internal/pkg/metrics"
)

// Limiter 由 ratelimit.RateLimiter 实现。
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// RateLimit 限流中间件。已登录请求按用户限流，其余按客户端 IP 限流。
// Redis 故障时放行请求。
func RateLimit(limiter Limiter, scope string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		allowed, wait, err := limiter.Allow(c.Request.Context(), limitKey(c, scope))
		if err != nil {
			if logger != nil {
				logger.Warn("rate limiter unavailable", slog.String("scope", scope), slog.String("error", err.Error()))
			}
			c.Next()
			return
		}
		if !allowed {
			metrics.RateLimitRejectedTotal.WithLabelValues(scope).Inc()
			retry := int(math.Ceil(wait.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests", "retry_after": retry})
			return
		}
		c.Next()
	}
}

func limitKey(c *gin.Context, scope string) string {
	if user, ok := CurrentUser(c); ok {
		return scope + ":user:" + user.ID
	}
	return scope + ":" + c.ClientIP()
}
