package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/teamwiki/authd/internal/core"
	"github.com/teamwiki/authd/internal/ratelimit"
	"github.com/teamwiki/authd/internal/util"

	"github.com/gin-gonic/gin"
)

// RateLimit gates a route through the limiter. The client key is the
// request IP as resolved by gin (X-Forwarded-For aware).
func RateLimit(l *ratelimit.Limiter, route string, m core.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := l.Admit(c.Request.Context(), util.GetIPFromContext(c), route)
		if !decision.Allowed {
			m.RecordRateLimitDenied(route)

			retryAfter := int(decision.RetryAfter / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"ok":    false,
				"error": "rate_limit_exceeded",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
