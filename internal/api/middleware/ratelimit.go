package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"careerpilot/internal/metrics"
	"careerpilot/internal/ratelimit"
)

// RateLimitMiddleware 对一个端点类别做限流。
// 主体优先取已认证的用户 ID，未认证请求退化为客户端 IP。
// 被拒绝的请求带 Retry-After 提示（由窗口 TTL 推导）。
func RateLimitMiddleware(limiter *ratelimit.Limiter, class ratelimit.Class) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := "ip:" + c.ClientIP()
		if userID, ok := UserIDFromContext(c); ok {
			subject = "user:" + strconv.FormatUint(uint64(userID), 10)
		}

		decision := limiter.Allow(c.Request.Context(), class, subject)
		if !decision.Allowed {
			metrics.RateLimitRejected(class.Name)
			seconds := int(decision.RetryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
