package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumina-platform/auth-service/internal/constants"
	"github.com/lumina-platform/auth-service/pkg/logger"
	"github.com/lumina-platform/auth-service/pkg/redis"
)

// RateLimit throttles by client IP using a fixed redis window. A nil
// client disables throttling, and redis outages fail open so auth
// traffic keeps flowing.
func RateLimit(client *redis.Client, maxRequest int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := constants.RateLimitKeyPrefix + c.ClientIP()

		count, err := client.IncrementWindow(ctx, key, window)
		if err != nil {
			logger.WarnWithContext(ctx, "Rate limit check failed, allowing request").
				String("key", key).
				Err(err).
				Log()
			c.Next()
			return
		}

		remaining := int64(maxRequest) - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequest))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > int64(maxRequest) {
			retryAfter := window
			if ttl, err := client.WindowTTL(ctx, key); err == nil && ttl > 0 {
				retryAfter = ttl
			}

			logger.WarnWithContext(ctx, "Rate limit exceeded").
				String("client_ip", c.ClientIP()).
				String("path", c.Request.URL.Path).
				Int64("current_requests", count).
				Int("max_requests", maxRequest).
				Log()

			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(retryAfter).Unix()))
			c.JSON(http.StatusTooManyRequests, constants.BuildErrorResponse("Rate limit exceeded", gin.H{
				"retry_after": retryAfter.Seconds(),
			}))
			c.Abort()
			return
		}

		c.Next()
	}
}
