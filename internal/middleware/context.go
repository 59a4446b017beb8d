package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumina-platform/auth-service/internal/constants"
	ctxutil "github.com/lumina-platform/auth-service/pkg/context"
	"github.com/lumina-platform/auth-service/pkg/logger"
)

// RequestContext tags every request with a request ID and client info,
// echoes the ID back to the caller, and logs start/completion.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := ctxutil.WithRequestID(c.Request.Context(), requestID)
		ctx = ctxutil.WithClientInfo(ctx, c.ClientIP(), c.Request.UserAgent())
		ctx = ctxutil.WithStartTime(ctx, time.Now())
		c.Request = c.Request.WithContext(ctx)

		c.Header(constants.HeaderXRequestID, requestID)

		logger.InfoWithContext(ctx, "Request started").
			String("method", c.Request.Method).
			String("path", c.Request.URL.Path).
			Log()

		c.Next()

		logger.InfoWithContext(ctx, "Request completed").
			String("method", c.Request.Method).
			String("path", c.Request.URL.Path).
			Int("status_code", c.Writer.Status()).
			Int("response_size", c.Writer.Size()).
			Duration(ctxutil.GetDuration(ctx)).
			Log()
	}
}

// RecoveryMiddleware recovers from panics and answers with a generic
// server error.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.ErrorWithContext(c.Request.Context(), "Panic recovered").
			Any("panic", recovered).
			String("path", c.Request.URL.Path).
			Log()

		c.JSON(500, constants.BuildErrorResponse("Internal server error", nil))
	})
}
