package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lumina-platform/auth-service/internal/constants"
	"github.com/lumina-platform/auth-service/internal/repository"
	"github.com/lumina-platform/auth-service/internal/service"
	ctxutil "github.com/lumina-platform/auth-service/pkg/context"
	"github.com/lumina-platform/auth-service/pkg/logger"
)

type JWTMiddleware struct {
	jwtService *service.JWTService
	users      repository.UserRepository
}

func NewJWTMiddleware(jwtService *service.JWTService, users repository.UserRepository) *JWTMiddleware {
	return &JWTMiddleware{
		jwtService: jwtService,
		users:      users,
	}
}

// RequireAuth validates the bearer token and loads the subject into the
// request context. Deactivated users are cut off even with a live token.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			m.reject(c, "Missing Authorization header")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != constants.AuthSchemeBearer {
			m.reject(c, "Invalid Authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenParts[1])
		if err != nil {
			logger.WarnWithContext(ctx, "Invalid or expired token").
				String("path", c.Request.URL.Path).
				Err(err).
				Log()
			m.reject(c, "")
			return
		}

		subject, _ := claims["sub"].(string)
		userID, err := strconv.ParseUint(subject, 10, 64)
		if err != nil {
			m.reject(c, "Invalid subject claim")
			return
		}

		user, err := m.users.GetByID(ctx, uint(userID))
		if err != nil {
			m.reject(c, "Token subject no longer exists")
			return
		}
		if !user.IsActive {
			m.reject(c, "Token subject deactivated")
			return
		}

		c.Set(constants.GinKeyUserID, user.ID)
		c.Set(constants.GinKeyUserRole, user.Role.Name)
		c.Set(constants.GinKeyEmail, user.Email)
		c.Request = c.Request.WithContext(ctxutil.WithUserID(ctx, user.ID))

		c.Next()
	}
}

func (m *JWTMiddleware) reject(c *gin.Context, reason string) {
	if reason != "" {
		logger.WarnWithContext(c.Request.Context(), reason).
			String("path", c.Request.URL.Path).
			String("method", c.Request.Method).
			Log()
	}
	c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
	c.Abort()
}
