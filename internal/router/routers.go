package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumina-platform/auth-service/config"
	"github.com/lumina-platform/auth-service/internal/handler"
	"github.com/lumina-platform/auth-service/internal/middleware"
	"github.com/lumina-platform/auth-service/pkg/redis"
)

type Router struct {
	authHandler          *handler.AuthHandler
	passwordResetHandler *handler.PasswordResetHandler
	healthHandler        *handler.HealthHandler

	jwtMw       *middleware.JWTMiddleware
	redisClient *redis.Client
	cfg         *config.Config
}

func NewRouter(
	auth *handler.AuthHandler,
	passwordReset *handler.PasswordResetHandler,
	health *handler.HealthHandler,
	jwtMw *middleware.JWTMiddleware,
	redisClient *redis.Client,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:          auth,
		passwordResetHandler: passwordReset,
		healthHandler:        health,
		jwtMw:                jwtMw,
		redisClient:          redisClient,
		cfg:                  cfg,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	if !r.cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestContext())

	api := router.Group("/api")
	{
		api.GET("/health", r.healthHandler.HealthCheck)

		limited := api.Group("")
		limited.Use(middleware.RateLimit(
			r.redisClient,
			r.cfg.RateLimit.Request,
			time.Duration(r.cfg.RateLimit.Duration)*time.Second,
		))

		r.authRoutes(limited)
	}

	return router
}
