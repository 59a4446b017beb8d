package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	configs "github.com/lumina-platform/auth-service/config"
	"github.com/lumina-platform/auth-service/internal/handler"
	"github.com/lumina-platform/auth-service/internal/middleware"
	"github.com/lumina-platform/auth-service/internal/repository"
	"github.com/lumina-platform/auth-service/internal/router"
	"github.com/lumina-platform/auth-service/internal/service"
	"github.com/lumina-platform/auth-service/pkg/database"
	"github.com/lumina-platform/auth-service/pkg/logger"
	"github.com/lumina-platform/auth-service/pkg/mailer"
	"github.com/lumina-platform/auth-service/pkg/redis"
	"github.com/lumina-platform/auth-service/pkg/validation"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
	)

	if err := validation.RegisterCustomValidators(); err != nil {
		logger.GetLogger().Fatal("Failed to register validators", zap.Error(err))
	}

	db, err := database.NewPostgresDB(database.Config{
		Host:            config.Database.Host,
		Port:            config.Database.Port,
		User:            config.Database.User,
		Password:        config.Database.Password,
		Database:        config.Database.Name,
		SSLMode:         config.Database.SSLMode,
		MaxIdleConns:    config.Database.MaxIdleConns,
		MaxOpenConns:    config.Database.MaxOpenConns,
		ConnMaxLifetime: config.Database.ConnMaxLifetime,
		ConnMaxIdleTime: config.Database.ConnMaxIdleTime,
	})
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	if err := database.Seed(db); err != nil {
		logger.GetLogger().Fatal("Failed to seed database", zap.Error(err))
	}

	defaultRoleID, err := database.DefaultRoleID(db)
	if err != nil {
		logger.GetLogger().Fatal("Failed to resolve default role", zap.Error(err))
	}

	// Redis backs the rate limiter; the service runs without it.
	var redisClient *redis.Client
	if config.Redis.Enabled {
		redisClient, err = redis.NewClient(config)
		if err != nil {
			logger.GetLogger().Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	store := repository.NewStore(db)

	jwtService, err := service.NewJWTService(config.JWT)
	if err != nil {
		logger.GetLogger().Fatal("Failed to initialize JWT service", zap.Error(err))
	}

	smtpMailer, err := mailer.NewSMTPMailer(config.SMTP, config.OTP.ExpiryMinutes)
	if err != nil {
		logger.GetLogger().Fatal("Failed to initialize mailer", zap.Error(err))
	}

	googleVerifier := service.NewGoogleTokenVerifier(config.Google.ClientID)

	authService := service.NewAuthService(store, jwtService, googleVerifier, config.JWT, defaultRoleID)
	registrationService := service.NewRegistrationService(store, authService, smtpMailer, config.OTP, defaultRoleID)
	passwordResetService := service.NewPasswordResetService(store, smtpMailer, config.OTP)

	authHandler := handler.NewAuthHandler(authService, registrationService)
	passwordResetHandler := handler.NewPasswordResetHandler(passwordResetService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	jwtMiddleware := middleware.NewJWTMiddleware(jwtService, store.Users())

	r := router.NewRouter(
		authHandler,
		passwordResetHandler,
		healthHandler,
		jwtMiddleware,
		redisClient,
		config,
	).SetupRoutes()

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
		)
		if err := r.Run(":" + config.App.Port); err != nil {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")
}
