package main

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dafteam/facturation-api/internal/application/service"
	"github.com/dafteam/facturation-api/internal/config"
	"github.com/dafteam/facturation-api/internal/infrastructure/database"
	"github.com/dafteam/facturation-api/internal/infrastructure/repository"
	"github.com/dafteam/facturation-api/internal/presentation/http/handler"
	"github.com/dafteam/facturation-api/internal/presentation/http/routes"
	"github.com/dafteam/facturation-api/pkg/logger"
	"github.com/dafteam/facturation-api/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.App.Env)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Seed default actors
	if err := database.SeedDefaultData(db); err != nil {
		log.Warn().Err(err).Msg("failed to seed default data")
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	txManager := repository.NewTxManager(db)
	userRepo := repository.NewUserRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	traceRepo := repository.NewValidationTraceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo, time.Now)
	invoiceService := service.NewInvoiceService(invoiceRepo, userRepo, traceRepo,
		notificationService, txManager, log, time.Now)
	authService := service.NewAuthService(userRepo, jwtManager)
	userService := service.NewUserService(userRepo, invoiceRepo)
	dashboardService := service.NewDashboardService(invoiceRepo, time.Now)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Invoice:      handler.NewInvoiceHandler(invoiceService, cfg.Storage),
		Notification: handler.NewNotificationHandler(notificationService),
		User:         handler.NewUserHandler(userService),
		Dashboard:    handler.NewDashboardHandler(dashboardService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager: jwtManager,
		Cfg:        cfg,
		Log:        log,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	log.Info().
		Str("port", port).
		Str("environment", cfg.App.Env).
		Msgf("starting %s", cfg.App.Name)

	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
