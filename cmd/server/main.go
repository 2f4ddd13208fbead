package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/safebite/safebite-backend/internal/cloudinary"
	"github.com/safebite/safebite-backend/internal/config"
	"github.com/safebite/safebite-backend/internal/database"
	"github.com/safebite/safebite-backend/internal/handlers"
	"github.com/safebite/safebite-backend/internal/logging"
	"github.com/safebite/safebite-backend/internal/mail"
	"github.com/safebite/safebite-backend/internal/middleware"
	"github.com/safebite/safebite-backend/internal/openfoodfacts"
	"github.com/safebite/safebite-backend/internal/otp"
	"github.com/safebite/safebite-backend/internal/routes"
	"github.com/safebite/safebite-backend/internal/scan"
	"github.com/safebite/safebite-backend/internal/services"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if err := database.Seed(); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Redis (OTP store)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	otpStore := otp.NewStore(redisClient, cfg.OTPTTL)

	// Outbound clients
	mailer := mail.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFromName)
	offClient := openfoodfacts.NewClient(cfg.OpenFoodFactsURL, cfg.OpenFoodFactsTimeout)
	uploader := cloudinary.NewUploader(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)

	// Services
	authService := services.NewAuthService(database.DB, cfg, otpStore, mailer)
	allergenService := services.NewAllergenService(database.DB)
	productService := services.NewProductService(database.DB, offClient)
	scanService := services.NewScanService(database.DB, allergenService, cfg.DefaultSavedProductLimit)
	subscriptionService := services.NewSubscriptionService(database.DB)
	emergencyService := services.NewEmergencyService(database.DB)
	adminService := services.NewAdminService(database.DB)

	// Scan core
	quotaTracker, err := scan.NewQuotaTracker(scanService, cfg.QuotaTimezone, cfg.DefaultDailyScanLimit)
	if err != nil {
		slog.Error("invalid quota timezone", "timezone", cfg.QuotaTimezone, "error", err)
		os.Exit(1)
	}
	var classifier scan.Classifier
	if cfg.UseDeterministicClassifier || cfg.GLMAPIKey == "" {
		slog.Info("using deterministic allergen classifier")
		classifier = scan.NewDeterministicClassifier()
	} else {
		classifier = scan.NewModelClassifier(cfg)
	}
	orchestrator := scan.NewOrchestrator(quotaTracker, productService, classifier, scanService, cfg.FixedAllergens)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	scanHandler := handlers.NewScanHandler(orchestrator, quotaTracker, scanService, uploader, cfg)
	allergenHandler := handlers.NewAllergenHandler(allergenService)
	productHandler := handlers.NewProductHandler(productService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	emergencyHandler := handlers.NewEmergencyHandler(emergencyService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB,
		authHandler, scanHandler, allergenHandler, productHandler,
		subscriptionHandler, emergencyHandler, adminHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := redisClient.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
