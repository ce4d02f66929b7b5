package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gearguard/internal/adapters/http/middleware"
	"gearguard/internal/adapters/http/routes"
	"gearguard/internal/adapters/lock"
	"gearguard/internal/adapters/persistence/models"
	"gearguard/internal/config"
	"gearguard/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	_ "gearguard/docs" // Swagger docs
)

// @title GearGuard API
// @version 1.0
// @description GearGuard maintenance request tracking API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@gearguard.local

// @host localhost:3000
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	// Connect to database
	db, err := config.ConnectDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to auto migrate", zap.Error(err))
	}
	logger.Info("Database migration completed")

	if cfg.IsDev() || cfg.SeedDemoData {
		if err := config.NewSeeder(db, logger).Run(cfg.SeedDemoData); err != nil {
			logger.Warn("Seeding failed", zap.Error(err))
		}
	}

	// Request locks go through Redis when it is configured so several API
	// instances serialise on the same keys
	redisClient, err := config.ConnectRedis(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	var locker lock.Locker = lock.NewMemoryLocker()
	if redisClient != nil {
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient)
	}

	repos := routes.NewRepositories(db)
	svcs := routes.NewServices(repos, cfg, locker, logger)

	scheduler := services.NewMaintenanceScheduler(repos.Requests, repos.Tokens, cfg.OverdueSweepCron, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err), zap.String("spec", cfg.OverdueSweepCron))
	}
	defer scheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "GearGuard API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	middleware.Setup(app, cfg, logger)
	routes.Setup(app, cfg, svcs, redisClient)

	// Graceful shutdown
	go gracefulShutdown(app, logger)

	logger.Info("Server starting", zap.String("port", cfg.Port), zap.String("mode", cfg.AppMode))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}

// gracefulShutdown stops accepting connections on SIGINT/SIGTERM; main's
// deferred cleanup runs once Listen returns
func gracefulShutdown(app *fiber.App, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
}
