package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	_ "github.com/stack-service/backoffice/docs"
	"github.com/stack-service/backoffice/internal/api/routes"
	"github.com/stack-service/backoffice/internal/infrastructure/config"
	"github.com/stack-service/backoffice/internal/infrastructure/database"
	"github.com/stack-service/backoffice/internal/infrastructure/di"
	"github.com/stack-service/backoffice/internal/workers/analytics_snapshot"
	"github.com/stack-service/backoffice/pkg/logger"
	"github.com/stack-service/backoffice/pkg/tracing"
	"github.com/stack-service/backoffice/pkg/version"
)

// @title Investor Back Office API
// @version 1.0
// @description Investor administration, withdrawal review, commissions and portfolio analytics.

// @contact.name Back Office Support
// @contact.email support@backoffice.local

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer func() { _ = log.Zap().Sync() }()

	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     version.Version,
		Environment: cfg.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatal("Failed to initialize tracing", "error", err)
	}

	// Initialize database when the document store lives in postgres
	var db *sqlx.DB
	if cfg.Database.Driver == config.DriverPostgres {
		db, err = database.NewConnection(cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", "error", err)
		}
		if err := database.RunMigrations(db); err != nil {
			log.Fatal("Failed to run migrations", "error", err)
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Build dependency injection container
	container, err := di.NewContainer(ctx, cfg, db, log)
	if err != nil {
		log.Fatal("Failed to create DI container", "error", err)
	}

	router := routes.SetupRoutes(container)

	snapshotConfig := analytics_snapshot.DefaultConfig()
	if cfg.Analytics.SnapshotSchedule != "" {
		snapshotConfig.Schedule = cfg.Analytics.SnapshotSchedule
	}
	scheduler, err := analytics_snapshot.NewScheduler(container.AnalyticsService, snapshotConfig, log.Zap())
	if err != nil {
		log.Fatal("Failed to create analytics snapshot scheduler", "error", err)
	}
	if err := scheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start analytics snapshot scheduler", "error", err)
	}

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	// Start server in goroutine
	go func() {
		log.Infow("Starting server",
			"port", cfg.Server.Port,
			"environment", cfg.Environment,
			"driver", cfg.Database.Driver,
			"version", version.Version)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server forced to shutdown", "error", err)
	}

	log.Info("Stopping analytics snapshot scheduler...")
	scheduler.Stop()

	if err := container.Close(shutdownCtx); err != nil {
		log.Warnw("Error closing data store", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warnw("Error flushing traces", "error", err)
	}

	log.Info("Server exited")
}
