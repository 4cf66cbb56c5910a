package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claiminsight/claiminsight-api/internal/analysis"
	"github.com/claiminsight/claiminsight-api/internal/config"
	"github.com/claiminsight/claiminsight-api/internal/db"
	"github.com/claiminsight/claiminsight-api/internal/repository"
	"github.com/claiminsight/claiminsight-api/internal/router"
	"github.com/claiminsight/claiminsight-api/internal/services"
	"github.com/claiminsight/claiminsight-api/internal/storage"
	"github.com/claiminsight/claiminsight-api/internal/tempfile"
	"github.com/claiminsight/claiminsight-api/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	// Initialize history database
	database, err := db.NewSQLiteDB(cfg.DatabaseFile)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.DatabaseFile, cfg.MigrationsDir); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	// Transient upload directory
	files, err := tempfile.NewStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal("Failed to prepare upload directory", "error", err)
	}

	// Image archive
	archive, err := storage.NewS3Archive(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize image archive", "error", err)
	}

	// Analysis service client
	analysisClient := analysis.NewClient(
		cfg.AnalysisServiceURL,
		time.Duration(cfg.AnalysisTimeoutSeconds)*time.Second,
		logger,
	)

	// Claim service
	historyRepo := repository.NewHistoryRepository(database)
	claimService := services.NewClaimService(historyRepo, archive, analysisClient, files, logger)

	// Setup HTTP router
	handler := router.NewRouter(claimService, files, cfg, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
