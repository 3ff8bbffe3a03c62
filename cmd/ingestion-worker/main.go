package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vronney/orders-management-system/internal/config"
	"github.com/vronney/orders-management-system/internal/db"
	"github.com/vronney/orders-management-system/internal/ingest"
	"github.com/vronney/orders-management-system/internal/logger"
	"github.com/vronney/orders-management-system/internal/metrics"
	"github.com/vronney/orders-management-system/internal/queue"
	"github.com/vronney/orders-management-system/internal/storage"
	"github.com/vronney/orders-management-system/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting replay worker")

	// Initialize database
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	if err := db.EnsureSchema(context.Background(), database); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Initialize repository
	repo := db.NewPostgresRepository(database)

	// Initialize Redis client
	redisClient, err := queue.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Initialize S3 storage
	s3Storage, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
	}

	reg := metrics.NewRegistry()
	coordinator := ingest.NewCoordinator(repo, reg, cfg)

	// Create replay worker
	replayWorker := worker.NewReplayWorker(cfg, coordinator, s3Storage, redisClient, reg)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker
	go func() {
		if err := replayWorker.Start(ctx); err != nil && err != context.Canceled {
			log.Fatal().Err(err).Msg("Replay worker failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down replay worker...")

	// Cancel context to stop worker
	cancel()
	replayWorker.Stop()

	log.Info().Msg("Replay worker exited")
}
