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

	"github.com/vronney/orders-management-system/internal/api"
	"github.com/vronney/orders-management-system/internal/auth"
	"github.com/vronney/orders-management-system/internal/cache"
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

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().Str("version", cfg.App.Version).Msg("Starting API server")

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

	producer := queue.NewProducer(redisClient, cfg)
	statsCache := cache.NewStatsCache(redisClient, cfg.StatsCacheTTL())

	// Initialize S3 storage for upload archival and replays
	s3Storage, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
	}

	reg := metrics.NewRegistry()
	coordinator := ingest.NewCoordinator(repo, reg, cfg)

	// Background pool for archiving uploads off the request path
	archivePool := worker.NewWorkerPool("archive", cfg.Workers.Archive.Count)
	poolCtx, poolCancel := context.WithCancel(context.Background())
	defer poolCancel()
	archivePool.Start(poolCtx)

	authService := auth.NewService(cfg)

	// Initialize API handler
	handler := api.NewHandler(repo, coordinator, authService, statsCache, producer,
		s3Storage, archivePool, reg, cfg)

	// Setup Gin router
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(api.CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(api.LoggingMiddleware())
	router.Use(api.MetricsMiddleware(reg))
	router.Use(api.RecoveryMiddleware())

	// Setup routes
	api.SetupRoutes(router, handler, authService, reg)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	// Shutdown server
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Drain pending archive jobs before exit
	archivePool.Stop()

	log.Info().Msg("Server exited")
}
