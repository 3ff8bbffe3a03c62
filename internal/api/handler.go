package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vronney/orders-management-system/internal/auth"
	"github.com/vronney/orders-management-system/internal/cache"
	"github.com/vronney/orders-management-system/internal/config"
	"github.com/vronney/orders-management-system/internal/db"
	"github.com/vronney/orders-management-system/internal/ingest"
	"github.com/vronney/orders-management-system/internal/logger"
	"github.com/vronney/orders-management-system/internal/metrics"
	"github.com/vronney/orders-management-system/internal/model"
	"github.com/vronney/orders-management-system/internal/storage"
	"github.com/vronney/orders-management-system/internal/worker"
)

// ReplayEnqueuer schedules archived uploads for background re-ingestion.
type ReplayEnqueuer interface {
	EnqueueReplayJob(ctx context.Context, job model.ReplayJob) error
}

type Handler struct {
	repo        db.Repository
	coordinator *ingest.Coordinator
	authService *auth.Service
	statsCache  *cache.StatsCache
	producer    ReplayEnqueuer
	storage     storage.Storage
	archivePool *worker.WorkerPool
	metrics     *metrics.Registry
	cfg         *config.Config
	log         zerolog.Logger
}

func NewHandler(
	repo db.Repository,
	coordinator *ingest.Coordinator,
	authService *auth.Service,
	statsCache *cache.StatsCache,
	producer ReplayEnqueuer,
	store storage.Storage,
	archivePool *worker.WorkerPool,
	reg *metrics.Registry,
	cfg *config.Config,
) *Handler {
	return &Handler{
		repo:        repo,
		coordinator: coordinator,
		authService: authService,
		statsCache:  statsCache,
		producer:    producer,
		storage:     store,
		archivePool: archivePool,
		metrics:     reg,
		cfg:         cfg,
		log:         logger.Get(),
	}
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Orders Management API",
		"version": h.cfg.App.Version,
		"endpoints": gin.H{
			"auth":    "/api/auth/login",
			"orders":  "/api/orders",
			"upload":  "/api/upload/orders (admin only)",
			"metrics": "/metrics",
		},
	})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
	})
}
