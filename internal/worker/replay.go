package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/vronney/orders-management-system/internal/config"
	"github.com/vronney/orders-management-system/internal/ingest"
	"github.com/vronney/orders-management-system/internal/logger"
	"github.com/vronney/orders-management-system/internal/metrics"
	"github.com/vronney/orders-management-system/internal/model"
	"github.com/vronney/orders-management-system/internal/queue"
	"github.com/vronney/orders-management-system/internal/storage"
)

// ReplayWorker re-runs archived CSV uploads through the ingestion
// pipeline. Jobs arrive on the replay queue; payloads come from S3.
type ReplayWorker struct {
	cfg         *config.Config
	coordinator *ingest.Coordinator
	storage     storage.Storage
	consumer    *queue.Consumer
	workerPool  *WorkerPool
	metrics     *metrics.Registry
	log         zerolog.Logger
}

func NewReplayWorker(
	cfg *config.Config,
	coordinator *ingest.Coordinator,
	store storage.Storage,
	client *redis.Client,
	reg *metrics.Registry,
) *ReplayWorker {
	return &ReplayWorker{
		cfg:         cfg,
		coordinator: coordinator,
		storage:     store,
		consumer:    queue.NewConsumer(client, cfg),
		workerPool:  NewWorkerPool("replay", cfg.Workers.Replay.Count),
		metrics:     reg,
		log:         logger.Get(),
	}
}

func (w *ReplayWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("Starting replay worker")

	w.workerPool.Start(ctx)

	return w.consumer.ConsumeReplayQueue(ctx, w.handleMessage)
}

func (w *ReplayWorker) Stop() {
	w.log.Info().Msg("Stopping replay worker")
	w.workerPool.Stop()
}

// handleMessage parks undecodable or unsubmittable jobs by returning an
// error, which routes the raw message to the DLQ.
func (w *ReplayWorker) handleMessage(ctx context.Context, data []byte) error {
	var job model.ReplayJob
	if err := json.Unmarshal(data, &job); err != nil {
		w.log.Error().Err(err).Msg("Failed to unmarshal replay job")
		return err
	}

	w.log.Info().Str("s3_key", job.S3Key).Str("requested_by", job.RequestedBy).Msg("Processing replay job")

	submitted := w.workerPool.Submit(func(ctx context.Context) error {
		return w.processReplay(ctx, job)
	})
	if !submitted {
		return fmt.Errorf("replay worker pool is full")
	}

	return nil
}

func (w *ReplayWorker) processReplay(ctx context.Context, job model.ReplayJob) error {
	log := w.log.With().Str("s3_key", job.S3Key).Logger()

	log.Debug().Msg("Downloading archived upload from S3")
	reader, err := w.storage.Download(ctx, job.S3Key)
	if err != nil {
		log.Error().Err(err).Msg("Failed to download archived upload")
		w.metrics.ReplayJobs.WithLabelValues("failed").Inc()
		return err
	}
	defer reader.Close()

	payload, err := io.ReadAll(reader)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read archived upload")
		w.metrics.ReplayJobs.WithLabelValues("failed").Inc()
		return err
	}

	report, err := w.coordinator.Run(ctx, payload)
	if err != nil {
		log.Error().Err(err).Msg("Replay ingestion failed")
		w.metrics.ReplayJobs.WithLabelValues("failed").Inc()
		return err
	}

	w.metrics.ReplayJobs.WithLabelValues("completed").Inc()
	log.Info().
		Int("records_processed", report.RecordsProcessed).
		Int("records_created", report.RecordsCreated).
		Int("records_failed", report.RecordsFailed).
		Msg("Replay completed")

	return nil
}
