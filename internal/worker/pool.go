package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vronney/orders-management-system/internal/logger"
)

// Job is a unit of background work. Jobs must honor ctx cancellation.
type Job func(ctx context.Context) error

// WorkerPool runs jobs on a fixed number of goroutines with a bounded
// queue. Both the upload-archive path and the replay worker run on one.
type WorkerPool struct {
	name        string
	workerCount int
	jobChan     chan Job
	wg          sync.WaitGroup
	log         zerolog.Logger
}

func NewWorkerPool(name string, workerCount int) *WorkerPool {
	return &WorkerPool{
		name:        name,
		workerCount: workerCount,
		jobChan:     make(chan Job, workerCount*2),
		log:         logger.Get().With().Str("pool", name).Logger(),
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	wp.log.Info().Int("worker_count", wp.workerCount).Msg("Starting worker pool")

	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Stop closes the queue and waits for queued jobs to finish.
func (wp *WorkerPool) Stop() {
	wp.log.Info().Msg("Stopping worker pool")
	close(wp.jobChan)
	wp.wg.Wait()
	wp.log.Info().Msg("Worker pool stopped")
}

// Submit hands a job to the pool. It reports false when the queue is
// full so the caller can park the work instead of losing it.
func (wp *WorkerPool) Submit(job Job) bool {
	select {
	case wp.jobChan <- job:
		return true
	default:
		return false
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	log := wp.log.With().Int("worker_id", id).Logger()
	log.Debug().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Worker stopping due to context cancellation")
			return
		case job, ok := <-wp.jobChan:
			if !ok {
				log.Debug().Msg("Worker stopping due to closed job channel")
				return
			}

			if err := job(ctx); err != nil {
				log.Error().Err(err).Msg("Job execution failed")
			}
		}
	}
}
