package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	RowsProcessed  prometheus.Counter
	RowsCreated    prometheus.Counter
	RowsFailed     prometheus.Counter
	BatchesFlushed prometheus.Counter
	BatchesFailed  prometheus.Counter
	IngestDuration prometheus.Histogram

	HTTPRequests *prometheus.CounterVec
	ReplayJobs   *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	rowsProcessed := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_ingest_rows_processed_total"})
	rowsCreated := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_ingest_rows_created_total"})
	rowsFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_ingest_rows_failed_total"})
	batchesFlushed := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_ingest_batches_flushed_total"})
	batchesFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_ingest_batches_failed_total"})
	ingestDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orders_ingest_duration_seconds",
		Buckets: prometheus.DefBuckets,
	})

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_http_requests_total"},
		[]string{"method", "path", "status"},
	)
	replayJobs := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_replay_jobs_total"},
		[]string{"outcome"},
	)

	r.MustRegister(rowsProcessed, rowsCreated, rowsFailed, batchesFlushed, batchesFailed,
		ingestDuration, httpRequests, replayJobs)

	return &Registry{
		reg:            r,
		RowsProcessed:  rowsProcessed,
		RowsCreated:    rowsCreated,
		RowsFailed:     rowsFailed,
		BatchesFlushed: batchesFlushed,
		BatchesFailed:  batchesFailed,
		IngestDuration: ingestDuration,
		HTTPRequests:   httpRequests,
		ReplayJobs:     replayJobs,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
