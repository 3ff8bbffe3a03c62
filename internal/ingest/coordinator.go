package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vronney/orders-management-system/internal/config"
	"github.com/vronney/orders-management-system/internal/db"
	"github.com/vronney/orders-management-system/internal/logger"
	"github.com/vronney/orders-management-system/internal/metrics"
	"github.com/vronney/orders-management-system/internal/model"
	apperrors "github.com/vronney/orders-management-system/pkg/errors"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// Coordinator drives one CSV payload through parse, validate, dedup and
// batched upsert, keeping per-row accounting as it goes.
type Coordinator struct {
	repo        db.Repository
	parser      *Parser
	metrics     *metrics.Registry
	batchSize   int
	maxFileSize int64
	maxErrors   int
}

func NewCoordinator(repo db.Repository, reg *metrics.Registry, cfg *config.Config) *Coordinator {
	return &Coordinator{
		repo:        repo,
		parser:      NewParser(),
		metrics:     reg,
		batchSize:   cfg.Upload.BatchSize,
		maxFileSize: cfg.MaxFileSizeBytes(),
		maxErrors:   cfg.Upload.MaxErrorMessages,
	}
}

// Run processes one CSV payload end to end. Oversized or non-UTF-8 payloads
// fail outright with nothing processed; row and batch failures are
// accumulated into the report and processing continues.
func (c *Coordinator) Run(ctx context.Context, payload []byte) (*model.UploadReport, error) {
	start := time.Now()
	defer func() {
		c.metrics.IngestDuration.Observe(time.Since(start).Seconds())
	}()

	if int64(len(payload)) > c.maxFileSize {
		return nil, apperrors.ErrPayloadTooLarge
	}
	payload = bytes.TrimPrefix(payload, bomUTF8)
	if !utf8.Valid(payload) {
		return nil, apperrors.ErrInvalidEncoding
	}

	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	report := &model.UploadReport{Message: "CSV processing completed"}

	header, err := reader.Read()
	if err == io.EOF {
		return report, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columnMap := make(map[string]int, len(header))
	for i, col := range header {
		columnMap[strings.ToLower(strings.TrimSpace(col))] = i
	}

	acc := NewAccumulator(c.batchSize)
	for rowNum := 2; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}

		report.RecordsProcessed++
		c.metrics.RowsProcessed.Inc()

		if err != nil {
			c.recordRowError(report, rowNum, err)
			continue
		}

		record, err := c.parser.ParseRow(row, columnMap)
		if err != nil {
			c.recordRowError(report, rowNum, err)
			continue
		}

		acc.Add(*record)
		if acc.ShouldFlush() {
			c.flush(ctx, acc, report, false)
		}
	}

	if acc.Len() > 0 {
		c.flush(ctx, acc, report, true)
	}

	logger.Get().Info().
		Int("records_processed", report.RecordsProcessed).
		Int("records_created", report.RecordsCreated).
		Int("records_failed", report.RecordsFailed).
		Msg("CSV upload completed")

	return report, nil
}

func (c *Coordinator) recordRowError(report *model.UploadReport, rowNum int, err error) {
	report.RecordsFailed++
	c.metrics.RowsFailed.Inc()
	if len(report.Errors) < c.maxErrors {
		report.Errors = append(report.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
	}
}

// flush drains the accumulator and upserts the deduplicated batch in one
// transaction. A failed batch counts every buffered record, duplicates
// included, as failed.
func (c *Coordinator) flush(ctx context.Context, acc *Accumulator, report *model.UploadReport, final bool) {
	pending := acc.Len()
	batch := acc.DrainDeduplicated()

	created, err := c.repo.UpsertOrders(ctx, batch)
	if err != nil {
		report.RecordsFailed += pending
		c.metrics.RowsFailed.Add(float64(pending))
		c.metrics.BatchesFailed.Inc()

		label := "Batch insert failed"
		if final {
			label = "Final batch insert failed"
		}
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", label, err))

		logger.Get().Error().Err(err).Int("records", pending).Msg("Batch upsert failed")
		return
	}

	report.RecordsCreated += created
	c.metrics.RowsCreated.Add(float64(created))
	c.metrics.BatchesFlushed.Inc()
}
