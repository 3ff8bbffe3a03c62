package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vronney/orders-management-system/internal/config"
	"github.com/vronney/orders-management-system/internal/metrics"
	"github.com/vronney/orders-management-system/internal/model"
	apperrors "github.com/vronney/orders-management-system/pkg/errors"
)

const csvHeader = "order_id,customer_email,customer_name,product_name,quantity,unit_price,total_amount,status,order_date"

type fakeRepository struct {
	batches     [][]model.OrderRecord
	failOnCall  map[int]error
	upsertCalls int
}

func (f *fakeRepository) UpsertOrders(ctx context.Context, records []model.OrderRecord) (int, error) {
	f.upsertCalls++
	if err, ok := f.failOnCall[f.upsertCalls]; ok {
		return 0, err
	}
	f.batches = append(f.batches, records)
	return len(records), nil
}

func (f *fakeRepository) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	return nil, 0, nil
}

func (f *fakeRepository) GetOrderByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	return nil, apperrors.ErrOrderNotFound
}

func (f *fakeRepository) GetOrderStats(ctx context.Context) (*model.OrderStats, error) {
	return &model.OrderStats{}, nil
}

func testCoordinator(repo *fakeRepository, batchSize int) *Coordinator {
	cfg := &config.Config{}
	cfg.Upload.BatchSize = batchSize
	cfg.Upload.MaxFileSizeMB = 100
	cfg.Upload.MaxErrorMessages = 100
	return NewCoordinator(repo, metrics.NewRegistry(), cfg)
}

func payload(rows ...string) []byte {
	return []byte(strings.Join(append([]string{csvHeader}, rows...), "\n"))
}

func row(orderID, status string) string {
	return fmt.Sprintf("%s,alice@example.com,Alice,Widget,2,9.99,19.98,%s,2024-01-15T10:30:00", orderID, status)
}

func TestRun_EmptyPayload(t *testing.T) {
	repo := &fakeRepository{}
	c := testCoordinator(repo, 1000)

	report, err := c.Run(context.Background(), []byte{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RecordsProcessed != 0 || report.RecordsCreated != 0 || report.RecordsFailed != 0 {
		t.Fatalf("empty payload should report zeros: %+v", report)
	}
	if report.Message != "CSV processing completed" {
		t.Fatalf("unexpected message: %q", report.Message)
	}
	if repo.upsertCalls != 0 {
		t.Fatalf("store should not be touched, got %d calls", repo.upsertCalls)
	}
}

func TestRun_HeaderOnly(t *testing.T) {
	repo := &fakeRepository{}
	c := testCoordinator(repo, 1000)

	report, err := c.Run(context.Background(), payload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RecordsProcessed != 0 || repo.upsertCalls != 0 {
		t.Fatalf("header-only payload should process nothing: %+v", report)
	}
}

func TestRun_HappyPath(t *testing.T) {
	repo := &fakeRepository{}
	c := testCoordinator(repo, 1000)

	report, err := c.Run(context.Background(), payload(
		row("O1", "pending"),
		row("O2", "shipped"),
		row("O3", "delivered"),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RecordsProcessed != 3 || report.RecordsCreated != 3 || report.RecordsFailed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
	if repo.upsertCalls != 1 || len(repo.batches[0]) != 3 {
		t.Fatalf("expected one final batch of 3, got %d calls", repo.upsertCalls)
	}
}

func TestRun_CountingInvariant(t *testing.T) {
	repo := &fakeRepository{}
	c := testCoordinator(repo, 1000)

	// Three valid rows, two invalid ones, no duplicate keys.
	report, err := c.Run(context.Background(), payload(
		row("O1", "pending"),
		"O2,alice@example.com,Alice,Widget,0,9.99,19.98,pending,2024-01-15", // quantity 0
		row("O3", "shipped"),
		",alice@example.com,Alice,Widget,2,9.99,19.98,pending,2024-01-15", // no order_id
		row("O5", "cancelled"),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RecordsProcessed != 5 || report.RecordsCreated != 3 || report.RecordsFailed != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.RecordsProcessed != report.RecordsCreated+report.RecordsFailed {
		t.Fatalf("counting invariant violated: %+v", report)
	}
}

func TestRun_RowErrorsNumberedFromTwo(t *testing.T) {
	repo := &fakeRepository{}
	c := testCoordinator(repo, 1000)

	// First data row is row 2; the invalid row below is row 3.
	report, err := c.Run(context.Background(), payload(
		row("O1", "pending"),
		row("", "pending"),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("expected one error, got %v", report.Errors)
	}
	if !strings.HasPrefix(report.Errors[0], "Row 3: ") {
		t.Fatalf("unexpected error message: %q", report.Errors[0])
	}
	if !strings.Contains(report.Errors[0], "order_id is required") {
		t.Fatalf("unexpected error message: %q", report.Errors[0])
	}
}

func TestRun_DuplicateOrderIDLastWins(t *testing.T) {
	repo := &fakeRepository{}
	c := testCoordinator(repo, 1000)

	report, err := c.Run(context.Background(), payload(
		row("O1", "Pending"),
		row("O1", "shipped"),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RecordsProcessed != 2 || report.RecordsCreated != 1 || report.RecordsFailed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(repo.batches) != 1 || len(repo.batches[0]) != 1 {
		t.Fatalf("store should see one deduplicated record")
	}
	if got := repo.batches[0][0].Status; got != "shipped" {
		t.Fatalf("stored status = %q, want shipped (last row wins)", got)
	}
}

func TestRun_BatchBoundaries(t *testing.T) {
	repo := &fakeRepository{}
	c := testCoordinator(repo, 2)

	report, err := c.Run(context.Background(), payload(
		row("O1", "pending"),
		row("O2", "pending"),
		row("O3", "pending"),
		row("O4", "pending"),
		row("O5", "pending"),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RecordsCreated != 5 {
		t.Fatalf("created = %d, want 5", report.RecordsCreated)
	}
	if repo.upsertCalls != 3 {
		t.Fatalf("upsert calls = %d, want 3 (2+2+1)", repo.upsertCalls)
	}
	// Batches must arrive in row order.
	if repo.batches[0][0].OrderID != "O1" || repo.batches[2][0].OrderID != "O5" {
		t.Fatalf("batches out of order: %+v", repo.batches)
	}
}

func TestRun_BatchFailureCountsRawRows(t *testing.T) {
	repo := &fakeRepository{failOnCall: map[int]error{1: errors.New("boom")}}
	c := testCoordinator(repo, 2)

	// Two rows with the same key dedup to one record, but a failed batch
	// counts both raw rows as failed.
	report, err := c.Run(context.Background(), payload(
		row("O1", "pending"),
		row("O1", "shipped"),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RecordsProcessed != 2 || report.RecordsCreated != 0 || report.RecordsFailed != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Errors) != 1 || !strings.HasPrefix(report.Errors[0], "Batch insert failed: ") {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
}

func TestRun_FinalBatchFailure(t *testing.T) {
	repo := &fakeRepository{failOnCall: map[int]error{1: errors.New("boom")}}
	c := testCoordinator(repo, 1000)

	report, err := c.Run(context.Background(), payload(
		row("O1", "pending"),
		row("O2", "pending"),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RecordsFailed != 2 || report.RecordsCreated != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Errors) != 1 || !strings.HasPrefix(report.Errors[0], "Final batch insert failed: ") {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
}

func TestRun_PartialBatchFailure(t *testing.T) {
	// First full batch fails, the final batch succeeds.
	repo := &fakeRepository{failOnCall: map[int]error{1: errors.New("boom")}}
	c := testCoordinator(repo, 2)

	report, err := c.Run(context.Background(), payload(
		row("O1", "pending"),
		row("O2", "pending"),
		row("O3", "pending"),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RecordsProcessed != 3 || report.RecordsCreated != 1 || report.RecordsFailed != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestRun_OversizedPayload(t *testing.T) {
	repo := &fakeRepository{}
	cfg := &config.Config{}
	cfg.Upload.BatchSize = 1000
	cfg.Upload.MaxFileSizeMB = 1
	cfg.Upload.MaxErrorMessages = 100
	c := NewCoordinator(repo, metrics.NewRegistry(), cfg)

	big := make([]byte, 1<<20+1)
	_, err := c.Run(context.Background(), big)
	if !errors.Is(err, apperrors.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if repo.upsertCalls != 0 {
		t.Fatalf("oversized payload must not reach the store")
	}
}

func TestRun_StripsBOM(t *testing.T) {
	repo := &fakeRepository{}
	c := testCoordinator(repo, 1000)

	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, payload(row("O1", "pending"))...)
	report, err := c.Run(context.Background(), withBOM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RecordsCreated != 1 {
		t.Fatalf("BOM-prefixed payload should ingest: %+v", report)
	}
	if repo.batches[0][0].OrderID != "O1" {
		t.Fatalf("header with BOM was not recognized")
	}
}

func TestRun_InvalidUTF8(t *testing.T) {
	repo := &fakeRepository{}
	c := testCoordinator(repo, 1000)

	bad := append(payload(row("O1", "pending")), 0xFF, 0xFE)
	_, err := c.Run(context.Background(), bad)
	if !errors.Is(err, apperrors.ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
	if repo.upsertCalls != 0 {
		t.Fatalf("invalid encoding must not reach the store")
	}
}

func TestRun_ErrorMessagesCapped(t *testing.T) {
	repo := &fakeRepository{failOnCall: map[int]error{1: errors.New("boom")}}
	cfg := &config.Config{}
	cfg.Upload.BatchSize = 1
	cfg.Upload.MaxFileSizeMB = 100
	cfg.Upload.MaxErrorMessages = 2
	c := NewCoordinator(repo, metrics.NewRegistry(), cfg)

	// Three invalid rows but only two messages are kept; the failed batch
	// message is appended regardless of the cap.
	report, err := c.Run(context.Background(), payload(
		row("", "pending"),
		row("", "pending"),
		row("", "pending"),
		row("O1", "pending"),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RecordsFailed != 4 {
		t.Fatalf("failed = %d, want 4 (3 rows + 1 failed batch)", report.RecordsFailed)
	}
	if len(report.Errors) != 3 {
		t.Fatalf("errors = %d, want 3 (2 capped row errors + batch error)", len(report.Errors))
	}
	if !strings.HasPrefix(report.Errors[2], "Batch insert failed: ") {
		t.Fatalf("unexpected last error: %q", report.Errors[2])
	}
}

func TestRun_MissingColumnFailsRows(t *testing.T) {
	repo := &fakeRepository{}
	c := testCoordinator(repo, 1000)

	// Header without customer_name: every row fails the required check.
	header := "order_id,customer_email,product_name,quantity,unit_price,total_amount,status,order_date"
	data := header + "\nO1,alice@example.com,Widget,2,9.99,19.98,pending,2024-01-15"

	report, err := c.Run(context.Background(), []byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RecordsProcessed != 1 || report.RecordsFailed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if !strings.Contains(report.Errors[0], "customer_name is required") {
		t.Fatalf("unexpected error: %q", report.Errors[0])
	}
}

func TestRun_HeaderCaseInsensitive(t *testing.T) {
	repo := &fakeRepository{}
	c := testCoordinator(repo, 1000)

	header := "Order_ID,Customer_Email,Customer_Name,Product_Name,Quantity,Unit_Price,Total_Amount,Status,Order_Date"
	data := header + "\nO1,alice@example.com,Alice,Widget,2,9.99,19.98,pending,2024-01-15"

	report, err := c.Run(context.Background(), []byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RecordsCreated != 1 {
		t.Fatalf("mixed-case header should work: %+v", report)
	}
}
