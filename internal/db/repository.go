package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vronney/orders-management-system/internal/model"
	apperrors "github.com/vronney/orders-management-system/pkg/errors"
)

// Repository abstracts order persistence for handlers, the ingestion
// pipeline and tests.
type Repository interface {
	UpsertOrders(ctx context.Context, records []model.OrderRecord) (int, error)
	ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error)
	GetOrderByOrderID(ctx context.Context, orderID string) (*model.Order, error)
	GetOrderStats(ctx context.Context) (*model.OrderStats, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(database *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: database}
}

const orderColumns = `id, order_id, customer_name, customer_email, product_name,
	quantity, unit_price, total_amount, status, order_date, created_at, updated_at`

const upsertColumnCount = 9

// buildUpsertQuery renders a multi-row insert for n records. On an order_id
// conflict the existing row is overwritten in place, created_at excepted.
func buildUpsertQuery(n int) string {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO orders (order_id, customer_name, customer_email, product_name,
	quantity, unit_price, total_amount, status, order_date) VALUES `)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * upsertColumnCount
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
	}
	sb.WriteString(` ON CONFLICT (order_id) DO UPDATE SET
	customer_name = EXCLUDED.customer_name,
	customer_email = EXCLUDED.customer_email,
	product_name = EXCLUDED.product_name,
	quantity = EXCLUDED.quantity,
	unit_price = EXCLUDED.unit_price,
	total_amount = EXCLUDED.total_amount,
	status = EXCLUDED.status,
	order_date = EXCLUDED.order_date,
	updated_at = NOW()`)
	return sb.String()
}

// UpsertOrders writes one batch atomically. Callers must hand in records
// already deduplicated by order_id; Postgres rejects a statement that
// touches the same conflict target twice.
func (r *PostgresRepository) UpsertOrders(ctx context.Context, records []model.OrderRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	args := make([]interface{}, 0, len(records)*upsertColumnCount)
	for _, rec := range records {
		args = append(args, rec.OrderID, rec.CustomerName, rec.CustomerEmail, rec.ProductName,
			rec.Quantity, rec.UnitPrice, rec.TotalAmount, rec.Status, rec.OrderDate)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, buildUpsertQuery(len(records)), args...); err != nil {
		return 0, fmt.Errorf("failed to upsert orders: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return len(records), nil
}

// buildListFilter renders the WHERE clause and its arguments for a filter.
// An empty clause is returned when no filter field is set.
func buildListFilter(filter model.OrderFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.CustomerEmail != "" {
		args = append(args, filter.CustomerEmail)
		conditions = append(conditions, fmt.Sprintf("customer_email = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		conditions = append(conditions, fmt.Sprintf("order_date >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		conditions = append(conditions, fmt.Sprintf("order_date <= $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ListOrders returns one page of orders, newest order_date first, plus the
// total row count matching the filter.
func (r *PostgresRepository) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	where, args := buildListFilter(filter)

	var total int64
	countQuery := "SELECT COUNT(*) FROM orders" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM orders%s ORDER BY order_date DESC LIMIT $%d OFFSET $%d",
		orderColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, filter.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0, filter.PageSize)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read orders: %w", err)
	}

	return orders, total, nil
}

func (r *PostgresRepository) GetOrderByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE order_id = $1", orderColumns)
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *PostgresRepository) GetOrderStats(ctx context.Context) (*model.OrderStats, error) {
	stats := &model.OrderStats{ByStatus: make(map[string]int64)}

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(total_amount), 0) FROM orders").
		Scan(&stats.TotalOrders, &stats.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate orders: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM orders GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate order statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status row: %w", err)
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status rows: %w", err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var order model.Order
	err := row.Scan(&order.ID, &order.OrderID, &order.CustomerName, &order.CustomerEmail,
		&order.ProductName, &order.Quantity, &order.UnitPrice, &order.TotalAmount,
		&order.Status, &order.OrderDate, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &order, nil
}
