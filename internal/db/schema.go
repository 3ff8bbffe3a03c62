package db

import (
	"context"
	"database/sql"
	"fmt"
)

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
    id BIGSERIAL PRIMARY KEY,
    order_id VARCHAR(50) NOT NULL UNIQUE,
    customer_name VARCHAR(100) NOT NULL,
    customer_email VARCHAR(255) NOT NULL,
    product_name VARCHAR(500) NOT NULL,
    quantity INTEGER NOT NULL,
    unit_price DOUBLE PRECISION NOT NULL,
    total_amount DOUBLE PRECISION NOT NULL,
    status VARCHAR(50) NOT NULL,
    order_date TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var createOrderIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_orders_customer_email ON orders (customer_email)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_order_date ON orders (order_date)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_order_date_status ON orders (order_date, status)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_customer_email_order_date ON orders (customer_email, order_date)`,
}

// EnsureSchema creates the orders table and its indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, database *sql.DB) error {
	if _, err := database.ExecContext(ctx, createOrdersTable); err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}
	for _, stmt := range createOrderIndexes {
		if _, err := database.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
