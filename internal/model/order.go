package model

import "time"

// Order statuses accepted by ingestion, stored lowercase.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

var validStatuses = map[string]struct{}{
	StatusPending:    {},
	StatusProcessing: {},
	StatusShipped:    {},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// ValidStatus reports whether s is one of the allowed order statuses.
// Callers are expected to lowercase s first.
func ValidStatus(s string) bool {
	_, ok := validStatuses[s]
	return ok
}

// OrderRecord is the unit of ingestion: one parsed and validated CSV row,
// before it has been persisted. Audit fields are store-managed.
type OrderRecord struct {
	OrderID       string    `json:"order_id"`
	CustomerEmail string    `json:"customer_email"`
	CustomerName  string    `json:"customer_name"`
	ProductName   string    `json:"product_name"`
	Quantity      int       `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	TotalAmount   float64   `json:"total_amount"`
	Status        string    `json:"status"`
	OrderDate     time.Time `json:"order_date"`
}

// Order is a persisted row of the orders table.
type Order struct {
	ID            int64     `json:"id" db:"id"`
	OrderID       string    `json:"order_id" db:"order_id"`
	CustomerEmail string    `json:"customer_email" db:"customer_email"`
	CustomerName  string    `json:"customer_name" db:"customer_name"`
	ProductName   string    `json:"product_name" db:"product_name"`
	Quantity      int       `json:"quantity" db:"quantity"`
	UnitPrice     float64   `json:"unit_price" db:"unit_price"`
	TotalAmount   float64   `json:"total_amount" db:"total_amount"`
	Status        string    `json:"status" db:"status"`
	OrderDate     time.Time `json:"order_date" db:"order_date"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// OrderFilter holds the query parameters of the list and export endpoints.
type OrderFilter struct {
	CustomerEmail string
	Status        string
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	PageSize      int
}

// Offset returns the row offset for the filter's page.
func (f OrderFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type PaginatedOrders struct {
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
	Data       []Order `json:"data"`
}

type OrderStats struct {
	TotalOrders  int64            `json:"total_orders"`
	TotalRevenue float64          `json:"total_revenue"`
	ByStatus     map[string]int64 `json:"by_status"`
}
