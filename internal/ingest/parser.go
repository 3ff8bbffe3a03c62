package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vronney/orders-management-system/internal/model"
	apperrors "github.com/vronney/orders-management-system/pkg/errors"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Accepted order_date layouts, tried in order.
var orderDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseRow turns one raw CSV record into a validated OrderRecord.
// Constraints are checked in a fixed order and the first violation wins.
func (p *Parser) ParseRow(row []string, columnMap map[string]int) (*model.OrderRecord, error) {
	getValue := func(colName string) string {
		if idx, exists := columnMap[colName]; exists && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	orderID := getValue("order_id")
	if orderID == "" {
		return nil, apperrors.ValidationError{Field: "order_id", Message: "is required"}
	}

	customerEmail := getValue("customer_email")
	if customerEmail == "" {
		return nil, apperrors.ValidationError{Field: "customer_email", Message: "is required"}
	}

	quantityStr := getValue("quantity")
	quantity, err := strconv.Atoi(quantityStr)
	if err != nil {
		return nil, apperrors.ValidationError{Field: "quantity", Value: quantityStr, Message: "is not a valid integer"}
	}
	if quantity <= 0 {
		return nil, apperrors.ValidationError{Field: "quantity", Value: quantityStr, Message: "must be positive"}
	}

	unitPriceStr := getValue("unit_price")
	unitPrice, err := strconv.ParseFloat(unitPriceStr, 64)
	if err != nil {
		return nil, apperrors.ValidationError{Field: "unit_price", Value: unitPriceStr, Message: "is not a valid number"}
	}
	if unitPrice <= 0 {
		return nil, apperrors.ValidationError{Field: "unit_price", Value: unitPriceStr, Message: "must be positive"}
	}

	totalAmountStr := getValue("total_amount")
	totalAmount, err := strconv.ParseFloat(totalAmountStr, 64)
	if err != nil {
		return nil, apperrors.ValidationError{Field: "total_amount", Value: totalAmountStr, Message: "is not a valid number"}
	}
	if totalAmount <= 0 {
		return nil, apperrors.ValidationError{Field: "total_amount", Value: totalAmountStr, Message: "must be positive"}
	}

	if len(orderID) > 50 {
		return nil, apperrors.ValidationError{Field: "order_id", Value: orderID, Message: "must be at most 50 characters"}
	}

	customerName := getValue("customer_name")
	if customerName == "" {
		return nil, apperrors.ValidationError{Field: "customer_name", Message: "is required"}
	}

	productName := getValue("product_name")
	if productName == "" {
		return nil, apperrors.ValidationError{Field: "product_name", Message: "is required"}
	}

	if !emailPattern.MatchString(customerEmail) {
		return nil, apperrors.ValidationError{Field: "customer_email", Value: customerEmail, Message: "is not a valid email address"}
	}

	status := strings.ToLower(getValue("status"))
	if !model.ValidStatus(status) {
		return nil, apperrors.ValidationError{Field: "status", Value: status,
			Message: "must be one of: pending, processing, shipped, delivered, cancelled"}
	}

	orderDateStr := getValue("order_date")
	orderDate, err := parseOrderDate(orderDateStr)
	if err != nil {
		return nil, apperrors.ValidationError{Field: "order_date", Value: orderDateStr, Message: "is not a valid timestamp"}
	}

	return &model.OrderRecord{
		OrderID:       orderID,
		CustomerEmail: customerEmail,
		CustomerName:  customerName,
		ProductName:   productName,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		TotalAmount:   totalAmount,
		Status:        status,
		OrderDate:     orderDate,
	}, nil
}

func parseOrderDate(value string) (time.Time, error) {
	var err error
	for _, layout := range orderDateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
