package export

import (
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vronney/orders-management-system/internal/model"
)

const sheetName = "Orders"

var headerRow = []interface{}{
	"order_id", "customer_email", "customer_name", "product_name",
	"quantity", "unit_price", "total_amount", "status", "order_date",
}

// WriteXLSX streams the orders into a single-sheet workbook. Rows keep
// the CSV ingestion column order so an exported file can be re-uploaded.
func WriteXLSX(w io.Writer, orders []model.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}

	if err := sw.SetRow("A1", headerRow); err != nil {
		return err
	}

	for i, order := range orders {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			order.OrderID, order.CustomerEmail, order.CustomerName, order.ProductName,
			order.Quantity, order.UnitPrice, order.TotalAmount, order.Status,
			order.OrderDate.Format(time.RFC3339),
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
