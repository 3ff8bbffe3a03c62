package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vronney/orders-management-system/internal/export"
	"github.com/vronney/orders-management-system/internal/model"
	apperrors "github.com/vronney/orders-management-system/pkg/errors"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

var filterDateLayouts = []string{time.RFC3339, "2006-01-02"}

func (h *Handler) ListOrders(c *gin.Context) {
	filter, err := parseOrderFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orders, total, err := h.repo.ListOrders(c.Request.Context(), *filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list orders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	totalPages := int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	c.JSON(http.StatusOK, model.PaginatedOrders{
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
		Data:       orders,
	})
}

func (h *Handler) GetOrder(c *gin.Context) {
	orderID := c.Param("order_id")

	order, err := h.repo.GetOrderByOrderID(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		h.log.Error().Err(err).Str("order_id", orderID).Msg("Failed to get order")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) GetOrderStats(c *gin.Context) {
	ctx := c.Request.Context()

	if h.statsCache != nil {
		if stats := h.statsCache.Get(ctx); stats != nil {
			c.JSON(http.StatusOK, stats)
			return
		}
	}

	stats, err := h.repo.GetOrderStats(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get order stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if h.statsCache != nil {
		h.statsCache.Set(ctx, stats)
	}

	c.JSON(http.StatusOK, stats)
}

// ExportOrders streams matching orders as an XLSX workbook. The result
// is capped by the configured export limit rather than paginated.
func (h *Handler) ExportOrders(c *gin.Context) {
	filter, err := parseOrderFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter.Page = 1
	filter.PageSize = h.cfg.Upload.ExportLimit

	orders, _, err := h.repo.ListOrders(c.Request.Context(), *filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to export orders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="orders.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)

	if err := export.WriteXLSX(c.Writer, orders); err != nil {
		h.log.Error().Err(err).Msg("Failed to write export")
	}
}

func parseOrderFilter(c *gin.Context) (*model.OrderFilter, error) {
	filter := model.OrderFilter{Page: 1, PageSize: defaultPageSize}

	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return nil, fmt.Errorf("page must be a positive integer")
		}
		filter.Page = page
	}
	if v := c.Query("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 || size > maxPageSize {
			return nil, fmt.Errorf("page_size must be between 1 and %d", maxPageSize)
		}
		filter.PageSize = size
	}

	filter.CustomerEmail = strings.TrimSpace(c.Query("customer_email"))
	filter.Status = strings.ToLower(strings.TrimSpace(c.Query("status")))

	if v := c.Query("start_date"); v != "" {
		t, err := parseFilterDate(v)
		if err != nil {
			return nil, fmt.Errorf("start_date must be an ISO-8601 timestamp")
		}
		filter.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := parseFilterDate(v)
		if err != nil {
			return nil, fmt.Errorf("end_date must be an ISO-8601 timestamp")
		}
		filter.EndDate = &t
	}

	return &filter, nil
}

func parseFilterDate(value string) (time.Time, error) {
	var err error
	for _, layout := range filterDateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
