package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vronney/orders-management-system/internal/auth"
	"github.com/vronney/orders-management-system/internal/model"
	"github.com/vronney/orders-management-system/internal/storage"
	apperrors "github.com/vronney/orders-management-system/pkg/errors"
)

// UploadOrders ingests a CSV file of orders. Partial failures are
// reported per row in the response; only unreadable payloads fail the
// whole request.
func (h *Handler) UploadOrders(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	if !strings.HasSuffix(fileHeader.Filename, ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"error": apperrors.ErrNotCSV.Error()})
		return
	}
	if fileHeader.Size > h.cfg.MaxFileSizeBytes() {
		c.JSON(http.StatusBadRequest, gin.H{"error": apperrors.ErrPayloadTooLarge.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading file"})
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading file"})
		return
	}

	report, err := h.coordinator.Run(c.Request.Context(), payload)
	if err != nil {
		if errors.Is(err, apperrors.ErrPayloadTooLarge) || errors.Is(err, apperrors.ErrInvalidEncoding) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("CSV processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing CSV"})
		return
	}

	if report.RecordsCreated > 0 && h.statsCache != nil {
		h.statsCache.Invalidate(c.Request.Context())
	}

	h.archiveUpload(fileHeader.Filename, payload)

	c.JSON(http.StatusOK, report)
}

// archiveUpload stores the raw payload in S3 off the request path so a
// slow archive never delays the upload response.
func (h *Handler) archiveUpload(filename string, payload []byte) {
	if !h.cfg.Upload.ArchiveUploads || h.storage == nil || h.archivePool == nil {
		return
	}

	key := storage.ArchiveKey(filename)
	submitted := h.archivePool.Submit(func(ctx context.Context) error {
		if err := h.storage.Upload(ctx, key, bytes.NewReader(payload)); err != nil {
			return fmt.Errorf("failed to archive upload %s: %w", key, err)
		}
		h.log.Info().Str("s3_key", key).Msg("Upload archived")
		return nil
	})
	if !submitted {
		h.log.Warn().Str("s3_key", key).Msg("Archive queue full, upload not archived")
	}
}

// ReplayUpload queues an archived upload for background re-ingestion.
func (h *Handler) ReplayUpload(c *gin.Context) {
	var req model.ReplayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.S3Key = strings.TrimSpace(req.S3Key)
	if req.S3Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "s3_key is required"})
		return
	}

	if h.storage != nil {
		exists, err := h.storage.Exists(c.Request.Context(), req.S3Key)
		if err != nil || !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "Archived upload not found"})
			return
		}
	}

	job := model.ReplayJob{S3Key: req.S3Key}
	if claims := auth.ClaimsFrom(c); claims != nil {
		job.RequestedBy = claims.Subject
	}

	if err := h.producer.EnqueueReplayJob(c.Request.Context(), job); err != nil {
		h.log.Error().Err(err).Str("s3_key", req.S3Key).Msg("Failed to enqueue replay job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue replay job"})
		return
	}

	h.metrics.ReplayJobs.WithLabelValues("enqueued").Inc()
	h.log.Info().Str("s3_key", job.S3Key).Str("requested_by", job.RequestedBy).Msg("Replay job enqueued")

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Replay job queued successfully",
		"job":     job,
	})
}
