package endpoints

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"formdrop/internal/history"

	"github.com/gin-gonic/gin"
)

// HistoryLister reads back recorded uploads.
type HistoryLister interface {
	Recent(ctx context.Context, limit int) ([]history.Record, error)
}

// UploadsResponse wraps the upload history listing.
type UploadsResponse struct {
	Success bool             `json:"success"`
	Uploads []history.Record `json:"uploads,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// HandleListUploads returns the most recent uploads, newest first.
func HandleListUploads(store HistoryLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 50
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
				limit = parsed
			}
		}

		records, err := store.Recent(c.Request.Context(), limit)
		if err != nil {
			slog.Error("failed to list uploads", "error", err)
			c.JSON(http.StatusInternalServerError, UploadsResponse{
				Success: false,
				Error:   "Failed to read upload history",
			})
			return
		}

		c.JSON(http.StatusOK, UploadsResponse{
			Success: true,
			Uploads: records,
		})
	}
}
