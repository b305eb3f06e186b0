package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/m-mizutani/goerr/v2"

	"github.com/PratikDhanave/water-history-service/internal/history"
	"github.com/PratikDhanave/water-history-service/internal/logging"
	"github.com/PratikDhanave/water-history-service/internal/models"
)

// RegisterHistoryRoutes registers the ingestion-path endpoint.
//
// POST /history
//   - Requires X-API-Key (enforced by the surrounding route group)
//   - Durable: returns only after the log append completes
//   - Idempotent: duplicates detected via (device, timestamp, amount) keys,
//     skipped silently and excluded from the saved count
func RegisterHistoryRoutes(r gin.IRoutes, svc *history.Service) {
	r.POST("/history", func(c *gin.Context) {
		var req models.HistoryPayload
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		saved, err := svc.Ingest(c.Request.Context(), req.DeviceID, req.Entries)
		if err != nil {
			status, message := ingestStatus(err)
			if status == http.StatusInternalServerError {
				logging.From(c.Request.Context()).Error("history ingestion failed", "error", err)
			}
			c.JSON(status, gin.H{"error": message})
			return
		}

		c.JSON(http.StatusOK, models.HistoryResponse{Saved: saved})
	})
}

// ingestStatus maps an ingestion error to a status code and response body.
// Validation details go back to the caller; storage failures stay opaque.
func ingestStatus(err error) (int, string) {
	switch {
	case goerr.HasTag(err, history.TagTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case goerr.HasTag(err, history.TagValidation):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "storage failure"
	}
}
