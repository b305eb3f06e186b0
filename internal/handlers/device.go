package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/water-history-service/internal/logging"
	"github.com/PratikDhanave/water-history-service/internal/models"
	"github.com/PratikDhanave/water-history-service/internal/store"
)

// RegisterDeviceRoutes registers the device-metadata endpoint.
//
// POST /device appends one metadata record per call; no dedup, the list is
// an audit trail of sync-time device snapshots.
func RegisterDeviceRoutes(r gin.IRoutes, devices *store.DeviceStore) {
	r.POST("/device", func(c *gin.Context) {
		var req models.DevicePayload
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		record := models.DeviceRecord{
			DevicePayload: req,
			ReceivedUTC:   time.Now().UTC().Format(time.RFC3339),
		}
		if err := devices.Append(record); err != nil {
			logging.From(c.Request.Context()).Error("device record write failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
			return
		}

		c.JSON(http.StatusOK, models.DeviceResponse{Saved: 1})
	})
}
