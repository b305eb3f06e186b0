package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PratikDhanave/water-history-service/internal/auth"
	"github.com/PratikDhanave/water-history-service/internal/handlers"
	"github.com/PratikDhanave/water-history-service/internal/history"
	"github.com/PratikDhanave/water-history-service/internal/logging"
	"github.com/PratikDhanave/water-history-service/internal/store"
)

// NewRouter wires public endpoints and authenticated APIs.
// Public: /health
// Authenticated: /history, /device
func NewRouter(guard *auth.Guard, svc *history.Service, devices *store.DeviceStore, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"utc":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Auth group enforces the shared secret via X-API-Key.
	authGroup := r.Group("/")
	authGroup.Use(guard.Middleware())

	handlers.RegisterHistoryRoutes(authGroup, svc)
	handlers.RegisterDeviceRoutes(authGroup, devices)

	return r
}

// requestLogger assigns each request an id, attaches a request-scoped logger
// to the context, and emits one access log line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()

		reqLogger := logger.With("request_id", requestID)
		c.Request = c.Request.WithContext(logging.With(c.Request.Context(), reqLogger))
		c.Header("X-Request-ID", requestID)

		c.Next()

		reqLogger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
