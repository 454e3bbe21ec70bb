package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reply-scout/internal/limiter"
	"reply-scout/internal/platform"
)

// WorkerStatusProvider is the slice of the worker service the status endpoint
// needs.
type WorkerStatusProvider interface {
	GetStatus() map[string]interface{}
}

// StatusHandler serves health and operational status.
type StatusHandler struct {
	gate   *limiter.Gate
	worker WorkerStatusProvider
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(gate *limiter.Gate, worker WorkerStatusProvider) *StatusHandler {
	return &StatusHandler{gate: gate, worker: worker}
}

// HealthCheck handles GET /health
func (h *StatusHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "reply-scout",
	})
}

// ScanStatus handles GET /api/scan/status — worker snapshot plus per-platform
// rate windows and daily post counts.
func (h *StatusHandler) ScanStatus(c *gin.Context) {
	platforms := make(map[string]interface{}, len(platform.All()))
	for _, p := range platform.All() {
		entry := gin.H{}

		window, err := h.gate.RateStatus(p)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to read rate status",
				"details": err.Error(),
			})
			return
		}
		if window != nil {
			entry["request_count"] = window.RequestCount
			entry["window_expires_at"] = window.WindowExpiresAt
		} else {
			entry["request_count"] = 0
		}
		entry["request_budget"] = p.Budget().MaxRequests

		count, err := h.gate.GetDailyPostCount(p)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to read daily count",
				"details": err.Error(),
			})
			return
		}
		entry["posts_today"] = count
		entry["daily_quota"] = platform.MaxPostsPerDay

		platforms[p.String()] = entry
	}

	c.JSON(http.StatusOK, gin.H{
		"worker":    h.worker.GetStatus(),
		"platforms": platforms,
	})
}
