package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reply-scout/internal/platform"
	"reply-scout/internal/scan"
)

// AdminHandler exposes operator maintenance actions.
type AdminHandler struct {
	orchestrator *scan.Orchestrator
	password     string
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(orchestrator *scan.Orchestrator, password string) *AdminHandler {
	return &AdminHandler{orchestrator: orchestrator, password: password}
}

// AdminAuth middleware for basic password protection
func (h *AdminHandler) AdminAuth() gin.HandlerFunc {
	return gin.BasicAuth(gin.Accounts{
		"admin": h.password,
	})
}

// TriggerScan handles POST /admin/scan/:platform — runs one scan tick for a
// single platform outside the schedule.
func (h *AdminHandler) TriggerScan(c *gin.Context) {
	p, err := platform.Parse(c.Param("platform"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.orchestrator.RunTick(c.Request.Context(), []platform.Platform{p})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Scan tick failed",
			"details": err.Error(),
			"report":  report,
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
