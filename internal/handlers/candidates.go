package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reply-scout/internal/approval"
)

// CandidatesHandler serves the operator's view of pending replies.
type CandidatesHandler struct {
	workflow *approval.Workflow
}

// NewCandidatesHandler creates a new candidates handler
func NewCandidatesHandler(workflow *approval.Workflow) *CandidatesHandler {
	return &CandidatesHandler{workflow: workflow}
}

// ListCandidates handles GET /api/candidates — all live pending replies,
// newest first.
func (h *CandidatesHandler) ListCandidates(c *gin.Context) {
	candidates, err := h.workflow.ListLive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list candidates",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":      len(candidates),
		"candidates": candidates,
	})
}

// GetCandidate handles GET /api/candidates/:id. Expired or finalized
// candidates read as not found.
func (h *CandidatesHandler) GetCandidate(c *gin.Context) {
	postID := c.Param("id")
	if postID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Candidate id required"})
		return
	}

	candidate, err := h.workflow.GetLive(postID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load candidate",
			"details": err.Error(),
		})
		return
	}
	if candidate == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Candidate not found"})
		return
	}

	c.JSON(http.StatusOK, candidate)
}
