package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"reply-scout/internal/approval"
	"reply-scout/internal/auth"
	"reply-scout/internal/platform"
	"reply-scout/internal/social"
)

// WebhookHandler receives inbound decision events from the chat transport.
type WebhookHandler struct {
	workflow *approval.Workflow
	notifier social.Notifier
	verifier auth.TokenVerifier
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(workflow *approval.Workflow, notifier social.Notifier, verifier auth.TokenVerifier) *WebhookHandler {
	return &WebhookHandler{
		workflow: workflow,
		notifier: notifier,
		verifier: verifier,
	}
}

type decisionRequest struct {
	PostID   string `json:"post_id" binding:"required"`
	Platform string `json:"platform" binding:"required"`
	Action   string `json:"action" binding:"required"`
	Actor    string `json:"actor"`
}

// HandleDecision handles POST /webhook/decision. The event is acknowledged as
// soon as its shape is valid and processed afterwards; the transport layer is
// never blocked on posting, quota checks, or the store. Outcomes reach the
// operator through the notifier, so a redelivered or stale event still gets a
// visible "already handled" report instead of silence.
func (h *WebhookHandler) HandleDecision(c *gin.Context) {
	actor, ok := h.verifier.ValidateToken(c.GetHeader("Authorization"))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload", "details": err.Error()})
		return
	}

	p, err := platform.Parse(req.Platform)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := approval.ParseAction(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Actor != "" {
		actor = req.Actor
	}

	eventID := uuid.New().String()
	decision := approval.Decision{
		PostID:   req.PostID,
		Platform: p,
		Action:   action,
		Actor:    actor,
	}

	// Acknowledge first, process after.
	c.JSON(http.StatusAccepted, gin.H{
		"status":   "accepted",
		"event_id": eventID,
	})

	go h.process(eventID, decision)
}

// process applies the decision and reports the outcome to the operator
// surface.
func (h *WebhookHandler) process(eventID string, decision approval.Decision) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	outcome, err := h.workflow.Decide(ctx, decision)
	if err != nil {
		log.Printf("Decision event %s failed: %v", eventID, err)
		outcome = social.Outcome{
			Kind:     social.OutcomeDecisionFailed,
			PostID:   decision.PostID,
			Platform: decision.Platform,
			Detail:   err.Error(),
		}
	}

	if err := h.notifier.NotifyOutcome(ctx, outcome); err != nil {
		log.Printf("Failed to deliver outcome for event %s: %v", eventID, err)
	}
}
