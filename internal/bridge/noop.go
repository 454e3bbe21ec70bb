package bridge

import (
	"context"
	"fmt"
	"log"

	"reply-scout/internal/models"
	"reply-scout/internal/platform"
	"reply-scout/internal/social"
)

// Noop is the collaborator set used when no bridge URL is configured: scans
// find nothing, generation refuses, and notifications go to the process log.
// It keeps a development instance runnable without a bot process.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) FetchCandidatePosts(ctx context.Context, p platform.Platform) ([]social.Post, error) {
	log.Printf("No bridge configured; %s scan returns nothing", p)
	return []social.Post{}, nil
}

func (n *Noop) GenerateReplyText(ctx context.Context, post social.Post) (string, error) {
	return "", fmt.Errorf("no bridge configured; cannot generate reply for %s", post.ID)
}

func (n *Noop) PresentForApproval(ctx context.Context, candidate *models.PendingReply) (social.PresentResult, error) {
	log.Printf("📬 Candidate %s (score %d): %s", candidate.PostID, candidate.RelevanceScore, candidate.ReplyText)
	return social.PresentResult{Success: true}, nil
}

func (n *Noop) NotifyOutcome(ctx context.Context, outcome social.Outcome) error {
	log.Printf("📣 Outcome for %s: %s %s", outcome.PostID, outcome.Kind, outcome.Detail)
	return nil
}

func (n *Noop) PostReply(ctx context.Context, candidate *models.PendingReply) (social.PostResult, error) {
	return social.PostResult{Success: false, Error: "no bridge configured"}, nil
}

func (n *Noop) CrossPost(ctx context.Context, candidate *models.PendingReply) error {
	return fmt.Errorf("no bridge configured")
}
