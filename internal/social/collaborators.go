package social

import (
	"context"

	"reply-scout/internal/models"
	"reply-scout/internal/platform"
)

// Scanner fetches raw posts from a platform. Implementations own auth token
// caching, request timeouts, and pagination; an error is scoped to the one
// platform for the one tick.
type Scanner interface {
	FetchCandidatePosts(ctx context.Context, p platform.Platform) ([]Post, error)
}

// Generator drafts reply text for a post. Implementations must return text
// appropriate for the post's platform (length limits included); an error skips
// that post, not the batch.
type Generator interface {
	GenerateReplyText(ctx context.Context, post Post) (string, error)
}

// PresentResult is the outcome of delivering a candidate to the operator.
type PresentResult struct {
	Success         bool
	NotificationRef string
	Error           string
}

// OutcomeKind enumerates the operator-visible results of a decision or scan
// step. The notifier must render these distinguishably; a decision that
// appears accepted but has no visible effect is never acceptable.
type OutcomeKind string

const (
	OutcomePosted         OutcomeKind = "posted"
	OutcomeQuotaBlocked   OutcomeKind = "quota_blocked"
	OutcomeDeclined       OutcomeKind = "declined"
	OutcomePostFailed     OutcomeKind = "post_failed"
	OutcomeExpired        OutcomeKind = "expired"
	OutcomeManualRequired OutcomeKind = "manual_required"
	OutcomeNotFound       OutcomeKind = "not_found"

	// OutcomeDecisionFailed reports a decision that could not be applied at
	// all (store failure), as opposed to one the platform rejected.
	OutcomeDecisionFailed OutcomeKind = "decision_failed"
)

// Outcome is a status report delivered to the operator surface.
type Outcome struct {
	Kind     OutcomeKind
	PostID   string
	Platform platform.Platform
	Detail   string
}

// Notifier is the operator-facing chat surface.
type Notifier interface {
	PresentForApproval(ctx context.Context, candidate *models.PendingReply) (PresentResult, error)
	NotifyOutcome(ctx context.Context, outcome Outcome) error
}

// PostResult is the outcome of posting a reply to a platform.
type PostResult struct {
	Success bool
	Error   string
}

// Poster publishes an approved reply to its originating platform.
type Poster interface {
	PostReply(ctx context.Context, candidate *models.PendingReply) (PostResult, error)
}

// CrossPoster mirrors an approved reply to secondary surfaces. Cross-posting
// is strictly best-effort: failures are logged and never block or reverse the
// primary posted transition.
type CrossPoster interface {
	CrossPost(ctx context.Context, candidate *models.PendingReply) error
}
