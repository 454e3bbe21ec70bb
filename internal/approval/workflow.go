// Package approval owns the lifecycle of a reply candidate: pending until a
// human decides, then posted, declined, or expired. All legal state
// transitions live here; the store only provides durability.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reply-scout/internal/limiter"
	"reply-scout/internal/models"
	"reply-scout/internal/platform"
	"reply-scout/internal/social"
)

// Action is an inbound operator decision.
type Action string

const (
	ActionApprove             Action = "approve"
	ActionApproveAndCrosspost Action = "approve_and_crosspost"
	ActionDecline             Action = "decline"
	ActionMarkDone            Action = "mark_done"
)

// ParseAction validates a wire action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionApprove, ActionApproveAndCrosspost, ActionDecline, ActionMarkDone:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown action: %q", s)
	}
}

// Decision is one inbound decision event for one candidate.
type Decision struct {
	PostID   string
	Platform platform.Platform
	Action   Action
	Actor    string
}

// Workflow applies decisions to candidates and enforces the daily posting
// quota at decision time.
type Workflow struct {
	db          *gorm.DB
	gate        *limiter.Gate
	poster      social.Poster
	crossPoster social.CrossPoster
	notifier    social.Notifier
	now         func() time.Time

	// Decisions are serialized: webhook redeliveries and double-clicks race
	// against each other, and the conditional finalize plus this mutex keep
	// a candidate from being posted twice.
	mu sync.Mutex
}

// New creates a workflow. crossPoster may be nil when no secondary surfaces
// are configured.
func New(db *gorm.DB, gate *limiter.Gate, poster social.Poster, crossPoster social.CrossPoster, notifier social.Notifier) *Workflow {
	return NewWithClock(db, gate, poster, crossPoster, notifier, time.Now)
}

// NewWithClock creates a workflow with an injected clock for tests.
func NewWithClock(db *gorm.DB, gate *limiter.Gate, poster social.Poster, crossPoster social.CrossPoster, notifier social.Notifier, now func() time.Time) *Workflow {
	return &Workflow{
		db:          db,
		gate:        gate,
		poster:      poster,
		crossPoster: crossPoster,
		notifier:    notifier,
		now:         now,
	}
}

// CreateCandidate persists a drafted reply in pending state and presents it to
// the operator. The post id is the primary key, so re-creating a candidate for
// the same post overwrites the previous draft instead of duplicating it. A
// presentation failure leaves the candidate persisted so delivery can be
// retried.
func (w *Workflow) CreateCandidate(ctx context.Context, post social.Post, replyText string, matchedKeywords []string) (*models.PendingReply, error) {
	candidate := &models.PendingReply{
		PostID:          post.ID,
		Platform:        post.Platform,
		ReplyText:       replyText,
		OriginalPostURL: social.CanonicalizeURL(post.URL),
		AuthorHandle:    post.AuthorHandle,
		RelevanceScore:  post.RelevanceScore,
		MatchedKeywords: matchedKeywords,
		Status:          models.StatusPending,
		ExpiresAt:       w.now().Add(models.PendingReplyTTL),
	}

	err := w.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"platform", "reply_text", "original_post_url", "author_handle",
			"relevance_score", "matched_keywords", "status", "notification_ref",
			"decided_by", "decided_at", "expires_at", "updated_at",
		}),
	}).Create(candidate).Error
	if err != nil {
		return nil, fmt.Errorf("failed to persist candidate %s: %w", post.ID, err)
	}

	result, err := w.notifier.PresentForApproval(ctx, candidate)
	if err != nil || !result.Success {
		// The candidate stays in the store; the operator can still find it
		// through the pending list and decide there.
		log.Printf("Failed to present candidate %s for approval: %v %s", post.ID, err, result.Error)
		return candidate, nil
	}

	if result.NotificationRef != "" {
		if err := w.db.Model(candidate).Update("notification_ref", result.NotificationRef).Error; err != nil {
			return nil, fmt.Errorf("failed to record notification ref for %s: %w", post.ID, err)
		}
		candidate.NotificationRef = result.NotificationRef
	}

	return candidate, nil
}

// GetLive returns the candidate for the post if it is still pending and
// unexpired, nil otherwise.
func (w *Workflow) GetLive(postID string) (*models.PendingReply, error) {
	var candidate models.PendingReply
	err := w.db.Where("post_id = ?", postID).First(&candidate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate %s: %w", postID, err)
	}
	if !candidate.Live(w.now()) {
		return nil, nil
	}
	return &candidate, nil
}

// ListLive returns all pending, unexpired candidates ordered newest first.
func (w *Workflow) ListLive() ([]models.PendingReply, error) {
	var candidates []models.PendingReply
	err := w.db.
		Where("status = ? AND expires_at > ?", models.StatusPending, w.now()).
		Order("created_at DESC").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return candidates, nil
}

// Decide applies one decision event. A decision for a candidate that timed
// out reports expired; one for a missing or already-finalized candidate is a
// no-op reporting not-found. Both are acknowledged rather than erroring:
// webhook transports redeliver, and redelivery after a completed transition
// must not double-post or double-count the quota. Store failures are
// returned; everything else is expressed as an operator-visible outcome.
func (w *Workflow) Decide(ctx context.Context, d Decision) (social.Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var candidate models.PendingReply
	err := w.db.Where("post_id = ?", d.PostID).First(&candidate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return w.outcome(social.OutcomeNotFound, d.PostID, d.Platform, "no such candidate"), nil
	}
	if err != nil {
		return social.Outcome{}, fmt.Errorf("failed to load candidate %s: %w", d.PostID, err)
	}
	if !candidate.Live(w.now()) {
		if candidate.Status == models.StatusExpired ||
			(candidate.Status == models.StatusPending && !w.now().Before(candidate.ExpiresAt)) {
			detail := fmt.Sprintf("decision window of %v elapsed before a decision arrived", models.PendingReplyTTL)
			return w.outcome(social.OutcomeExpired, d.PostID, d.Platform, detail), nil
		}
		return w.outcome(social.OutcomeNotFound, d.PostID, d.Platform, "already handled"), nil
	}

	switch d.Action {
	case ActionDecline:
		return w.decline(&candidate, d.Actor)
	case ActionMarkDone:
		return w.markDone(&candidate, d.Actor)
	case ActionApprove, ActionApproveAndCrosspost:
		return w.approve(ctx, &candidate, d)
	default:
		return social.Outcome{}, fmt.Errorf("unknown action: %q", d.Action)
	}
}

// decline discards the draft. It always succeeds and never touches the quota.
func (w *Workflow) decline(candidate *models.PendingReply, actor string) (social.Outcome, error) {
	finalized, err := w.finalize(candidate, models.StatusDeclined, actor)
	if err != nil {
		return social.Outcome{}, err
	}
	if !finalized {
		return w.outcome(social.OutcomeNotFound, candidate.PostID, candidate.Platform, "already handled or expired"), nil
	}
	return w.outcome(social.OutcomeDeclined, candidate.PostID, candidate.Platform, ""), nil
}

// markDone asserts the operator posted manually. The quota tracks actual posts
// to the platform regardless of posting method, so it still increments.
func (w *Workflow) markDone(candidate *models.PendingReply, actor string) (social.Outcome, error) {
	finalized, err := w.finalize(candidate, models.StatusPosted, actor)
	if err != nil {
		return social.Outcome{}, err
	}
	if !finalized {
		return w.outcome(social.OutcomeNotFound, candidate.PostID, candidate.Platform, "already handled or expired"), nil
	}

	count, err := w.gate.IncrementDailyPostCount(candidate.Platform)
	if err != nil {
		return social.Outcome{}, err
	}

	detail := fmt.Sprintf("marked done manually (%d/%d posts today)", count, platform.MaxPostsPerDay)
	return w.outcome(social.OutcomePosted, candidate.PostID, candidate.Platform, detail), nil
}

// approve posts the reply through the platform collaborator. The quota is
// consulted first and incremented only after the collaborator confirms; a
// blocked or failed approval leaves the candidate pending so the operator can
// retry tomorrow or post manually.
func (w *Workflow) approve(ctx context.Context, candidate *models.PendingReply, d Decision) (social.Outcome, error) {
	if !candidate.Platform.SupportsAutoPosting() {
		detail := fmt.Sprintf("%s has no automated posting; post manually and use mark_done", candidate.Platform)
		return w.outcome(social.OutcomeManualRequired, candidate.PostID, candidate.Platform, detail), nil
	}

	ok, err := w.gate.CanPostToday(candidate.Platform, platform.MaxPostsPerDay)
	if err != nil {
		return social.Outcome{}, err
	}
	if !ok {
		detail := fmt.Sprintf("daily quota of %d reached for %s; candidate stays pending", platform.MaxPostsPerDay, candidate.Platform)
		return w.outcome(social.OutcomeQuotaBlocked, candidate.PostID, candidate.Platform, detail), nil
	}

	result, err := w.poster.PostReply(ctx, candidate)
	if err != nil {
		return w.outcome(social.OutcomePostFailed, candidate.PostID, candidate.Platform, err.Error()), nil
	}
	if !result.Success {
		return w.outcome(social.OutcomePostFailed, candidate.PostID, candidate.Platform, result.Error), nil
	}

	if _, err := w.gate.IncrementDailyPostCount(candidate.Platform); err != nil {
		return social.Outcome{}, err
	}

	finalized, err := w.finalize(candidate, models.StatusPosted, d.Actor)
	if err != nil {
		return social.Outcome{}, err
	}
	if !finalized {
		// Lost a race with another decision after the collaborator call.
		// The reply is out; report it rather than pretending otherwise.
		log.Printf("Candidate %s was finalized concurrently after posting", candidate.PostID)
	}

	if d.Action == ActionApproveAndCrosspost && w.crossPoster != nil {
		w.crossPostAsync(candidate)
	}

	return w.outcome(social.OutcomePosted, candidate.PostID, candidate.Platform, ""), nil
}

// crossPostAsync mirrors the reply to secondary surfaces without blocking or
// reversing the primary transition.
func (w *Workflow) crossPostAsync(candidate *models.PendingReply) {
	snapshot := *candidate
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := w.crossPoster.CrossPost(ctx, &snapshot); err != nil {
			log.Printf("Cross-post for %s failed: %v", snapshot.PostID, err)
		}
	}()
}

// finalize moves a candidate to a terminal state. The update is conditional on
// the row still being live, so a redelivered or concurrent decision finds zero
// rows instead of overwriting a completed transition.
func (w *Workflow) finalize(candidate *models.PendingReply, status models.ReplyStatus, actor string) (bool, error) {
	now := w.now()
	res := w.db.Model(&models.PendingReply{}).
		Where("post_id = ? AND status = ? AND expires_at > ?", candidate.PostID, models.StatusPending, now).
		Updates(map[string]interface{}{
			"status":     status,
			"decided_by": actor,
			"decided_at": now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to finalize candidate %s: %w", candidate.PostID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SweepExpired marks timed-out pending candidates as expired and drops
// long-finished rows. Advisory: every read already treats past-TTL rows as
// absent.
func (w *Workflow) SweepExpired() (int64, error) {
	now := w.now()

	res := w.db.Model(&models.PendingReply{}).
		Where("status = ? AND expires_at <= ?", models.StatusPending, now).
		Update("status", models.StatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire candidates: %w", res.Error)
	}
	expired := res.RowsAffected

	del := w.db.Where("expires_at <= ?", now.Add(-7*24*time.Hour)).Delete(&models.PendingReply{})
	if del.Error != nil {
		return expired, fmt.Errorf("failed to delete old candidates: %w", del.Error)
	}

	return expired + del.RowsAffected, nil
}

func (w *Workflow) outcome(kind social.OutcomeKind, postID string, p platform.Platform, detail string) social.Outcome {
	return social.Outcome{Kind: kind, PostID: postID, Platform: p, Detail: detail}
}
