package approval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"reply-scout/internal/limiter"
	"reply-scout/internal/models"
	"reply-scout/internal/platform"
	"reply-scout/internal/social"
)

type workflowFixture struct {
	workflow    *Workflow
	gate        *limiter.Gate
	poster      *mockPoster
	crossPoster *mockCrossPoster
	notifier    *mockNotifier
}

func newWorkflowFixture(db *gorm.DB, clock func() time.Time) *workflowFixture {
	poster := &mockPoster{}
	crossPoster := &mockCrossPoster{}
	notifier := &mockNotifier{}
	gate := limiter.NewWithClock(db, clock)

	return &workflowFixture{
		workflow:    NewWithClock(db, gate, poster, crossPoster, notifier, clock),
		gate:        gate,
		poster:      poster,
		crossPoster: crossPoster,
		notifier:    notifier,
	}
}

func testPost(p platform.Platform, externalID string) social.Post {
	return social.Post{
		ID:              social.PostID(p, externalID),
		Platform:        p,
		Title:           "First triathlon",
		Content:         "Any tips for race nutrition?",
		AuthorHandle:    "new_athlete",
		URL:             "https://example.com/" + externalID,
		CreatedAt:       time.Now().Add(-time.Hour),
		EngagementScore: 40,
		RelevanceScore:  85,
	}
}

func TestCreateCandidate_PersistsAndPresents(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newWorkflowFixture(db, func() time.Time { return now })

	f.notifier.On("PresentForApproval", mock.Anything, mock.Anything).
		Return(social.PresentResult{Success: true, NotificationRef: "msg-100"}, nil).Once()

	post := testPost(platform.Reddit, "cand1")
	candidate, err := f.workflow.CreateCandidate(context.Background(), post, "Congrats! Start with...", []string{"triathlon"})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPending, candidate.Status)
	assert.Equal(t, "msg-100", candidate.NotificationRef)

	live, err := f.workflow.GetLive(post.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, live) {
		assert.Equal(t, "Congrats! Start with...", live.ReplyText)
		assert.Equal(t, now.Add(models.PendingReplyTTL), live.ExpiresAt.UTC())
	}

	f.notifier.AssertExpectations(t)
}

func TestCreateCandidate_UpsertKeepsOnePerPost(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newWorkflowFixture(db, func() time.Time { return now })

	f.notifier.On("PresentForApproval", mock.Anything, mock.Anything).
		Return(social.PresentResult{Success: true}, nil).Twice()

	post := testPost(platform.Reddit, "cand2")
	_, err := f.workflow.CreateCandidate(context.Background(), post, "first draft", nil)
	assert.NoError(t, err)
	_, err = f.workflow.CreateCandidate(context.Background(), post, "second draft", nil)
	assert.NoError(t, err)

	var count int64
	db.Model(&models.PendingReply{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	live, err := f.workflow.GetLive(post.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, live) {
		assert.Equal(t, "second draft", live.ReplyText)
	}
}

func TestCreateCandidate_PresentFailureKeepsCandidate(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newWorkflowFixture(db, func() time.Time { return now })

	f.notifier.On("PresentForApproval", mock.Anything, mock.Anything).
		Return(social.PresentResult{Success: false, Error: "chat unreachable"}, nil).Once()

	post := testPost(platform.Twitter, "cand3")
	candidate, err := f.workflow.CreateCandidate(context.Background(), post, "draft", nil)
	assert.NoError(t, err)
	assert.NotNil(t, candidate)

	live, err := f.workflow.GetLive(post.ID)
	assert.NoError(t, err)
	assert.NotNil(t, live)
}

func TestDecide_DeclineIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newWorkflowFixture(db, func() time.Time { return now })

	f.notifier.On("PresentForApproval", mock.Anything, mock.Anything).
		Return(social.PresentResult{Success: true}, nil).Once()

	post := testPost(platform.Reddit, "decl1")
	_, err := f.workflow.CreateCandidate(context.Background(), post, "draft", nil)
	assert.NoError(t, err)

	decision := Decision{PostID: post.ID, Platform: post.Platform, Action: ActionDecline, Actor: "operator"}

	outcome, err := f.workflow.Decide(context.Background(), decision)
	assert.NoError(t, err)
	assert.Equal(t, social.OutcomeDeclined, outcome.Kind)

	// Quota is untouched by a decline.
	count, err := f.gate.GetDailyPostCount(post.Platform)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	// A redelivered decline acknowledges without doing anything.
	outcome, err = f.workflow.Decide(context.Background(), decision)
	assert.NoError(t, err)
	assert.Equal(t, social.OutcomeNotFound, outcome.Kind)
}

func TestDecide_UnknownCandidate(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newWorkflowFixture(db, func() time.Time { return now })

	outcome, err := f.workflow.Decide(context.Background(), Decision{
		PostID:   "reddit:never-created",
		Platform: platform.Reddit,
		Action:   ActionApprove,
		Actor:    "operator",
	})
	assert.NoError(t, err)
	assert.Equal(t, social.OutcomeNotFound, outcome.Kind)
}

func TestDecide_ApproveSuccess(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newWorkflowFixture(db, func() time.Time { return now })

	f.notifier.On("PresentForApproval", mock.Anything, mock.Anything).
		Return(social.PresentResult{Success: true}, nil).Once()
	f.poster.On("PostReply", mock.Anything, mock.Anything).
		Return(social.PostResult{Success: true}, nil).Once()

	post := testPost(platform.Reddit, "appr1")
	_, err := f.workflow.CreateCandidate(context.Background(), post, "draft", nil)
	assert.NoError(t, err)

	decision := Decision{PostID: post.ID, Platform: post.Platform, Action: ActionApprove, Actor: "operator"}

	outcome, err := f.workflow.Decide(context.Background(), decision)
	assert.NoError(t, err)
	assert.Equal(t, social.OutcomePosted, outcome.Kind)

	count, err := f.gate.GetDailyPostCount(post.Platform)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	// The candidate is no longer live; a redelivery must not post again.
	outcome, err = f.workflow.Decide(context.Background(), decision)
	assert.NoError(t, err)
	assert.Equal(t, social.OutcomeNotFound, outcome.Kind)

	count, err = f.gate.GetDailyPostCount(post.Platform)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	f.poster.AssertNumberOfCalls(t, "PostReply", 1)
}

func TestDecide_ApproveQuotaBlocked(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newWorkflowFixture(db, func() time.Time { return now })

	f.notifier.On("PresentForApproval", mock.Anything, mock.Anything).
		Return(social.PresentResult{Success: true}, nil).Once()

	for i := 0; i < platform.MaxPostsPerDay; i++ {
		_, err := f.gate.IncrementDailyPostCount(platform.Reddit)
		assert.NoError(t, err)
	}

	post := testPost(platform.Reddit, "quota1")
	_, err := f.workflow.CreateCandidate(context.Background(), post, "draft", nil)
	assert.NoError(t, err)

	outcome, err := f.workflow.Decide(context.Background(), Decision{
		PostID: post.ID, Platform: post.Platform, Action: ActionApprove, Actor: "operator",
	})
	assert.NoError(t, err)
	assert.Equal(t, social.OutcomeQuotaBlocked, outcome.Kind)

	// Blocked approval leaves the candidate pending and never reaches the
	// platform.
	live, err := f.workflow.GetLive(post.ID)
	assert.NoError(t, err)
	assert.NotNil(t, live)
	f.poster.AssertNumberOfCalls(t, "PostReply", 0)

	count, err := f.gate.GetDailyPostCount(post.Platform)
	assert.NoError(t, err)
	assert.Equal(t, platform.MaxPostsPerDay, count)
}

func TestDecide_ApprovePosterFailure(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newWorkflowFixture(db, func() time.Time { return now })

	f.notifier.On("PresentForApproval", mock.Anything, mock.Anything).
		Return(social.PresentResult{Success: true}, nil).Once()
	f.poster.On("PostReply", mock.Anything, mock.Anything).
		Return(social.PostResult{Success: false, Error: "rate limited upstream"}, nil).Once()

	post := testPost(platform.Twitter, "fail1")
	_, err := f.workflow.CreateCandidate(context.Background(), post, "draft", nil)
	assert.NoError(t, err)

	outcome, err := f.workflow.Decide(context.Background(), Decision{
		PostID: post.ID, Platform: post.Platform, Action: ActionApprove, Actor: "operator",
	})
	assert.NoError(t, err)
	assert.Equal(t, social.OutcomePostFailed, outcome.Kind)
	assert.Contains(t, outcome.Detail, "rate limited upstream")

	// A failed post consumes no quota and the candidate survives for a retry.
	count, err := f.gate.GetDailyPostCount(post.Platform)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	live, err := f.workflow.GetLive(post.ID)
	assert.NoError(t, err)
	assert.NotNil(t, live)
}

func TestDecide_ApproveManualOnlyPlatform(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newWorkflowFixture(db, func() time.Time { return now })

	f.notifier.On("PresentForApproval", mock.Anything, mock.Anything).
		Return(social.PresentResult{Success: true}, nil).Once()

	post := testPost(platform.Instagram, "insta1")
	_, err := f.workflow.CreateCandidate(context.Background(), post, "draft", nil)
	assert.NoError(t, err)

	outcome, err := f.workflow.Decide(context.Background(), Decision{
		PostID: post.ID, Platform: post.Platform, Action: ActionApprove, Actor: "operator",
	})
	assert.NoError(t, err)
	assert.Equal(t, social.OutcomeManualRequired, outcome.Kind)
	f.poster.AssertNumberOfCalls(t, "PostReply", 0)

	live, err := f.workflow.GetLive(post.ID)
	assert.NoError(t, err)
	assert.NotNil(t, live)
}

func TestDecide_MarkDoneCountsTowardQuota(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newWorkflowFixture(db, func() time.Time { return now })

	f.notifier.On("PresentForApproval", mock.Anything, mock.Anything).
		Return(social.PresentResult{Success: true}, nil).Once()

	post := testPost(platform.Instagram, "done1")
	_, err := f.workflow.CreateCandidate(context.Background(), post, "draft", nil)
	assert.NoError(t, err)

	outcome, err := f.workflow.Decide(context.Background(), Decision{
		PostID: post.ID, Platform: post.Platform, Action: ActionMarkDone, Actor: "operator",
	})
	assert.NoError(t, err)
	assert.Equal(t, social.OutcomePosted, outcome.Kind)
	f.poster.AssertNumberOfCalls(t, "PostReply", 0)

	count, err := f.gate.GetDailyPostCount(post.Platform)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDecide_ApproveAndCrosspost(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newWorkflowFixture(db, func() time.Time { return now })

	f.notifier.On("PresentForApproval", mock.Anything, mock.Anything).
		Return(social.PresentResult{Success: true}, nil).Once()
	f.poster.On("PostReply", mock.Anything, mock.Anything).
		Return(social.PostResult{Success: true}, nil).Once()

	crossPosted := make(chan string, 1)
	f.crossPoster.On("CrossPost", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			crossPosted <- args.Get(1).(*models.PendingReply).PostID
		}).
		Return(nil).Once()

	post := testPost(platform.Reddit, "cross1")
	_, err := f.workflow.CreateCandidate(context.Background(), post, "draft", nil)
	assert.NoError(t, err)

	outcome, err := f.workflow.Decide(context.Background(), Decision{
		PostID: post.ID, Platform: post.Platform, Action: ActionApproveAndCrosspost, Actor: "operator",
	})
	assert.NoError(t, err)
	assert.Equal(t, social.OutcomePosted, outcome.Kind)

	select {
	case id := <-crossPosted:
		assert.Equal(t, post.ID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("cross-post was never attempted")
	}
}

func TestExpiry_PendingCandidateTimesOut(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newWorkflowFixture(db, func() time.Time { return now })

	f.notifier.On("PresentForApproval", mock.Anything, mock.Anything).
		Return(social.PresentResult{Success: true}, nil).Once()

	post := testPost(platform.Reddit, "exp1")
	_, err := f.workflow.CreateCandidate(context.Background(), post, "draft", nil)
	assert.NoError(t, err)

	now = now.Add(models.PendingReplyTTL + time.Hour)

	// Past the TTL the candidate is gone from every read path.
	live, err := f.workflow.GetLive(post.ID)
	assert.NoError(t, err)
	assert.Nil(t, live)

	listed, err := f.workflow.ListLive()
	assert.NoError(t, err)
	assert.Empty(t, listed)

	// A late decision is acknowledged as expired, not as missing, so the
	// operator learns the candidate timed out.
	outcome, err := f.workflow.Decide(context.Background(), Decision{
		PostID: post.ID, Platform: post.Platform, Action: ActionApprove, Actor: "operator",
	})
	assert.NoError(t, err)
	assert.Equal(t, social.OutcomeExpired, outcome.Kind)
	f.poster.AssertNumberOfCalls(t, "PostReply", 0)

	// The sweep records the terminal state; a decision arriving after it
	// still reads as expired.
	swept, err := f.workflow.SweepExpired()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	var row models.PendingReply
	assert.NoError(t, db.Where("post_id = ?", post.ID).First(&row).Error)
	assert.Equal(t, models.StatusExpired, row.Status)

	outcome, err = f.workflow.Decide(context.Background(), Decision{
		PostID: post.ID, Platform: post.Platform, Action: ActionDecline, Actor: "operator",
	})
	assert.NoError(t, err)
	assert.Equal(t, social.OutcomeExpired, outcome.Kind)
}

func TestSweepExpired_DeletesOldRows(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newWorkflowFixture(db, func() time.Time { return now })

	f.notifier.On("PresentForApproval", mock.Anything, mock.Anything).
		Return(social.PresentResult{Success: true}, nil).Once()

	post := testPost(platform.Reddit, "old1")
	_, err := f.workflow.CreateCandidate(context.Background(), post, "draft", nil)
	assert.NoError(t, err)

	// First sweep after the TTL marks it expired; a sweep a week later
	// deletes the row outright.
	now = now.Add(models.PendingReplyTTL + time.Hour)
	_, err = f.workflow.SweepExpired()
	assert.NoError(t, err)

	now = now.Add(8 * 24 * time.Hour)
	swept, err := f.workflow.SweepExpired()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	var count int64
	db.Model(&models.PendingReply{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}
