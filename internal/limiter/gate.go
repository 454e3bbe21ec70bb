// Package limiter is the dedup and rate gate: it decides whether a scan may
// spend a request, whether a post has already been handled, and whether the
// daily posting quota has room. Every check is backed by the store so repeated
// scans stay safe across restarts.
package limiter

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reply-scout/internal/models"
	"reply-scout/internal/platform"
)

// Gate provides store-backed request, dedup, and quota checks.
type Gate struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a gate using the wall clock.
func New(db *gorm.DB) *Gate {
	return NewWithClock(db, time.Now)
}

// NewWithClock creates a gate with an injected clock for tests.
func NewWithClock(db *gorm.DB, now func() time.Time) *Gate {
	return &Gate{db: db, now: now}
}

// CanMakeRequest reports whether the platform has room left in its current
// request window. True when no window exists, the window has expired, or the
// count is under the platform's budget. Advisory only: the answer can be stale
// by the time a request is made, so callers that intend to spend a slot must
// use TryReserveRequest instead.
func (g *Gate) CanMakeRequest(p platform.Platform) (bool, error) {
	var limit models.RateLimit
	err := g.db.Where("platform = ?", p).First(&limit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read rate window for %s: %w", p, err)
	}

	now := g.now()
	if !limit.WindowExpiresAt.After(now) {
		return true, nil
	}
	return limit.RequestCount < p.Budget().MaxRequests, nil
}

// TryReserveRequest admits and counts one request against the platform's
// window in a single conditional upsert: a fresh window starts when the old
// one has expired, an unexhausted window increments, and a full window admits
// nothing (the upsert's WHERE matches no row, so RETURNING yields none). The
// check and the count are one statement, so two concurrent ticks at one slot
// below the budget cannot both be admitted.
func (g *Gate) TryReserveRequest(p platform.Platform) (bool, error) {
	now := g.now()
	budget := p.Budget()
	expires := now.Add(budget.Window)

	var count int
	res := g.db.Raw(`
		INSERT INTO rate_limits (platform, window_start_at, request_count, window_expires_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (platform) DO UPDATE SET
			request_count = CASE WHEN rate_limits.window_expires_at <= EXCLUDED.window_start_at
				THEN 1 ELSE rate_limits.request_count + 1 END,
			window_start_at = CASE WHEN rate_limits.window_expires_at <= EXCLUDED.window_start_at
				THEN EXCLUDED.window_start_at ELSE rate_limits.window_start_at END,
			window_expires_at = CASE WHEN rate_limits.window_expires_at <= EXCLUDED.window_start_at
				THEN EXCLUDED.window_expires_at ELSE rate_limits.window_expires_at END
		WHERE rate_limits.window_expires_at <= EXCLUDED.window_start_at
			OR rate_limits.request_count < ?
		RETURNING request_count
	`, p, now, expires, budget.MaxRequests).Scan(&count)
	if res.Error != nil {
		return false, fmt.Errorf("failed to reserve request for %s: %w", p, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// RateStatus returns the platform's current window row, or nil if none exists.
func (g *Gate) RateStatus(p platform.Platform) (*models.RateLimit, error) {
	var limit models.RateLimit
	err := g.db.Where("platform = ?", p).First(&limit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rate window for %s: %w", p, err)
	}
	return &limit, nil
}

// IsProcessed reports whether a non-expired processed marker exists for the
// post.
func (g *Gate) IsProcessed(postID string) (bool, error) {
	var count int64
	err := g.db.Model(&models.ProcessedPost{}).
		Where("post_id = ? AND expires_at > ?", postID, g.now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check processed marker for %s: %w", postID, err)
	}
	return count > 0, nil
}

// MarkProcessed records a dedup marker for the post. Re-marking an existing
// post refreshes its expiry.
func (g *Gate) MarkProcessed(postID string, ttl time.Duration) error {
	marker := models.ProcessedPost{
		PostID:    postID,
		ExpiresAt: g.now().Add(ttl),
	}
	err := g.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"expires_at"}),
	}).Create(&marker).Error
	if err != nil {
		return fmt.Errorf("failed to mark %s processed: %w", postID, err)
	}
	return nil
}

// GetDailyPostCount returns the platform's confirmed-post count for the
// current UTC day.
func (g *Gate) GetDailyPostCount(p platform.Platform) (int, error) {
	var row models.DailyCount
	err := g.db.Where("key = ? AND expires_at > ?", models.DailyCountKey(p, g.now()), g.now()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read daily count for %s: %w", p, err)
	}
	return row.Count, nil
}

// IncrementDailyPostCount bumps the platform's count for the current UTC day
// and returns the new value. The increment happens inside the upsert so two
// concurrent confirmations cannot both observe room under the quota.
func (g *Gate) IncrementDailyPostCount(p platform.Platform) (int, error) {
	key := models.DailyCountKey(p, g.now())
	expires := g.now().Add(models.DailyCountTTL)

	var count int
	err := g.db.Raw(`
		INSERT INTO daily_counts (key, count, expires_at)
		VALUES (?, 1, ?)
		ON CONFLICT (key) DO UPDATE SET count = daily_counts.count + 1
		RETURNING count
	`, key, expires).Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to increment daily count for %s: %w", p, err)
	}
	return count, nil
}

// CanPostToday reports whether the platform is still under its daily quota.
func (g *Gate) CanPostToday(p platform.Platform, max int) (bool, error) {
	count, err := g.GetDailyPostCount(p)
	if err != nil {
		return false, err
	}
	return count < max, nil
}

// Sweep deletes rows past their expiry in the gate's tables. Purely advisory
// cleanup: every read path re-checks expiry, so correctness never depends on
// the sweep having run.
func (g *Gate) Sweep() (int64, error) {
	now := g.now()
	var total int64

	res := g.db.Where("expires_at <= ?", now).Delete(&models.ProcessedPost{})
	if res.Error != nil {
		return total, fmt.Errorf("failed to sweep processed posts: %w", res.Error)
	}
	total += res.RowsAffected

	res = g.db.Where("expires_at <= ?", now).Delete(&models.DailyCount{})
	if res.Error != nil {
		return total, fmt.Errorf("failed to sweep daily counts: %w", res.Error)
	}
	total += res.RowsAffected

	// Rate windows are tiny (one row per platform); drop only long-stale ones.
	res = g.db.Where("window_expires_at <= ?", now.Add(-24*time.Hour)).Delete(&models.RateLimit{})
	if res.Error != nil {
		return total, fmt.Errorf("failed to sweep rate windows: %w", res.Error)
	}
	total += res.RowsAffected

	return total, nil
}
