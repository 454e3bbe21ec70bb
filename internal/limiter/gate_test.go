package limiter

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"reply-scout/internal/models"
	"reply-scout/internal/platform"
)

func TestRateWindow_TwitterBudget(t *testing.T) {
	db := setupTestDB(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gate := NewWithClock(db, func() time.Time { return now })

	budget := platform.Twitter.Budget()
	for i := 0; i < budget.MaxRequests; i++ {
		ok, err := gate.TryReserveRequest(platform.Twitter)
		assert.NoError(t, err)
		assert.True(t, ok, "request %d should be admitted", i+1)
	}

	// Budget spent: the window admits nothing and the count stays put.
	ok, err := gate.TryReserveRequest(platform.Twitter)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = gate.CanMakeRequest(platform.Twitter)
	assert.NoError(t, err)
	assert.False(t, ok)

	status, err := gate.RateStatus(platform.Twitter)
	assert.NoError(t, err)
	if assert.NotNil(t, status) {
		assert.Equal(t, budget.MaxRequests, status.RequestCount)
	}

	// Other platforms keep their own windows.
	ok, err = gate.TryReserveRequest(platform.Reddit)
	assert.NoError(t, err)
	assert.True(t, ok)

	// Once the window expires, requests flow again and the count restarts.
	now = now.Add(budget.Window + time.Second)
	ok, err = gate.TryReserveRequest(platform.Twitter)
	assert.NoError(t, err)
	assert.True(t, ok)

	status, err = gate.RateStatus(platform.Twitter)
	assert.NoError(t, err)
	if assert.NotNil(t, status) {
		assert.Equal(t, 1, status.RequestCount)
	}
}

func TestTryReserveRequest_LastSlotContention(t *testing.T) {
	db := setupTestDB(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gate := NewWithClock(db, func() time.Time { return now })

	// Fill the window to one slot below the budget.
	budget := platform.Twitter.Budget()
	for i := 0; i < budget.MaxRequests-1; i++ {
		ok, err := gate.TryReserveRequest(platform.Twitter)
		assert.NoError(t, err)
		assert.True(t, ok)
	}

	// Two ticks race for the last slot; the reservation is one statement, so
	// exactly one is admitted and the count never exceeds the budget.
	admitted := make(chan bool, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := gate.TryReserveRequest(platform.Twitter)
			assert.NoError(t, err)
			admitted <- ok
		}()
	}
	wg.Wait()
	close(admitted)

	granted := 0
	for ok := range admitted {
		if ok {
			granted++
		}
	}
	assert.Equal(t, 1, granted)

	status, err := gate.RateStatus(platform.Twitter)
	assert.NoError(t, err)
	if assert.NotNil(t, status) {
		assert.Equal(t, budget.MaxRequests, status.RequestCount)
	}
}

func TestRateStatus_NoWindow(t *testing.T) {
	db := setupTestDB(t)
	gate := New(db)

	status, err := gate.RateStatus(platform.Instagram)
	assert.NoError(t, err)
	assert.Nil(t, status)
}

func TestProcessedMarkers_DedupAndTTL(t *testing.T) {
	db := setupTestDB(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gate := NewWithClock(db, func() time.Time { return now })

	postID := "reddit:abc123"

	processed, err := gate.IsProcessed(postID)
	assert.NoError(t, err)
	assert.False(t, processed)

	err = gate.MarkProcessed(postID, models.ProcessedPostTTL)
	assert.NoError(t, err)

	processed, err = gate.IsProcessed(postID)
	assert.NoError(t, err)
	assert.True(t, processed)

	// Marking again refreshes the expiry instead of erroring.
	err = gate.MarkProcessed(postID, models.ProcessedPostTTL)
	assert.NoError(t, err)

	// Past the TTL the marker no longer counts, even before any sweep runs.
	now = now.Add(models.ProcessedPostTTL + time.Hour)
	processed, err = gate.IsProcessed(postID)
	assert.NoError(t, err)
	assert.False(t, processed)
}

func TestDailyQuota_PerPlatform(t *testing.T) {
	db := setupTestDB(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gate := NewWithClock(db, func() time.Time { return now })

	for i := 1; i <= platform.MaxPostsPerDay; i++ {
		ok, err := gate.CanPostToday(platform.Reddit, platform.MaxPostsPerDay)
		assert.NoError(t, err)
		assert.True(t, ok, "post %d should be under quota", i)

		count, err := gate.IncrementDailyPostCount(platform.Reddit)
		assert.NoError(t, err)
		assert.Equal(t, i, count)
	}

	ok, err := gate.CanPostToday(platform.Reddit, platform.MaxPostsPerDay)
	assert.NoError(t, err)
	assert.False(t, ok)

	// Quotas are tracked per platform.
	ok, err = gate.CanPostToday(platform.Twitter, platform.MaxPostsPerDay)
	assert.NoError(t, err)
	assert.True(t, ok)

	// A new UTC day starts a fresh count.
	now = now.Add(24 * time.Hour)
	count, err := gate.GetDailyPostCount(platform.Reddit)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	ok, err = gate.CanPostToday(platform.Reddit, platform.MaxPostsPerDay)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestSweep_RemovesExpiredRows(t *testing.T) {
	db := setupTestDB(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gate := NewWithClock(db, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		err := gate.MarkProcessed(fmt.Sprintf("reddit:sweep%d", i), models.ProcessedPostTTL)
		assert.NoError(t, err)
	}
	_, err := gate.IncrementDailyPostCount(platform.Reddit)
	assert.NoError(t, err)
	ok, err := gate.TryReserveRequest(platform.Twitter)
	assert.NoError(t, err)
	assert.True(t, ok)

	// Nothing has expired yet.
	removed, err := gate.Sweep()
	assert.NoError(t, err)
	assert.Equal(t, int64(0), removed)

	// Past every TTL the sweep clears markers and counts; the stale rate
	// window goes too once it is over a day old.
	now = now.Add(8 * 24 * time.Hour)
	removed, err = gate.Sweep()
	assert.NoError(t, err)
	assert.Equal(t, int64(5), removed)
}
