package models

import (
	"fmt"
	"time"

	"reply-scout/internal/platform"
)

// DailyCountTTL keeps yesterday's row around briefly so the table self-cleans
// without a dedicated job.
const DailyCountTTL = 48 * time.Hour

// DailyCount is one platform's confirmed-post count for one UTC calendar day.
// It only ever increments on a confirmed post (automated or mark-done), never
// on candidate creation.
type DailyCount struct {
	Key       string    `json:"key" gorm:"primaryKey"` // "platform:YYYY-MM-DD"
	Count     int       `json:"count" gorm:"default:0"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}

// TableName sets the table name for the DailyCount model
func (DailyCount) TableName() string {
	return "daily_counts"
}

// DailyCountKey builds the UTC-normalized key for a platform and moment.
func DailyCountKey(p platform.Platform, now time.Time) string {
	return fmt.Sprintf("%s:%s", p, now.UTC().Format("2006-01-02"))
}
