package models

import (
	"time"

	"reply-scout/internal/platform"
)

// RateLimit tracks one platform's request window. The window is reset-on-read:
// once WindowExpiresAt passes, the next recorded request starts a fresh window
// with a count of 1.
type RateLimit struct {
	Platform        platform.Platform `json:"platform" gorm:"primaryKey"`
	WindowStartAt   time.Time         `json:"window_start_at"`
	RequestCount    int               `json:"request_count" gorm:"default:0"`
	WindowExpiresAt time.Time         `json:"window_expires_at"`
}

// TableName sets the table name for the RateLimit model
func (RateLimit) TableName() string {
	return "rate_limits"
}
