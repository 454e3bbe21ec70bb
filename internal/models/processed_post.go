package models

import (
	"time"
)

// ProcessedPostTTL bounds how long a dedup marker is honored. Long enough to
// cover the scan cadence, short enough to bound table growth.
const ProcessedPostTTL = 7 * 24 * time.Hour

// ProcessedPost marks a post as already handled. Presence of a non-expired row
// means the post is never resurfaced, regardless of how it would rank today.
type ProcessedPost struct {
	PostID    string    `json:"post_id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}

// TableName sets the table name for the ProcessedPost model
func (ProcessedPost) TableName() string {
	return "processed_posts"
}
