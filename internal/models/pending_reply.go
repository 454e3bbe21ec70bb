package models

import (
	"time"

	"github.com/lib/pq"

	"reply-scout/internal/platform"
)

// ReplyStatus is the lifecycle state of a drafted reply.
type ReplyStatus string

const (
	StatusPending  ReplyStatus = "pending"
	StatusPosted   ReplyStatus = "posted"
	StatusDeclined ReplyStatus = "declined"
	StatusExpired  ReplyStatus = "expired"
)

// Terminal reports whether no further transition is possible from the status.
func (s ReplyStatus) Terminal() bool {
	return s == StatusPosted || s == StatusDeclined || s == StatusExpired
}

// PendingReplyTTL is how long a candidate may await a decision before any read
// treats it as expired.
const PendingReplyTTL = 24 * time.Hour

// PendingReply is a drafted reply awaiting a human decision. The post id is
// the primary key, so at most one candidate exists per post; re-presenting the
// same post overwrites rather than duplicates.
type PendingReply struct {
	PostID          string            `json:"post_id" gorm:"primaryKey"`
	Platform        platform.Platform `json:"platform" gorm:"not null;index"`
	ReplyText       string            `json:"reply_text" gorm:"type:text"`
	OriginalPostURL string            `json:"original_post_url"`
	AuthorHandle    string            `json:"author_handle"`
	RelevanceScore  int               `json:"relevance_score" gorm:"default:0"`
	MatchedKeywords pq.StringArray    `json:"matched_keywords" gorm:"type:text[]"`
	Status          ReplyStatus       `json:"status" gorm:"default:pending;index"`
	NotificationRef string            `json:"notification_ref"`
	DecidedBy       string            `json:"decided_by"`
	DecidedAt       *time.Time        `json:"decided_at"`
	CreatedAt       time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
	ExpiresAt       time.Time         `json:"expires_at" gorm:"index"`
}

// TableName sets the table name for the PendingReply model
func (PendingReply) TableName() string {
	return "pending_replies"
}

// Live reports whether the candidate can still accept a decision at the given
// time: pending status and not past its TTL.
func (r *PendingReply) Live(now time.Time) bool {
	return r.Status == StatusPending && now.Before(r.ExpiresAt)
}
