// Package platform defines the closed set of supported social platforms and the
// per-platform tuning tables consumed by the ranker, rate gate, and approval
// workflow. Adding a platform means adding a constant here and filling in its
// table entries; every switch over Platform is exhaustive.
package platform

import (
	"fmt"
	"time"
)

// Platform identifies a social platform the pipeline can scan and reply to.
type Platform string

const (
	Reddit    Platform = "reddit"
	Twitter   Platform = "twitter"
	Instagram Platform = "instagram" // reserved: scanned/quota-tracked, manual posting only
)

// All lists every supported platform in scan order.
func All() []Platform {
	return []Platform{Reddit, Twitter, Instagram}
}

// Parse converts a wire/config string into a Platform.
func Parse(s string) (Platform, error) {
	switch Platform(s) {
	case Reddit:
		return Reddit, nil
	case Twitter:
		return Twitter, nil
	case Instagram:
		return Instagram, nil
	default:
		return "", fmt.Errorf("unknown platform: %q", s)
	}
}

func (p Platform) String() string {
	return string(p)
}

// ScoreWeights are the relative weights of the four relevance sub-scores.
// They sum to 1.0 for every platform.
type ScoreWeights struct {
	Keyword    float64
	Engagement float64
	Recency    float64
	Question   float64
}

// Weights returns the scoring weights for the platform. Twitter weights recency
// highest because a stale tweet is nearly worthless; Reddit weights keywords and
// engagement highest because an old thread can still be replied to usefully.
func (p Platform) Weights() ScoreWeights {
	switch p {
	case Twitter:
		return ScoreWeights{Keyword: 0.25, Engagement: 0.15, Recency: 0.40, Question: 0.20}
	case Reddit:
		return ScoreWeights{Keyword: 0.35, Engagement: 0.25, Recency: 0.15, Question: 0.25}
	case Instagram:
		return ScoreWeights{Keyword: 0.30, Engagement: 0.25, Recency: 0.25, Question: 0.20}
	default:
		return ScoreWeights{Keyword: 0.25, Engagement: 0.25, Recency: 0.25, Question: 0.25}
	}
}

// RecencyProfile describes the exponential decay of the recency sub-score.
// Posts younger than FullScoreWindow score 100; the score then decays
// exponentially, reaching the floor of 10 at FloorBy.
type RecencyProfile struct {
	FullScoreWindow time.Duration
	FloorBy         time.Duration
}

// Recency returns the platform's decay profile.
func (p Platform) Recency() RecencyProfile {
	switch p {
	case Twitter:
		return RecencyProfile{FullScoreWindow: 30 * time.Minute, FloorBy: 4 * time.Hour}
	case Reddit:
		return RecencyProfile{FullScoreWindow: time.Hour, FloorBy: 48 * time.Hour}
	case Instagram:
		return RecencyProfile{FullScoreWindow: time.Hour, FloorBy: 24 * time.Hour}
	default:
		return RecencyProfile{FullScoreWindow: time.Hour, FloorBy: 24 * time.Hour}
	}
}

// RequestBudget is a platform's API request allowance per rolling window.
type RequestBudget struct {
	MaxRequests int
	Window      time.Duration
}

// Budget returns the request budget for the platform. Twitter's free tier is a
// strict 15 requests per 15 minutes; Reddit allows a generous per-minute rate.
func (p Platform) Budget() RequestBudget {
	switch p {
	case Twitter:
		return RequestBudget{MaxRequests: 15, Window: 15 * time.Minute}
	case Reddit:
		return RequestBudget{MaxRequests: 60, Window: time.Minute}
	case Instagram:
		return RequestBudget{MaxRequests: 30, Window: time.Hour}
	default:
		return RequestBudget{MaxRequests: 30, Window: time.Hour}
	}
}

// MaxPostsPerDay is the default per-platform daily posting quota. The quota
// counts confirmed posts only, never drafted candidates.
const MaxPostsPerDay = 3

// SupportsAutoPosting reports whether the pipeline may post replies to the
// platform itself. Platforms without API posting access go through the
// mark-done flow instead.
func (p Platform) SupportsAutoPosting() bool {
	switch p {
	case Reddit, Twitter:
		return true
	case Instagram:
		return false
	default:
		return false
	}
}
