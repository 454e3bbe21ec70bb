// Package ranker turns a batch of scanned posts into a ranked, reply-filtered
// shortlist. Scoring is deterministic: the same batch and the same clock always
// produce the same scores and the same order.
package ranker

import (
	"math"
	"sort"
	"strings"
	"time"

	"reply-scout/internal/platform"
	"reply-scout/internal/social"
)

// Ranker assigns relevance scores against a fixed topic-keyword profile.
type Ranker struct {
	keywords []string
	now      func() time.Time
}

// New creates a ranker for the given topic keywords.
func New(keywords []string) *Ranker {
	return NewWithClock(keywords, time.Now)
}

// NewWithClock creates a ranker with an injected clock so scoring can be
// reproduced at a fixed point in time.
func NewWithClock(keywords []string, now func() time.Time) *Ranker {
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Ranker{keywords: lowered, now: now}
}

// Score computes the 0-100 relevance score for a post. maxEngagement is the
// highest engagement value in the current batch; it anchors the logarithmic
// engagement normalization.
func (r *Ranker) Score(post social.Post, maxEngagement int) int {
	text := normalizeText(post.Title + " " + post.Content)

	keyword := r.keywordScore(text)
	engagement := engagementScore(post.EngagementScore, maxEngagement)
	recency := recencyScore(post.Platform, post.CreatedAt, r.now())
	question := questionScore(text)

	w := post.Platform.Weights()
	score := keyword*w.Keyword + engagement*w.Engagement + recency*w.Recency + question*w.Question

	return clampScore(math.Round(score))
}

// RankPosts scores every post in the batch, sorts descending by score (stable:
// ties keep input order), and returns the top limit. An empty batch returns an
// empty slice.
func (r *Ranker) RankPosts(posts []social.Post, limit int) []social.Post {
	if len(posts) == 0 {
		return []social.Post{}
	}

	maxEngagement := 0
	for _, p := range posts {
		if p.EngagementScore > maxEngagement {
			maxEngagement = p.EngagementScore
		}
	}

	ranked := make([]social.Post, len(posts))
	copy(ranked, posts)
	for i := range ranked {
		ranked[i].RelevanceScore = r.Score(ranked[i], maxEngagement)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// FilterForReply keeps posts worth drafting a reply to: relevance at or above
// the threshold AND at least one question/help-seeking pattern in the text.
// Relevance alone is not enough; the pipeline only replies to posts that look
// like they are soliciting a response.
func (r *Ranker) FilterForReply(rankedPosts []social.Post, minRelevance int) []social.Post {
	filtered := make([]social.Post, 0, len(rankedPosts))
	for _, p := range rankedPosts {
		if p.RelevanceScore < minRelevance {
			continue
		}
		if !IsQuestion(normalizeText(p.Title + " " + p.Content)) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

// MatchedKeywords returns the topic keywords present in the post's text, for
// operator context when the candidate is presented.
func (r *Ranker) MatchedKeywords(post social.Post) []string {
	text := strings.ToLower(normalizeText(post.Title + " " + post.Content))
	var matched []string
	for _, kw := range r.keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// keywordScore rewards topical density. Five matches earn the full base score;
// additional matches add a small bonus (up to +25%) so keyword-heavy posts get
// an edge without stuffing dominating unboundedly.
func (r *Ranker) keywordScore(text string) float64 {
	lowered := strings.ToLower(text)

	matches := 0
	for _, kw := range r.keywords {
		matches += strings.Count(lowered, kw)
	}
	if matches == 0 {
		return 0
	}

	base := math.Min(float64(matches), 5) / 5 * 100
	bonus := 1 + math.Min(0.05*float64(matches), 0.25)

	return math.Min(base*bonus, 100)
}

// engagementScore normalizes raw engagement logarithmically against the batch
// maximum. Engagement is heavy-tailed; the log keeps one viral post from
// zeroing out everything else's relative score. A batch with no engagement at
// all scores a neutral 50.
func engagementScore(engagement, maxEngagement int) float64 {
	if maxEngagement <= 0 {
		return 50
	}
	if engagement < 0 {
		engagement = 0
	}

	score := math.Log10(float64(engagement)+1) / math.Log10(float64(maxEngagement)+1) * 100
	return math.Min(score, 100)
}

const recencyFloor = 10

// recencyScore decays exponentially from 100 using the platform's profile.
// Posts inside the full-score window score 100; the score never drops below
// the floor, so old-but-relevant content is never excluded on age alone.
func recencyScore(p platform.Platform, createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	profile := p.Recency()

	if age <= profile.FullScoreWindow {
		return 100
	}

	// Decay rate chosen so the score reaches the floor at the FloorBy horizon.
	decaySpan := (profile.FloorBy - profile.FullScoreWindow).Hours()
	rate := math.Log(100/float64(recencyFloor)) / decaySpan

	elapsed := (age - profile.FullScoreWindow).Hours()
	score := 100 * math.Exp(-rate*elapsed)

	return math.Max(score, recencyFloor)
}

func clampScore(score float64) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}
