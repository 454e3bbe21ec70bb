// Package social holds the value types that flow through the scan pipeline and
// the collaborator contracts implemented by the platform-facing components
// (scanners, reply generator, notifier, poster).
package social

import (
	"fmt"
	"net/url"
	"time"

	"reply-scout/internal/platform"
)

// Post is a single piece of content discovered during a scan. Posts are
// ephemeral: they live for one scan tick and are never persisted beyond their
// processed marker.
type Post struct {
	ID              string            `json:"id"` // composite "platform:externalID", stable across rescans
	Platform        platform.Platform `json:"platform"`
	Title           string            `json:"title,omitempty"`
	Content         string            `json:"content"`
	AuthorHandle    string            `json:"author_handle"`
	URL             string            `json:"url"`
	CreatedAt       time.Time         `json:"created_at"`
	ScannedAt       time.Time         `json:"scanned_at"`
	EngagementScore int               `json:"engagement_score"`
	Hashtags        []string          `json:"hashtags,omitempty"`

	// RelevanceScore is populated by the ranker; it is 0 and meaningless
	// until a ranking pass has run over the batch.
	RelevanceScore int `json:"relevance_score"`
}

// PostID builds the composite post id used as the dedup and candidate key.
func PostID(p platform.Platform, externalID string) string {
	return fmt.Sprintf("%s:%s", p, externalID)
}

// CanonicalizeURL removes tracking parameters and other noise so the same post
// produces the same URL (and therefore the same dedup key) on every rescan.
func CanonicalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL // Return original if parsing fails
	}

	query := parsed.Query()

	paramsToRemove := []string{
		"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
		"fbclid", "gclid", "msclkid", "ref", "ref_src", "ref_url", "share_id",
		"_ga", "_gl", "mc_cid", "mc_eid", "s", "t",
	}

	for _, param := range paramsToRemove {
		query.Del(param)
	}

	parsed.RawQuery = query.Encode()
	parsed.Fragment = ""
	return parsed.String()
}
