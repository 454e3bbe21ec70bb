// Package scan composes the pipeline for one scheduled tick: gate, fetch,
// dedup, rank, filter, draft, present.
package scan

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"reply-scout/internal/approval"
	"reply-scout/internal/limiter"
	"reply-scout/internal/models"
	"reply-scout/internal/platform"
	"reply-scout/internal/ranker"
	"reply-scout/internal/social"
)

// Options bound the per-tick work.
type Options struct {
	MinRelevance int // reply-filter threshold
	RankWindow   int // posts ranked per platform before the reply filter
	TickCap      int // candidates drafted per tick across all platforms
}

// DefaultOptions returns the standard per-tick bounds.
func DefaultOptions() Options {
	return Options{MinRelevance: 40, RankWindow: 20, TickCap: 3}
}

// PlatformReport describes what one platform's scan did in one tick.
type PlatformReport struct {
	Platform    platform.Platform `json:"platform"`
	Skipped     bool              `json:"skipped"`
	SkipReason  string            `json:"skip_reason,omitempty"`
	Fetched     int               `json:"fetched"`
	AfterDedup  int               `json:"after_dedup"`
	Ranked      int               `json:"ranked"`
	ReplyWorthy int               `json:"reply_worthy"`
	Error       string            `json:"error,omitempty"`
}

// TickReport aggregates one tick across all scanned platforms.
type TickReport struct {
	StartedAt  time.Time        `json:"started_at"`
	Duration   time.Duration    `json:"duration"`
	Platforms  []PlatformReport `json:"platforms"`
	Candidates int              `json:"candidates"`
}

// Orchestrator runs scan ticks.
type Orchestrator struct {
	scanner   social.Scanner
	generator social.Generator
	gate      *limiter.Gate
	ranker    *ranker.Ranker
	workflow  *approval.Workflow
	opts      Options
}

// New creates an orchestrator.
func New(scanner social.Scanner, generator social.Generator, gate *limiter.Gate, rk *ranker.Ranker, workflow *approval.Workflow, opts Options) *Orchestrator {
	return &Orchestrator{
		scanner:   scanner,
		generator: generator,
		gate:      gate,
		ranker:    rk,
		workflow:  workflow,
		opts:      opts,
	}
}

// RunTick scans the given platforms, then drafts and presents up to TickCap
// candidates across all of them combined. One platform's failure never blocks
// the others; per-post generation failures skip that post only. A store
// failure while persisting candidates is fatal for the tick and surfaces as an
// error so the schedule retries next tick.
func (o *Orchestrator) RunTick(ctx context.Context, platforms []platform.Platform) (*TickReport, error) {
	start := time.Now()
	report := &TickReport{
		StartedAt: start,
		Platforms: make([]PlatformReport, len(platforms)),
	}

	replyWorthy := make([][]social.Post, len(platforms))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range platforms {
		i, p := i, p
		g.Go(func() error {
			posts, pr := o.scanPlatform(gctx, p)
			replyWorthy[i] = posts
			report.Platforms[i] = pr
			return nil // platform failures are reported, never propagated
		})
	}
	g.Wait()

	// Merge across platforms and keep drafting order by descending relevance.
	var merged []social.Post
	for _, posts := range replyWorthy {
		merged = append(merged, posts...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].RelevanceScore > merged[j].RelevanceScore
	})
	if o.opts.TickCap > 0 && len(merged) > o.opts.TickCap {
		merged = merged[:o.opts.TickCap]
	}

	for _, post := range merged {
		replyText, err := o.generator.GenerateReplyText(ctx, post)
		if err != nil {
			log.Printf("Reply generation failed for %s, skipping: %v", post.ID, err)
			continue
		}

		matched := o.ranker.MatchedKeywords(post)
		if _, err := o.workflow.CreateCandidate(ctx, post, replyText, matched); err != nil {
			return report, fmt.Errorf("failed to create candidate for %s: %w", post.ID, err)
		}
		report.Candidates++
	}

	report.Duration = time.Since(start)
	log.Printf("🔎 Scan tick finished: %d platform(s), %d candidate(s), %v",
		len(platforms), report.Candidates, report.Duration)
	return report, nil
}

// scanPlatform runs steps 1-6 of a tick for one platform and returns its
// reply-worthy posts.
func (o *Orchestrator) scanPlatform(ctx context.Context, p platform.Platform) ([]social.Post, PlatformReport) {
	pr := PlatformReport{Platform: p}

	fail := func(err error) ([]social.Post, PlatformReport) {
		log.Printf("Scan of %s failed: %v", p, err)
		pr.Error = err.Error()
		return nil, pr
	}

	okPost, err := o.gate.CanPostToday(p, platform.MaxPostsPerDay)
	if err != nil {
		return fail(err)
	}
	if !okPost {
		pr.Skipped = true
		pr.SkipReason = "daily post quota reached"
		log.Printf("Skipping %s this tick: %s", p, pr.SkipReason)
		return nil, pr
	}

	// The slot is reserved before the fetch in one atomic statement, so a
	// scheduled tick and an admin-triggered tick racing on the last slot
	// cannot both proceed. A failed fetch still consumed the slot upstream.
	reserved, err := o.gate.TryReserveRequest(p)
	if err != nil {
		return fail(err)
	}
	if !reserved {
		pr.Skipped = true
		pr.SkipReason = "request budget exhausted"
		log.Printf("Skipping %s this tick: %s", p, pr.SkipReason)
		return nil, pr
	}

	posts, fetchErr := o.scanner.FetchCandidatePosts(ctx, p)
	if fetchErr != nil {
		return fail(fmt.Errorf("scanner failed: %w", fetchErr))
	}
	pr.Fetched = len(posts)

	fresh := make([]social.Post, 0, len(posts))
	for _, post := range posts {
		processed, err := o.gate.IsProcessed(post.ID)
		if err != nil {
			return fail(err)
		}
		if !processed {
			fresh = append(fresh, post)
		}
	}
	pr.AfterDedup = len(fresh)

	ranked := o.ranker.RankPosts(fresh, o.opts.RankWindow)
	pr.Ranked = len(ranked)

	worthy := o.ranker.FilterForReply(ranked, o.opts.MinRelevance)
	pr.ReplyWorthy = len(worthy)

	// Every ranked post is marked processed, not just the reply-worthy ones:
	// a post seen and rejected must not be re-scored next tick.
	for _, post := range ranked {
		if err := o.gate.MarkProcessed(post.ID, models.ProcessedPostTTL); err != nil {
			return fail(err)
		}
	}

	return worthy, pr
}
