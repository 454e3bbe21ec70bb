package workers

import (
	"context"
	"log"
	"sync"
	"time"

	"reply-scout/internal/approval"
	"reply-scout/internal/limiter"
)

// DefaultSweepInterval is how often the store sweep runs.
const DefaultSweepInterval = time.Hour

// CleanupWorker periodically sweeps expired rows out of the store: processed
// markers, daily counts, stale rate windows, and timed-out candidates. The
// sweep is advisory — every read path re-checks expiry — so a missed run costs
// storage, not correctness.
type CleanupWorker struct {
	gate     *limiter.Gate
	workflow *approval.Workflow
	interval time.Duration
	ticker   *time.Ticker
	stopChan chan bool

	mu        sync.RWMutex
	lastSweep time.Time
	lastCount int64
}

// NewCleanupWorker creates a new cleanup worker
func NewCleanupWorker(gate *limiter.Gate, workflow *approval.Workflow, interval time.Duration) *CleanupWorker {
	return &CleanupWorker{
		gate:     gate,
		workflow: workflow,
		interval: interval,
		stopChan: make(chan bool),
	}
}

// Start begins the periodic sweep process
func (w *CleanupWorker) Start(ctx context.Context) {
	w.ticker = time.NewTicker(w.interval)

	log.Printf("🧹 Starting store cleanup worker (sweeping every %v)", w.interval)

	// Run an initial sweep immediately
	go w.sweep()

	// Start the periodic ticker
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Printf("🛑 Cleanup worker stopping due to context cancellation")
				return
			case <-w.stopChan:
				log.Printf("🛑 Cleanup worker stopping")
				return
			case <-w.ticker.C:
				w.sweep()
			}
		}
	}()
}

// Stop stops the worker
func (w *CleanupWorker) Stop() {
	if w.ticker != nil {
		w.ticker.Stop()
	}
	close(w.stopChan)
	log.Printf("✅ Cleanup worker stopped")
}

func (w *CleanupWorker) sweep() {
	var total int64

	swept, err := w.gate.Sweep()
	if err != nil {
		log.Printf("❌ Gate sweep failed: %v", err)
	}
	total += swept

	expired, err := w.workflow.SweepExpired()
	if err != nil {
		log.Printf("❌ Candidate sweep failed: %v", err)
	}
	total += expired

	w.mu.Lock()
	w.lastSweep = time.Now()
	w.lastCount = total
	w.mu.Unlock()

	if total > 0 {
		log.Printf("🧹 Sweep reclaimed %d expired row(s)", total)
	}
}

// Stats reports the most recent sweep.
func (w *CleanupWorker) Stats() CleanupStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return CleanupStats{
		LastSweep:     w.lastSweep,
		RowsReclaimed: w.lastCount,
		Interval:      w.interval,
	}
}

// CleanupStats holds statistics about the most recent sweep
type CleanupStats struct {
	LastSweep     time.Time     `json:"last_sweep"`
	RowsReclaimed int64         `json:"rows_reclaimed"`
	Interval      time.Duration `json:"interval"`
}
