// Package worker manages the background side of the pipeline: cron-scheduled
// scan ticks per platform and the periodic store sweep.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"reply-scout/internal/config"
	"reply-scout/internal/platform"
	"reply-scout/internal/scan"
	"reply-scout/internal/workers"
)

// scanTimeout bounds one scheduled tick so a stuck collaborator call cannot
// block the next tick.
const scanTimeout = 10 * time.Minute

// WorkerService manages background workers for the application
type WorkerService struct {
	orchestrator  *scan.Orchestrator
	cleanupWorker *workers.CleanupWorker
	cron          *cron.Cron
	cronEntries   map[platform.Platform]cron.EntryID
	cfg           *config.Config
	ctx           context.Context
	cancel        context.CancelFunc
	startedAt     time.Time
	running       bool
	mu            sync.RWMutex
}

// NewWorkerService creates a new worker service
func NewWorkerService(orchestrator *scan.Orchestrator, cleanupWorker *workers.CleanupWorker, cfg *config.Config) *WorkerService {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerService{
		orchestrator:  orchestrator,
		cleanupWorker: cleanupWorker,
		cron:          cron.New(),
		cronEntries:   make(map[platform.Platform]cron.EntryID),
		cfg:           cfg,
		ctx:           ctx,
		cancel:        cancel,
		running:       false,
	}
}

// Start starts all background workers
func (ws *WorkerService) Start() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.running {
		return nil // Already running
	}

	log.Println("Starting background workers...")

	schedules := map[platform.Platform]string{
		platform.Reddit:    ws.cfg.RedditCronSpec,
		platform.Twitter:   ws.cfg.TwitterCronSpec,
		platform.Instagram: ws.cfg.InstagramCronSpec,
	}

	for _, p := range platform.All() {
		spec := schedules[p]
		if spec == "" {
			continue
		}
		entryID, err := ws.cron.AddFunc(spec, ws.scanJob(p))
		if err != nil {
			return err
		}
		ws.cronEntries[p] = entryID
		log.Printf("📅 Scheduled %s scan (cron: %s)", p, spec)
	}

	ws.cron.Start()
	ws.cleanupWorker.Start(ws.ctx)

	ws.startedAt = time.Now()
	ws.running = true
	log.Println("Background workers started successfully")

	return nil
}

// scanJob builds the cron callback for one platform's scheduled tick.
func (ws *WorkerService) scanJob(p platform.Platform) func() {
	return func() {
		ctx, cancel := context.WithTimeout(ws.ctx, scanTimeout)
		defer cancel()

		log.Printf("⏰ Scheduled scan tick for %s", p)
		if _, err := ws.orchestrator.RunTick(ctx, []platform.Platform{p}); err != nil {
			// The tick is retried on the next schedule, not in-process.
			log.Printf("❌ Scan tick for %s failed: %v", p, err)
		}
	}
}

// Stop stops all background workers
func (ws *WorkerService) Stop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.running {
		return // Not running
	}

	log.Println("Stopping background workers...")

	// Cancel context to signal all workers to stop
	ws.cancel()

	// Stop the cron scheduler and wait for any running job to finish
	stopCtx := ws.cron.Stop()
	<-stopCtx.Done()

	ws.cleanupWorker.Stop()

	ws.running = false
	log.Println("Background workers stopped")
}

// IsRunning returns whether the worker service is currently running
func (ws *WorkerService) IsRunning() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.running
}

// GetStatus returns the current status of the worker service
func (ws *WorkerService) GetStatus() map[string]interface{} {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	status := map[string]interface{}{
		"running": ws.running,
	}
	if ws.running {
		status["uptime"] = time.Since(ws.startedAt).String()
	}

	schedules := make(map[string]interface{}, len(ws.cronEntries))
	for p, entryID := range ws.cronEntries {
		entry := ws.cron.Entry(entryID)
		schedules[p.String()] = map[string]interface{}{
			"next_run": entry.Next,
			"last_run": entry.Prev,
		}
	}
	status["scans"] = schedules

	if ws.cleanupWorker != nil {
		status["cleanup"] = ws.cleanupWorker.Stats()
	}

	return status
}

// Shutdown is a graceful shutdown helper
func (ws *WorkerService) Shutdown() {
	ws.Stop()
}
