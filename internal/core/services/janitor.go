package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/planforge/planforge-core/internal/core/ports/driven"
)

// Janitor runs periodic maintenance: purging finished jobs from the
// queue and deleting expired sessions.
//
// For multi-instance deployments, configure a DistributedLock so only
// one instance runs a cleanup cycle at a time.
type Janitor struct {
	jobQueue     driven.JobQueue
	sessionStore driven.SessionStore
	lock         driven.DistributedLock
	logger       *slog.Logger

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	interval  time.Duration
	jobMaxAge time.Duration
	lockTTL   time.Duration
}

// JanitorConfig holds configuration for the janitor.
type JanitorConfig struct {
	JobQueue     driven.JobQueue
	SessionStore driven.SessionStore
	Lock         driven.DistributedLock // Optional: single-instance mode when nil
	Logger       *slog.Logger
	Interval     time.Duration // How often cleanup runs (default: 10m)
	JobMaxAge    time.Duration // Finished jobs older than this are purged (default: 24h)
	LockTTL      time.Duration // TTL for the distributed lock (default: 2x interval)
}

// NewJanitor creates a new janitor.
func NewJanitor(cfg JanitorConfig) *Janitor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = 10 * time.Minute
	}

	jobMaxAge := cfg.JobMaxAge
	if jobMaxAge == 0 {
		jobMaxAge = 24 * time.Hour
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 2 * interval
	}

	return &Janitor{
		jobQueue:     cfg.JobQueue,
		sessionStore: cfg.SessionStore,
		lock:         cfg.Lock,
		logger:       logger,
		interval:     interval,
		jobMaxAge:    jobMaxAge,
		lockTTL:      lockTTL,
	}
}

// Start begins the janitor loop.
// It runs until Stop is called or context is cancelled.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	j.logger.Info("janitor starting", "interval", j.interval)

	go j.run(ctx)

	return nil
}

// Stop gracefully stops the janitor.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stopCh)
	j.mu.Unlock()

	// Wait for the janitor to finish
	<-j.doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()

	j.logger.Info("janitor stopped")
}

// run is the main janitor loop.
func (j *Janitor) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("janitor context cancelled")
			return
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.cleanup(ctx)
		}
	}
}

// cleanup runs one maintenance cycle. With a distributed lock
// configured, the cycle is skipped when another instance holds it.
func (j *Janitor) cleanup(ctx context.Context) {
	if j.lock != nil {
		acquired, err := j.lock.Acquire(ctx, "janitor", j.lockTTL)
		if err != nil {
			j.logger.Warn("failed to acquire janitor lock", "error", err)
			return
		}
		if !acquired {
			j.logger.Debug("janitor lock held by another instance, skipping cycle")
			return
		}
		defer func() {
			if err := j.lock.Release(ctx, "janitor"); err != nil {
				j.logger.Warn("failed to release janitor lock", "error", err)
			}
		}()
	}

	if j.jobQueue != nil {
		purged, err := j.jobQueue.PurgeJobs(ctx, int(j.jobMaxAge.Seconds()))
		if err != nil {
			j.logger.Error("failed to purge finished jobs", "error", err)
		} else if purged > 0 {
			j.logger.Info("purged finished jobs", "count", purged)
		}
	}

	if j.sessionStore != nil {
		removed, err := j.sessionStore.DeleteExpired(ctx)
		if err != nil {
			j.logger.Error("failed to delete expired sessions", "error", err)
		} else if removed > 0 {
			j.logger.Info("deleted expired sessions", "count", removed)
		}
	}
}

// RunOnce triggers a single cleanup cycle immediately (ignoring the
// ticker). Used by tests and the admin maintenance endpoint.
func (j *Janitor) RunOnce(ctx context.Context) {
	j.cleanup(ctx)
}
