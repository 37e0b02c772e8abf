package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/planforge/planforge-core/internal/core/domain"
	"github.com/planforge/planforge-core/internal/core/ports/driven"
)

// Worker processes notification jobs from the job queue.
// It resolves the recipient and PRD from the job payload and hands the
// assembled notification to the notifier.
type Worker struct {
	jobQueue     driven.JobQueue
	prdStore     driven.PRDStore
	projectStore driven.ProjectStore
	userStore    driven.UserStore
	notifier     driven.Notifier
	logger       *slog.Logger

	concurrency    int
	dequeueTimeout int // seconds

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	JobQueue       driven.JobQueue
	PRDStore       driven.PRDStore
	ProjectStore   driven.ProjectStore
	UserStore      driven.UserStore
	Notifier       driven.Notifier
	Logger         *slog.Logger
	Concurrency    int // Number of concurrent job processors
	DequeueTimeout int // Seconds to wait for a job before checking again
}

// NewWorker creates a new notification worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	return &Worker{
		jobQueue:       cfg.JobQueue,
		prdStore:       cfg.PRDStore,
		projectStore:   cfg.ProjectStore,
		userStore:      cfg.UserStore,
		notifier:       cfg.Notifier,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		job, err := w.jobQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue job", "error", err)
			time.Sleep(time.Second) // Back off on error
			continue
		}

		if job == nil {
			continue
		}

		w.processJob(ctx, job, logger)
	}
}

// processJob processes a single job.
func (w *Worker) processJob(ctx context.Context, job *domain.Job, logger *slog.Logger) {
	logger = logger.With("job_id", job.ID, "job_type", job.Type, "company_id", job.CompanyID)
	logger.Info("processing job")

	startTime := time.Now()
	var err error

	switch job.Type {
	case domain.JobTypeNotifyPRDCreated:
		err = w.handleNotifyCreated(ctx, job)
	case domain.JobTypeNotifyPRDDecided:
		err = w.handleNotifyDecided(ctx, job)
	default:
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	duration := time.Since(startTime)

	if err != nil {
		logger.Error("job failed",
			"duration", duration,
			"error", err,
		)

		// Nack the job so it can be retried
		if nackErr := w.jobQueue.Nack(ctx, job.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack job", "nack_error", nackErr)
		}
		return
	}

	logger.Info("job completed", "duration", duration)

	if ackErr := w.jobQueue.Ack(ctx, job.ID); ackErr != nil {
		logger.Error("failed to ack job", "ack_error", ackErr)
	}
}

// notificationContext is the resolved state shared by both job types.
type notificationContext struct {
	recipient   *domain.User
	prd         *domain.PRD
	projectName string
}

// resolve loads the recipient, PRD, and project named in the payload.
func (w *Worker) resolve(ctx context.Context, job *domain.Job) (*notificationContext, error) {
	prdID := job.Payload["prd_id"]
	recipientID := job.Payload["recipient_id"]
	if prdID == "" || recipientID == "" {
		return nil, fmt.Errorf("job payload missing prd_id or recipient_id")
	}

	recipient, err := w.userStore.Get(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipient %s: %w", recipientID, err)
	}

	prd, err := w.prdStore.Get(ctx, prdID, job.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prd %s: %w", prdID, err)
	}

	projectName := ""
	if project, err := w.projectStore.Get(ctx, prd.ProjectID, job.CompanyID); err == nil {
		projectName = project.Name
	}

	return &notificationContext{
		recipient:   recipient,
		prd:         prd,
		projectName: projectName,
	}, nil
}

// handleNotifyCreated handles a notify_prd_created job.
func (w *Worker) handleNotifyCreated(ctx context.Context, job *domain.Job) error {
	nc, err := w.resolve(ctx, job)
	if err != nil {
		return err
	}

	return w.notifier.NotifyPRDCreated(ctx, driven.PRDCreatedNotification{
		RecipientEmail: nc.recipient.Email,
		RecipientName:  nc.recipient.Name,
		PRDID:          nc.prd.ID,
		PRDTitle:       nc.prd.Title,
		ProjectName:    nc.projectName,
	})
}

// handleNotifyDecided handles a notify_prd_decided job.
func (w *Worker) handleNotifyDecided(ctx context.Context, job *domain.Job) error {
	nc, err := w.resolve(ctx, job)
	if err != nil {
		return err
	}

	status := job.Payload["status"]
	if status == "" {
		status = string(nc.prd.Status)
	}

	decidedBy := job.Payload["decided_by"]
	if decider, err := w.userStore.Get(ctx, decidedBy); err == nil {
		decidedBy = decider.Name
	}

	return w.notifier.NotifyPRDDecided(ctx, driven.PRDDecidedNotification{
		RecipientEmail: nc.recipient.Email,
		RecipientName:  nc.recipient.Name,
		PRDID:          nc.prd.ID,
		PRDTitle:       nc.prd.Title,
		ProjectName:    nc.projectName,
		Status:         status,
		DecidedBy:      decidedBy,
	})
}

// Health returns health status of the worker.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	if err := w.jobQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
