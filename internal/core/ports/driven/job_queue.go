package driven

import (
	"context"

	"github.com/planforge/planforge-core/internal/core/domain"
)

// JobQueue handles background job queuing and processing.
// Implementations can use Redis (preferred) or Postgres (fallback).
type JobQueue interface {
	// Enqueue adds a job to the queue for processing.
	Enqueue(ctx context.Context, job *domain.Job) error

	// Dequeue retrieves the next available job for processing.
	// The job is marked as processing and will not be returned to other
	// workers. Returns nil, nil if no jobs are available.
	Dequeue(ctx context.Context) (*domain.Job, error)

	// DequeueWithTimeout retrieves the next available job, waiting up to
	// timeout seconds. Returns nil, nil if the timeout elapses.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Job, error)

	// Ack acknowledges successful completion of a job.
	Ack(ctx context.Context, jobID string) error

	// Nack indicates job processing failed. The job is rescheduled with
	// backoff until max attempts is exceeded, then marked failed.
	Nack(ctx context.Context, jobID string, reason string) error

	// GetJob retrieves a job by ID (for status checking).
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)

	// PurgeJobs removes completed/failed jobs older than the given age
	// in seconds, returning the number removed.
	PurgeJobs(ctx context.Context, olderThan int) (int, error)

	// Ping checks if the queue backend is healthy.
	Ping(ctx context.Context) error

	// Close cleans up resources.
	Close() error
}
