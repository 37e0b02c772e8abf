package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/planforge/planforge-core/internal/core/domain"
)

// MockJobQueue is a mock implementation of JobQueue for testing.
// Jobs are processed FIFO; delayed jobs are respected by ScheduledFor.
type MockJobQueue struct {
	mu   sync.Mutex
	jobs []*domain.Job
	byID map[string]*domain.Job

	// EnqueueFn overrides Enqueue when set (for failure injection)
	EnqueueFn func(job *domain.Job) error
}

// NewMockJobQueue creates a new MockJobQueue
func NewMockJobQueue() *MockJobQueue {
	return &MockJobQueue{
		byID: make(map[string]*domain.Job),
	}
}

func (m *MockJobQueue) Enqueue(ctx context.Context, job *domain.Job) error {
	if m.EnqueueFn != nil {
		return m.EnqueueFn(job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs = append(m.jobs, &cp)
	m.byID[job.ID] = &cp
	return nil
}

func (m *MockJobQueue) Dequeue(ctx context.Context) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, job := range m.jobs {
		if job.Status == domain.JobStatusPending && !job.ScheduledFor.After(now) {
			job.Status = domain.JobStatusProcessing
			job.Attempts++
			started := now
			job.StartedAt = &started
			cp := *job
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockJobQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Job, error) {
	return m.Dequeue(ctx)
}

func (m *MockJobQueue) Ack(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.byID[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	job.Status = domain.JobStatusCompleted
	job.CompletedAt = &now
	return nil
}

func (m *MockJobQueue) Nack(ctx context.Context, jobID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.byID[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Error = reason
	if job.CanRetry() {
		job.Status = domain.JobStatusPending
	} else {
		job.Status = domain.JobStatusFailed
	}
	return nil
}

func (m *MockJobQueue) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.byID[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *MockJobQueue) PurgeJobs(ctx context.Context, olderThan int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-time.Duration(olderThan) * time.Second)
	removed := 0
	kept := m.jobs[:0]
	for _, job := range m.jobs {
		done := job.Status == domain.JobStatusCompleted || job.Status == domain.JobStatusFailed
		if done && job.UpdatedAt.Before(cutoff) {
			delete(m.byID, job.ID)
			removed++
			continue
		}
		kept = append(kept, job)
	}
	m.jobs = kept
	return removed, nil
}

func (m *MockJobQueue) Ping(ctx context.Context) error {
	return nil
}

func (m *MockJobQueue) Close() error {
	return nil
}

// Pending returns the jobs still waiting to be processed (test helper)
func (m *MockJobQueue) Pending() []*domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []*domain.Job
	for _, job := range m.jobs {
		if job.Status == domain.JobStatusPending {
			cp := *job
			pending = append(pending, &cp)
		}
	}
	return pending
}
