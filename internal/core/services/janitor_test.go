package services

import (
	"context"
	"testing"
	"time"

	"github.com/planforge/planforge-core/internal/core/domain"
	"github.com/planforge/planforge-core/internal/core/ports/driven/mocks"
)

func TestJanitor_RunOnce(t *testing.T) {
	jobQueue := mocks.NewMockJobQueue()
	sessionStore := mocks.NewMockSessionStore()

	// A finished job well past the retention window
	oldJob := domain.NewJob(domain.JobTypeNotifyPRDCreated, "company-1", nil)
	oldJob.Status = domain.JobStatusCompleted
	oldJob.UpdatedAt = time.Now().Add(-48 * time.Hour)
	_ = jobQueue.Enqueue(context.Background(), oldJob)

	_ = sessionStore.Save(context.Background(), &domain.Session{
		ID:        "session-expired",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	_ = sessionStore.Save(context.Background(), &domain.Session{
		ID:        "session-live",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
	})

	j := NewJanitor(JanitorConfig{
		JobQueue:     jobQueue,
		SessionStore: sessionStore,
		JobMaxAge:    time.Nanosecond, // Everything finished is stale
	})
	j.RunOnce(context.Background())

	if _, err := sessionStore.Get(context.Background(), "session-expired"); err != domain.ErrNotFound {
		t.Errorf("expected expired session to be removed, got %v", err)
	}
	if _, err := sessionStore.Get(context.Background(), "session-live"); err != nil {
		t.Errorf("expected live session to survive, got %v", err)
	}
	if _, err := jobQueue.GetJob(context.Background(), oldJob.ID); err != domain.ErrNotFound {
		t.Errorf("expected finished job to be purged, got %v", err)
	}
}

func TestJanitor_SkipsWhenLockHeld(t *testing.T) {
	jobQueue := mocks.NewMockJobQueue()
	sessionStore := mocks.NewMockSessionStore()
	lock := mocks.NewMockDistributedLock()

	// Another instance holds the lock
	acquired, _ := lock.Acquire(context.Background(), "janitor", time.Minute)
	if !acquired {
		t.Fatal("test setup: could not take lock")
	}

	_ = sessionStore.Save(context.Background(), &domain.Session{
		ID:        "session-expired",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(-time.Hour),
	})

	j := NewJanitor(JanitorConfig{
		JobQueue:     jobQueue,
		SessionStore: sessionStore,
		Lock:         lock,
	})
	j.RunOnce(context.Background())

	// Nothing was cleaned because the cycle was skipped
	if _, err := sessionStore.Get(context.Background(), "session-expired"); err != nil {
		t.Errorf("expected cleanup to be skipped while lock held, got %v", err)
	}
}

func TestJanitor_StartStop(t *testing.T) {
	j := NewJanitor(JanitorConfig{
		JobQueue:     mocks.NewMockJobQueue(),
		SessionStore: mocks.NewMockSessionStore(),
		Interval:     10 * time.Millisecond,
	})

	if err := j.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Starting twice is a no-op
	if err := j.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	j.Stop()
	// Stopping twice is safe
	j.Stop()
}
