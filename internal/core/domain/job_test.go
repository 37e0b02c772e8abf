package domain

import "testing"

func TestGenerateID(t *testing.T) {
	id1 := GenerateID()
	id2 := GenerateID()

	if id1 == "" || id2 == "" {
		t.Error("expected non-empty IDs")
	}
	if id1 == id2 {
		t.Error("expected unique IDs")
	}
}

func TestNewJob(t *testing.T) {
	payload := map[string]string{"prd_id": "prd-123", "recipient_id": "user-456"}

	job := NewJob(JobTypeNotifyPRDCreated, "company-1", payload)

	if job.ID == "" {
		t.Error("expected non-empty ID")
	}
	if job.Type != JobTypeNotifyPRDCreated {
		t.Errorf("expected type %s, got %s", JobTypeNotifyPRDCreated, job.Type)
	}
	if job.CompanyID != "company-1" {
		t.Errorf("expected company ID company-1, got %s", job.CompanyID)
	}
	if job.Payload["prd_id"] != "prd-123" {
		t.Error("expected payload to be set")
	}
	if job.Status != JobStatusPending {
		t.Errorf("expected status %s, got %s", JobStatusPending, job.Status)
	}
	if job.MaxAttempts != 3 {
		t.Errorf("expected max attempts 3, got %d", job.MaxAttempts)
	}
	if job.CreatedAt.IsZero() || job.ScheduledFor.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestJob_CanRetry(t *testing.T) {
	job := NewJob(JobTypeNotifyPRDDecided, "company-1", nil)

	if !job.CanRetry() {
		t.Error("fresh job should be retryable")
	}

	job.Attempts = job.MaxAttempts
	if job.CanRetry() {
		t.Error("exhausted job should not be retryable")
	}
}
