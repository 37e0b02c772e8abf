package domain

import (
	"time"

	"github.com/google/uuid"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	return uuid.NewString()
}

// JobType identifies the type of background job
type JobType string

const (
	// JobTypeNotifyPRDCreated sends the "document created" notification
	JobTypeNotifyPRDCreated JobType = "notify_prd_created"
	// JobTypeNotifyPRDDecided sends the approval/rejection notification
	JobTypeNotifyPRDDecided JobType = "notify_prd_decided"
)

// JobStatus represents the current state of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background unit of work processed by workers.
// Notification jobs are fire-and-forget from the API's point of view:
// they are enqueued after the primary write commits and their failures
// are only ever visible in logs.
type Job struct {
	// ID is the unique identifier for this job
	ID string `json:"id"`

	// Type identifies what kind of job this is
	Type JobType `json:"type"`

	// CompanyID is the tenant this job belongs to
	CompanyID string `json:"company_id"`

	// Payload contains job-specific data
	// For notify_prd_created: {"prd_id": ..., "recipient_id": ...}
	// For notify_prd_decided: {"prd_id": ..., "recipient_id": ..., "status": ...}
	Payload map[string]string `json:"payload"`

	// Status is the current state of the job
	Status JobStatus `json:"status"`

	// Priority determines processing order (higher = more urgent)
	Priority int `json:"priority"`

	// Attempts is how many times this job has been attempted
	Attempts int `json:"attempts"`

	// MaxAttempts is the maximum retry count before giving up
	MaxAttempts int `json:"max_attempts"`

	// Error contains the last error message if failed
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// StartedAt is when processing began (nil if not started)
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when processing finished (nil if not complete)
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ScheduledFor is when the job should be processed (for delayed jobs)
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewJob creates a new job with default values
func NewJob(jobType JobType, companyID string, payload map[string]string) *Job {
	now := time.Now()
	return &Job{
		ID:           GenerateID(),
		Type:         jobType,
		CompanyID:    companyID,
		Payload:      payload,
		Status:       JobStatusPending,
		Priority:     0,
		Attempts:     0,
		MaxAttempts:  3,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// CanRetry reports whether the job has retry attempts remaining
func (j *Job) CanRetry() bool {
	return j.Attempts < j.MaxAttempts
}

// MarkProcessing updates the job to processing state
func (j *Job) MarkProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.StartedAt = &now
	j.UpdatedAt = now
	j.Attempts++
}

// MarkCompleted updates the job to completed state
func (j *Job) MarkCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.Error = ""
}

// MarkFailed updates the job to failed state
func (j *Job) MarkFailed(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.UpdatedAt = now
	j.Error = err
}

// Retry resets the job for retry with exponential backoff
func (j *Job) Retry(err string) {
	now := time.Now()
	j.Status = JobStatusPending
	j.UpdatedAt = now
	j.Error = err

	// Exponential backoff: 1s, 2s, 4s, 8s, capped at 5 minutes
	backoff := time.Duration(1<<j.Attempts) * time.Second
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute
	}
	j.ScheduledFor = now.Add(backoff)
}
