package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/planforge/planforge-core/internal/core/domain"
	"github.com/planforge/planforge-core/internal/core/ports/driven"
	"github.com/planforge/planforge-core/internal/core/ports/driving"
)

// Ensure prdService implements PRDService
var _ driving.PRDService = (*prdService)(nil)

const (
	// prdLockTTL bounds how long a crashed holder can block version bumps
	prdLockTTL = 10 * time.Second

	// prdLockAttempts * prdLockBackoff is the worst-case wait for a
	// contended per-document lock before giving up
	prdLockAttempts = 50
	prdLockBackoff  = 20 * time.Millisecond

	// generateTimeout bounds the background generation run after approval
	generateTimeout = 30 * time.Second
)

// prdService implements the PRD workflow: creation, lightweight edits,
// version snapshots, the submit/decide state machine, and the task
// generation cascade on approval.
type prdService struct {
	prdStore     driven.PRDStore
	projectStore driven.ProjectStore
	jobQueue     driven.JobQueue
	lock         driven.DistributedLock
	generator    *TaskGenerator
	logger       *slog.Logger
}

// PRDServiceConfig holds dependencies for the PRD workflow service.
type PRDServiceConfig struct {
	PRDStore     driven.PRDStore
	TaskStore    driven.TaskStore
	ProjectStore driven.ProjectStore
	JobQueue     driven.JobQueue        // Optional: notifications are skipped when nil
	Lock         driven.DistributedLock // Optional: store-level conditional write still guards versions
	Logger       *slog.Logger
}

// NewPRDService creates a new PRDService
func NewPRDService(cfg PRDServiceConfig) driving.PRDService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &prdService{
		prdStore:     cfg.PRDStore,
		projectStore: cfg.ProjectStore,
		jobQueue:     cfg.JobQueue,
		lock:         cfg.Lock,
		generator:    NewTaskGenerator(cfg.TaskStore, logger),
		logger:       logger,
	}
}

// Create persists a new PRD at version 1 in draft status
func (s *prdService) Create(ctx context.Context, actor *domain.AuthContext, req driving.CreatePRDRequest) (*domain.PRD, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if req.ProjectID == "" {
		return nil, fmt.Errorf("%w: project_id is required", domain.ErrInvalidInput)
	}

	companyID := req.CompanyID
	if companyID == "" {
		companyID = actor.CompanyID
	}

	// The project lookup doubles as the tenancy check: a project owned
	// by another company reads as not found.
	project, err := s.projectStore.Get(ctx, req.ProjectID, companyID)
	if err != nil {
		return nil, err
	}

	content := req.Content
	if content == nil {
		content = map[string]any{}
	}

	now := time.Now()
	prd := &domain.PRD{
		ID:        domain.GenerateID(),
		CompanyID: project.CompanyID,
		ProjectID: project.ID,
		Title:     req.Title,
		Content:   content,
		Status:    domain.PRDStatusDraft,
		Version:   1,
		CreatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.prdStore.Save(ctx, prd); err != nil {
		return nil, s.maskStoreError(err, "save prd", prd.ID, prd.CompanyID)
	}

	s.enqueueNotification(ctx, domain.JobTypeNotifyPRDCreated, prd, actor.UserID, "")

	return prd, nil
}

// Get retrieves a PRD with related display fields
func (s *prdService) Get(ctx context.Context, id, companyID string) (*domain.PRDDetail, error) {
	return s.prdStore.GetDetail(ctx, id, companyID)
}

// ListByProject retrieves all PRDs for a project, newest first
func (s *prdService) ListByProject(ctx context.Context, projectID, companyID string) ([]*domain.PRD, error) {
	if _, err := s.projectStore.Get(ctx, projectID, companyID); err != nil {
		return nil, err
	}
	return s.prdStore.GetByProject(ctx, projectID, companyID)
}

// Update patches title and content without touching version or history
func (s *prdService) Update(ctx context.Context, id, companyID string, req driving.UpdatePRDRequest) (*domain.PRD, error) {
	// Reuse Get for the scope check rather than duplicating it
	detail, err := s.Get(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	prd := detail.PRD

	if req.Title != nil {
		if *req.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrInvalidInput)
		}
		prd.Title = *req.Title
	}
	if req.Content != nil {
		prd.Content = *req.Content
	}
	prd.UpdatedAt = time.Now()

	if err := s.prdStore.Update(ctx, prd); err != nil {
		return nil, s.maskStoreError(err, "update prd", prd.ID, companyID)
	}

	return prd, nil
}

// CreateVersion snapshots a new version and bumps the PRD's version by
// exactly one. The per-document lock serializes concurrent callers; the
// store's conditional write is the hard guarantee that version numbers
// stay contiguous even if the lock is unavailable.
func (s *prdService) CreateVersion(ctx context.Context, id, companyID string, actor *domain.AuthContext, req driving.CreateVersionRequest) (*domain.PRDVersion, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if req.Content == nil {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}

	lockName := "prd:" + id
	if err := s.acquireLock(ctx, lockName); err != nil {
		return nil, err
	}
	defer s.releaseLock(lockName)

	prd, err := s.prdStore.Get(ctx, id, companyID)
	if err != nil {
		return nil, err
	}

	version := &domain.PRDVersion{
		ID:             domain.GenerateID(),
		PRDID:          prd.ID,
		Version:        prd.Version + 1,
		Title:          req.Title,
		Content:        req.Content,
		CreatedBy:      actor.UserID,
		ChangesSummary: req.ChangesSummary,
		CreatedAt:      time.Now(),
	}

	if err := s.prdStore.CreateVersion(ctx, version, prd.Version); err != nil {
		return nil, s.maskStoreError(err, "create prd version", prd.ID, companyID)
	}

	return version, nil
}

// ListVersions retrieves the version history, ascending
func (s *prdService) ListVersions(ctx context.Context, id, companyID string) ([]*domain.PRDVersion, error) {
	if _, err := s.prdStore.Get(ctx, id, companyID); err != nil {
		return nil, err
	}
	return s.prdStore.ListVersions(ctx, id)
}

// Submit moves a draft PRD into review
func (s *prdService) Submit(ctx context.Context, id, companyID string, actor *domain.AuthContext) (*domain.PRD, error) {
	if actor == nil || !actor.CanWrite() {
		return nil, domain.ErrForbidden
	}

	prd, err := s.prdStore.Get(ctx, id, companyID)
	if err != nil {
		return nil, err
	}

	if !prd.Status.CanTransitionTo(domain.PRDStatusReview) {
		return nil, fmt.Errorf("%w: cannot move %s to %s", domain.ErrInvalidTransition, prd.Status, domain.PRDStatusReview)
	}

	prd.Status = domain.PRDStatusReview
	prd.UpdatedAt = time.Now()

	if err := s.prdStore.Update(ctx, prd); err != nil {
		return nil, s.maskStoreError(err, "submit prd", prd.ID, companyID)
	}

	return prd, nil
}

// Decide approves or rejects a PRD in review. The decision commits
// before any side effect runs; generation and notification failures are
// logged, never surfaced.
func (s *prdService) Decide(ctx context.Context, id, companyID string, actor *domain.AuthContext, req driving.DecideRequest) (*domain.PRD, error) {
	if req.Status != domain.PRDStatusApproved && req.Status != domain.PRDStatusRejected {
		return nil, fmt.Errorf("%w: decision must be %s or %s", domain.ErrInvalidInput, domain.PRDStatusApproved, domain.PRDStatusRejected)
	}
	if actor == nil || !actor.CanApprove() {
		return nil, domain.ErrForbidden
	}

	prd, err := s.prdStore.Get(ctx, id, companyID)
	if err != nil {
		return nil, err
	}

	if !prd.Status.CanTransitionTo(req.Status) {
		return nil, fmt.Errorf("%w: cannot move %s to %s", domain.ErrInvalidTransition, prd.Status, req.Status)
	}

	now := time.Now()
	prd.Status = req.Status
	prd.UpdatedAt = now
	if req.Status == domain.PRDStatusApproved {
		prd.ApprovedBy = &actor.UserID
		prd.ApprovedAt = &now
	}

	if err := s.prdStore.Update(ctx, prd); err != nil {
		return nil, s.maskStoreError(err, "decide prd", prd.ID, companyID)
	}

	if req.Status == domain.PRDStatusApproved {
		go s.generateTasks(prd, actor.UserID)
	}

	s.enqueueNotification(ctx, domain.JobTypeNotifyPRDDecided, prd, prd.CreatedBy, actor.UserID)

	return prd, nil
}

// Delete removes a PRD. Generated tasks and version history stay behind.
func (s *prdService) Delete(ctx context.Context, id, companyID string) error {
	if err := s.prdStore.Delete(ctx, id, companyID); err != nil {
		return s.maskStoreError(err, "delete prd", id, companyID)
	}
	return nil
}

// generateTasks runs the generation cascade after an approval has
// committed. It runs detached from the request with its own deadline
// and error boundary.
func (s *prdService) generateTasks(prd *domain.PRD, approverID string) {
	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	count, err := s.generator.Generate(ctx, prd, approverID)
	if err != nil {
		s.logger.Error("task generation failed",
			"prd_id", prd.ID,
			"project_id", prd.ProjectID,
			"error", err,
		)
		return
	}

	s.logger.Info("generated tasks from approved prd",
		"prd_id", prd.ID,
		"project_id", prd.ProjectID,
		"count", count,
	)
}

// enqueueNotification schedules a best-effort notification job. Enqueue
// failures are logged and never returned to the caller.
func (s *prdService) enqueueNotification(ctx context.Context, jobType domain.JobType, prd *domain.PRD, recipientID, decidedBy string) {
	if s.jobQueue == nil {
		return
	}

	payload := map[string]string{
		"prd_id":       prd.ID,
		"recipient_id": recipientID,
	}
	if jobType == domain.JobTypeNotifyPRDDecided {
		payload["status"] = string(prd.Status)
		payload["decided_by"] = decidedBy
	}

	job := domain.NewJob(jobType, prd.CompanyID, payload)
	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		s.logger.Warn("failed to enqueue notification job",
			"job_type", jobType,
			"prd_id", prd.ID,
			"error", err,
		)
	}
}

// maskStoreError replaces an unexpected persistence error with the
// stable store-failure sentinel. The original is logged here, where the
// operation name and scope are still in hand. Domain errors pass
// through untouched so callers keep their usual mapping.
func (s *prdService) maskStoreError(err error, op, prdID, companyID string) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrVersionConflict) {
		return err
	}

	s.logger.Error("prd store operation failed",
		"op", op,
		"prd_id", prdID,
		"company_id", companyID,
		"error", err,
	)

	return fmt.Errorf("%w: %s", domain.ErrStoreFailure, op)
}

// acquireLock takes the per-document lock with bounded retries.
func (s *prdService) acquireLock(ctx context.Context, name string) error {
	if s.lock == nil {
		return nil
	}

	for i := 0; i < prdLockAttempts; i++ {
		acquired, err := s.lock.Acquire(ctx, name, prdLockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire lock %s: %w", name, err)
		}
		if acquired {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(prdLockBackoff):
		}
	}

	return fmt.Errorf("%w: document is locked by another writer", domain.ErrVersionConflict)
}

func (s *prdService) releaseLock(name string) {
	if s.lock == nil {
		return
	}
	// Release with a fresh context so a cancelled request still unlocks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.lock.Release(ctx, name); err != nil {
		s.logger.Warn("failed to release lock", "lock", name, "error", err)
	}
}
