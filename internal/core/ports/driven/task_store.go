package driven

import (
	"context"

	"github.com/planforge/planforge-core/internal/core/domain"
)

// TaskStore handles task persistence (PostgreSQL)
type TaskStore interface {
	// Save creates or updates a task
	Save(ctx context.Context, task *domain.Task) error

	// SaveBatch inserts multiple tasks in a single transaction.
	// The batch succeeds or fails as a whole; a partial write is never
	// left behind.
	SaveBatch(ctx context.Context, tasks []*domain.Task) error

	// Get retrieves a task by ID within the company scope
	Get(ctx context.Context, id, companyID string) (*domain.Task, error)

	// GetByProject retrieves all tasks for a project, newest first
	GetByProject(ctx context.Context, projectID, companyID string) ([]*domain.Task, error)

	// GetByPRD retrieves all tasks generated from a PRD
	GetByPRD(ctx context.Context, prdID, companyID string) ([]*domain.Task, error)

	// CountByProject returns the task count for a project
	CountByProject(ctx context.Context, projectID, companyID string) (int, error)

	// Delete removes a task within the company scope
	Delete(ctx context.Context, id, companyID string) error
}
