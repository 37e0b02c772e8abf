package driven

import (
	"context"

	"github.com/planforge/planforge-core/internal/core/domain"
)

// PRDStore handles PRD and PRD version persistence (PostgreSQL).
// All reads are scoped by company id: a PRD that exists but belongs to
// another company is reported as domain.ErrNotFound.
type PRDStore interface {
	// Save creates a new PRD together with its initial version snapshot,
	// in one transaction. Version history is contiguous from 1.
	Save(ctx context.Context, prd *domain.PRD) error

	// Get retrieves a PRD by ID within the company scope
	Get(ctx context.Context, id, companyID string) (*domain.PRD, error)

	// GetDetail retrieves a PRD joined with project and creator names
	GetDetail(ctx context.Context, id, companyID string) (*domain.PRDDetail, error)

	// GetByProject retrieves all PRDs for a project, newest first
	GetByProject(ctx context.Context, projectID, companyID string) ([]*domain.PRD, error)

	// Update patches mutable fields (title, content, status, approval
	// metadata, updated_at). It never touches the version column.
	Update(ctx context.Context, prd *domain.PRD) error

	// CreateVersion atomically inserts a version snapshot and bumps the
	// parent PRD's version from expectedVersion to version.Version.
	// Both writes happen in one transaction; if the parent no longer
	// holds expectedVersion the whole unit fails with
	// domain.ErrVersionConflict and nothing is persisted.
	CreateVersion(ctx context.Context, version *domain.PRDVersion, expectedVersion int) error

	// GetVersion retrieves a single version snapshot
	GetVersion(ctx context.Context, prdID string, version int) (*domain.PRDVersion, error)

	// ListVersions retrieves all version snapshots for a PRD, ascending
	ListVersions(ctx context.Context, prdID string) ([]*domain.PRDVersion, error)

	// Delete removes a PRD within the company scope. Version history and
	// generated tasks are left in place.
	Delete(ctx context.Context, id, companyID string) error
}
