package driven

import (
	"context"

	"github.com/planforge/planforge-core/internal/core/domain"
)

// ProjectStore handles project persistence (PostgreSQL)
type ProjectStore interface {
	// Save creates or updates a project
	Save(ctx context.Context, project *domain.Project) error

	// Get retrieves a project by ID within the company scope
	Get(ctx context.Context, id, companyID string) (*domain.Project, error)

	// List retrieves all projects for a company, newest first
	List(ctx context.Context, companyID string) ([]*domain.Project, error)

	// Delete removes a project within the company scope
	Delete(ctx context.Context, id, companyID string) error
}
