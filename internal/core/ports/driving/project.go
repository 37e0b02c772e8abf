package driving

import (
	"context"

	"github.com/planforge/planforge-core/internal/core/domain"
)

// CreateProjectRequest represents a request to create a new project
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpdateProjectRequest represents a request to update a project
type UpdateProjectRequest struct {
	Name        *string               `json:"name,omitempty"`
	Description *string               `json:"description,omitempty"`
	Status      *domain.ProjectStatus `json:"status,omitempty"`
}

// ProjectService manages projects within a company
type ProjectService interface {
	// Create creates a new project in the actor's company
	Create(ctx context.Context, actor *domain.AuthContext, req CreateProjectRequest) (*domain.Project, error)

	// Get retrieves a project by ID within the company scope
	Get(ctx context.Context, id, companyID string) (*domain.Project, error)

	// List retrieves all projects for a company
	List(ctx context.Context, companyID string) ([]*domain.Project, error)

	// ListWithSummary retrieves all projects with PRD and task counts
	ListWithSummary(ctx context.Context, companyID string) ([]*domain.ProjectSummary, error)

	// Update updates a project
	Update(ctx context.Context, id, companyID string, req UpdateProjectRequest) (*domain.Project, error)

	// Delete removes a project
	Delete(ctx context.Context, id, companyID string) error
}
