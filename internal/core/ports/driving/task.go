package driving

import (
	"context"

	"github.com/planforge/planforge-core/internal/core/domain"
)

// CreateTaskRequest represents a manually created task
type CreateTaskRequest struct {
	ProjectID   string              `json:"project_id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Priority    domain.TaskPriority `json:"priority,omitempty"`
}

// UpdateTaskRequest represents a request to update a task
type UpdateTaskRequest struct {
	Title       *string              `json:"title,omitempty"`
	Description *string              `json:"description,omitempty"`
	Status      *domain.TaskStatus   `json:"status,omitempty"`
	Priority    *domain.TaskPriority `json:"priority,omitempty"`
}

// TaskService manages the task board. Tasks generated from approved
// PRDs land here; the service never mutates the originating PRD.
type TaskService interface {
	// Create creates a task directly on the board
	Create(ctx context.Context, actor *domain.AuthContext, req CreateTaskRequest) (*domain.Task, error)

	// Get retrieves a task by ID within the company scope
	Get(ctx context.Context, id, companyID string) (*domain.Task, error)

	// ListByProject retrieves all tasks for a project, newest first
	ListByProject(ctx context.Context, projectID, companyID string) ([]*domain.Task, error)

	// ListByPRD retrieves the tasks generated from a PRD
	ListByPRD(ctx context.Context, prdID, companyID string) ([]*domain.Task, error)

	// Update patches task fields
	Update(ctx context.Context, id, companyID string, req UpdateTaskRequest) (*domain.Task, error)

	// Delete removes a task
	Delete(ctx context.Context, id, companyID string) error
}
