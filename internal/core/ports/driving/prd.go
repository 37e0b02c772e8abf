package driving

import (
	"context"

	"github.com/planforge/planforge-core/internal/core/domain"
)

// CreatePRDRequest represents a request to create a new PRD.
// CompanyID may be empty, in which case it is resolved from the project.
type CreatePRDRequest struct {
	ProjectID string         `json:"project_id"`
	CompanyID string         `json:"company_id,omitempty"`
	Title     string         `json:"title"`
	Content   map[string]any `json:"content,omitempty"`
}

// UpdatePRDRequest represents a lightweight edit. It never bumps the
// version; use CreateVersionRequest for a formal snapshot.
type UpdatePRDRequest struct {
	Title   *string         `json:"title,omitempty"`
	Content *map[string]any `json:"content,omitempty"`
}

// CreateVersionRequest represents a request to snapshot a new version
type CreateVersionRequest struct {
	Title          string         `json:"title"`
	Content        map[string]any `json:"content"`
	ChangesSummary string         `json:"changes_summary,omitempty"`
}

// DecideRequest represents an approve/reject decision on a PRD in review
type DecideRequest struct {
	Status domain.PRDStatus `json:"status"`
}

// PRDService owns the PRD lifecycle: creation, edits, version history,
// the submit/decide workflow, and the task generation it cascades into.
type PRDService interface {
	// Create persists a new PRD at version 1 in draft status and
	// schedules a best-effort "created" notification to the creator
	Create(ctx context.Context, actor *domain.AuthContext, req CreatePRDRequest) (*domain.PRD, error)

	// Get retrieves a PRD with minimal related fields. A PRD outside the
	// company scope is indistinguishable from a missing one.
	Get(ctx context.Context, id, companyID string) (*domain.PRDDetail, error)

	// ListByProject retrieves all PRDs for a project, newest first
	ListByProject(ctx context.Context, projectID, companyID string) ([]*domain.PRD, error)

	// Update patches title/content without touching version or history
	Update(ctx context.Context, id, companyID string, req UpdatePRDRequest) (*domain.PRD, error)

	// CreateVersion snapshots a new version and bumps the PRD's version
	// by exactly one. Concurrent calls against the same PRD are
	// serialized; version numbers stay contiguous.
	CreateVersion(ctx context.Context, id, companyID string, actor *domain.AuthContext, req CreateVersionRequest) (*domain.PRDVersion, error)

	// ListVersions retrieves the version history, ascending
	ListVersions(ctx context.Context, id, companyID string) ([]*domain.PRDVersion, error)

	// Submit moves a draft PRD into review
	Submit(ctx context.Context, id, companyID string, actor *domain.AuthContext) (*domain.PRD, error)

	// Decide approves or rejects a PRD in review. Approval records the
	// approver and timestamp and triggers task generation; generation
	// and notification outcomes never affect the returned result.
	Decide(ctx context.Context, id, companyID string, actor *domain.AuthContext, req DecideRequest) (*domain.PRD, error)

	// Delete removes a PRD. Generated tasks and version history are not
	// cascade-deleted.
	Delete(ctx context.Context, id, companyID string) error
}
