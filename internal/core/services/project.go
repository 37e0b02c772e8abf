package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/planforge/planforge-core/internal/core/domain"
	"github.com/planforge/planforge-core/internal/core/ports/driven"
	"github.com/planforge/planforge-core/internal/core/ports/driving"
)

// Ensure projectService implements ProjectService
var _ driving.ProjectService = (*projectService)(nil)

// projectService implements the ProjectService interface
type projectService struct {
	projectStore driven.ProjectStore
	prdStore     driven.PRDStore
	taskStore    driven.TaskStore
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	projectStore driven.ProjectStore,
	prdStore driven.PRDStore,
	taskStore driven.TaskStore,
) driving.ProjectService {
	return &projectService{
		projectStore: projectStore,
		prdStore:     prdStore,
		taskStore:    taskStore,
	}
}

// Create creates a new project in the actor's company
func (s *projectService) Create(ctx context.Context, actor *domain.AuthContext, req driving.CreateProjectRequest) (*domain.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	now := time.Now()
	project := &domain.Project{
		ID:          domain.GenerateID(),
		CompanyID:   actor.CompanyID,
		Name:        name,
		Description: req.Description,
		Status:      domain.ProjectStatusActive,
		CreatedBy:   actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.projectStore.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	return project, nil
}

// Get retrieves a project by ID within the company scope
func (s *projectService) Get(ctx context.Context, id, companyID string) (*domain.Project, error) {
	return s.projectStore.Get(ctx, id, companyID)
}

// List retrieves all projects for a company
func (s *projectService) List(ctx context.Context, companyID string) ([]*domain.Project, error) {
	return s.projectStore.List(ctx, companyID)
}

// ListWithSummary retrieves all projects with PRD and task counts
func (s *projectService) ListWithSummary(ctx context.Context, companyID string) ([]*domain.ProjectSummary, error) {
	projects, err := s.projectStore.List(ctx, companyID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.ProjectSummary, 0, len(projects))
	for _, project := range projects {
		prds, err := s.prdStore.GetByProject(ctx, project.ID, companyID)
		if err != nil {
			return nil, err
		}
		taskCount, err := s.taskStore.CountByProject(ctx, project.ID, companyID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, &domain.ProjectSummary{
			Project:   project,
			PRDCount:  len(prds),
			TaskCount: taskCount,
		})
	}

	return summaries, nil
}

// Update updates a project
func (s *projectService) Update(ctx context.Context, id, companyID string, req driving.UpdateProjectRequest) (*domain.Project, error) {
	project, err := s.projectStore.Get(ctx, id, companyID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
		}
		project.Name = name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		if *req.Status != domain.ProjectStatusActive && *req.Status != domain.ProjectStatusArchived {
			return nil, fmt.Errorf("%w: unknown project status %q", domain.ErrInvalidInput, *req.Status)
		}
		project.Status = *req.Status
	}
	project.UpdatedAt = time.Now()

	if err := s.projectStore.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	return project, nil
}

// Delete removes a project
func (s *projectService) Delete(ctx context.Context, id, companyID string) error {
	return s.projectStore.Delete(ctx, id, companyID)
}
