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

// Ensure taskService implements TaskService
var _ driving.TaskService = (*taskService)(nil)

// taskService implements the TaskService interface. It owns the task
// board; generated tasks land here but the originating PRD is never
// touched from this side.
type taskService struct {
	taskStore    driven.TaskStore
	projectStore driven.ProjectStore
}

// NewTaskService creates a new TaskService
func NewTaskService(taskStore driven.TaskStore, projectStore driven.ProjectStore) driving.TaskService {
	return &taskService{
		taskStore:    taskStore,
		projectStore: projectStore,
	}
}

// Create creates a task directly on the board
func (s *taskService) Create(ctx context.Context, actor *domain.AuthContext, req driving.CreateTaskRequest) (*domain.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if req.ProjectID == "" {
		return nil, fmt.Errorf("%w: project_id is required", domain.ErrInvalidInput)
	}

	if _, err := s.projectStore.Get(ctx, req.ProjectID, actor.CompanyID); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, priority)
	}

	now := time.Now()
	task := &domain.Task{
		ID:          domain.GenerateID(),
		ProjectID:   req.ProjectID,
		CompanyID:   actor.CompanyID,
		Title:       title,
		Description: req.Description,
		Status:      domain.TaskStatusBacklog,
		Priority:    priority,
		CreatedBy:   actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	return task, nil
}

// Get retrieves a task by ID within the company scope
func (s *taskService) Get(ctx context.Context, id, companyID string) (*domain.Task, error) {
	return s.taskStore.Get(ctx, id, companyID)
}

// ListByProject retrieves all tasks for a project, newest first
func (s *taskService) ListByProject(ctx context.Context, projectID, companyID string) ([]*domain.Task, error) {
	if _, err := s.projectStore.Get(ctx, projectID, companyID); err != nil {
		return nil, err
	}
	return s.taskStore.GetByProject(ctx, projectID, companyID)
}

// ListByPRD retrieves the tasks generated from a PRD
func (s *taskService) ListByPRD(ctx context.Context, prdID, companyID string) ([]*domain.Task, error) {
	return s.taskStore.GetByPRD(ctx, prdID, companyID)
}

// Update patches task fields
func (s *taskService) Update(ctx context.Context, id, companyID string, req driving.UpdateTaskRequest) (*domain.Task, error) {
	task, err := s.taskStore.Get(ctx, id, companyID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrInvalidInput)
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, *req.Status)
		}
		task.Status = *req.Status
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, *req.Priority)
		}
		task.Priority = *req.Priority
	}
	task.UpdatedAt = time.Now()

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	return task, nil
}

// Delete removes a task
func (s *taskService) Delete(ctx context.Context, id, companyID string) error {
	return s.taskStore.Delete(ctx, id, companyID)
}
