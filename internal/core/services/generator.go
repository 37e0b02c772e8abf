package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/planforge/planforge-core/internal/core/domain"
	"github.com/planforge/planforge-core/internal/core/ports/driven"
)

// TaskGenerator derives board tasks from the structured content of an
// approved PRD. Content is treated as untrusted input: entries that are
// not shaped like a feature degrade to defaults instead of aborting the
// batch.
type TaskGenerator struct {
	taskStore driven.TaskStore
	logger    *slog.Logger
}

// NewTaskGenerator creates a new TaskGenerator
func NewTaskGenerator(taskStore driven.TaskStore, logger *slog.Logger) *TaskGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskGenerator{
		taskStore: taskStore,
		logger:    logger,
	}
}

// Generate extracts the "features" list from the PRD content and writes
// one backlog task per entry in a single batch. A missing or malformed
// features list yields zero tasks and no error. Returns the number of
// tasks written.
func (g *TaskGenerator) Generate(ctx context.Context, prd *domain.PRD, approverID string) (int, error) {
	features, ok := prd.Content["features"].([]any)
	if !ok || len(features) == 0 {
		return 0, nil
	}

	now := time.Now()
	tasks := make([]*domain.Task, 0, len(features))
	for _, entry := range features {
		// Non-map entries produce a fully defaulted task
		feature, _ := entry.(map[string]any)

		tasks = append(tasks, &domain.Task{
			ID:          domain.GenerateID(),
			ProjectID:   prd.ProjectID,
			CompanyID:   prd.CompanyID,
			PRDID:       prd.ID,
			Title:       featureString(feature, "Untitled Task", "name", "title"),
			Description: featureString(feature, "", "desc", "description"),
			Status:      domain.TaskStatusBacklog,
			Priority:    domain.TaskPriorityMedium,
			CreatedBy:   approverID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if err := g.taskStore.SaveBatch(ctx, tasks); err != nil {
		return 0, fmt.Errorf("failed to save generated tasks: %w", err)
	}

	return len(tasks), nil
}

// featureString returns the first non-empty string value among keys,
// falling back to def. Missing keys and non-string values fall through.
func featureString(feature map[string]any, def string, keys ...string) string {
	for _, key := range keys {
		if v, ok := feature[key].(string); ok && v != "" {
			return v
		}
	}
	return def
}
