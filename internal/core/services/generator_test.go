package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/planforge/planforge-core/internal/core/domain"
	"github.com/planforge/planforge-core/internal/core/ports/driven/mocks"
)

func testPRD(content map[string]any) *domain.PRD {
	now := time.Now()
	return &domain.PRD{
		ID:        "prd-1",
		CompanyID: "company-1",
		ProjectID: "proj-1",
		Title:     "Checkout Flow",
		Content:   content,
		Status:    domain.PRDStatusApproved,
		Version:   1,
		CreatedBy: "editor-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTaskGenerator_Defaulting(t *testing.T) {
	tests := []struct {
		name      string
		feature   any
		wantTitle string
		wantDesc  string
	}{
		{
			name:      "empty feature",
			feature:   map[string]any{},
			wantTitle: "Untitled Task",
			wantDesc:  "",
		},
		{
			name:      "name only",
			feature:   map[string]any{"name": "User Login"},
			wantTitle: "User Login",
			wantDesc:  "",
		},
		{
			name:      "title and description",
			feature:   map[string]any{"title": "Dashboard", "description": "Landing page"},
			wantTitle: "Dashboard",
			wantDesc:  "Landing page",
		},
		{
			name:      "name wins over title",
			feature:   map[string]any{"name": "User Login", "title": "Ignored"},
			wantTitle: "User Login",
			wantDesc:  "",
		},
		{
			name:      "desc wins over description",
			feature:   map[string]any{"name": "X", "desc": "short", "description": "long"},
			wantTitle: "X",
			wantDesc:  "short",
		},
		{
			name:      "empty name falls through to title",
			feature:   map[string]any{"name": "", "title": "Dashboard"},
			wantTitle: "Dashboard",
			wantDesc:  "",
		},
		{
			name:      "non-string values fall through",
			feature:   map[string]any{"name": 42, "desc": true},
			wantTitle: "Untitled Task",
			wantDesc:  "",
		},
		{
			name:      "non-map entry degrades to defaults",
			feature:   "just a string",
			wantTitle: "Untitled Task",
			wantDesc:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockTaskStore()
			gen := NewTaskGenerator(store, nil)

			prd := testPRD(map[string]any{"features": []any{tt.feature}})
			count, err := gen.Generate(context.Background(), prd, "admin-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if count != 1 {
				t.Fatalf("expected 1 task, got %d", count)
			}

			tasks, _ := store.GetByPRD(context.Background(), prd.ID, prd.CompanyID)
			if len(tasks) != 1 {
				t.Fatalf("expected 1 stored task, got %d", len(tasks))
			}
			if tasks[0].Title != tt.wantTitle {
				t.Errorf("expected title %q, got %q", tt.wantTitle, tasks[0].Title)
			}
			if tasks[0].Description != tt.wantDesc {
				t.Errorf("expected description %q, got %q", tt.wantDesc, tasks[0].Description)
			}
		})
	}
}

func TestTaskGenerator_NoFeatures(t *testing.T) {
	tests := []struct {
		name    string
		content map[string]any
	}{
		{name: "features absent", content: map[string]any{"summary": "text"}},
		{name: "features not a list", content: map[string]any{"features": "oops"}},
		{name: "features a map", content: map[string]any{"features": map[string]any{"name": "X"}}},
		{name: "features empty list", content: map[string]any{"features": []any{}}},
		{name: "empty content", content: map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockTaskStore()
			gen := NewTaskGenerator(store, nil)

			count, err := gen.Generate(context.Background(), testPRD(tt.content), "admin-1")
			if err != nil {
				t.Fatalf("expected success with zero tasks, got %v", err)
			}
			if count != 0 {
				t.Errorf("expected 0 tasks, got %d", count)
			}
		})
	}
}

func TestTaskGenerator_MixedEntries(t *testing.T) {
	store := mocks.NewMockTaskStore()
	gen := NewTaskGenerator(store, nil)

	// A malformed entry never aborts the batch
	prd := testPRD(map[string]any{
		"features": []any{
			map[string]any{"name": "User Login"},
			42,
			map[string]any{"title": "Dashboard"},
		},
	})
	count, err := gen.Generate(context.Background(), prd, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 tasks, got %d", count)
	}
}

func TestTaskGenerator_TaskFields(t *testing.T) {
	store := mocks.NewMockTaskStore()
	gen := NewTaskGenerator(store, nil)

	prd := testPRD(map[string]any{
		"features": []any{map[string]any{"name": "User Login"}},
	})
	if _, err := gen.Generate(context.Background(), prd, "admin-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks, _ := store.GetByPRD(context.Background(), prd.ID, prd.CompanyID)
	task := tasks[0]
	if task.ProjectID != prd.ProjectID {
		t.Errorf("expected project %s, got %s", prd.ProjectID, task.ProjectID)
	}
	if task.CompanyID != prd.CompanyID {
		t.Errorf("expected company %s, got %s", prd.CompanyID, task.CompanyID)
	}
	if task.PRDID != prd.ID {
		t.Errorf("expected prd %s, got %s", prd.ID, task.PRDID)
	}
	if task.Status != domain.TaskStatusBacklog {
		t.Errorf("expected backlog, got %s", task.Status)
	}
	if task.Priority != domain.TaskPriorityMedium {
		t.Errorf("expected medium, got %s", task.Priority)
	}
	if task.CreatedBy != "admin-1" {
		t.Errorf("expected created_by admin-1, got %s", task.CreatedBy)
	}
	if task.ID == "" {
		t.Error("expected a generated id")
	}
}

func TestTaskGenerator_BatchFailure(t *testing.T) {
	store := mocks.NewMockTaskStore()
	store.SaveBatchFn = func(tasks []*domain.Task) error {
		return errors.New("store unavailable")
	}
	gen := NewTaskGenerator(store, nil)

	prd := testPRD(map[string]any{
		"features": []any{map[string]any{"name": "User Login"}},
	})
	count, err := gen.Generate(context.Background(), prd, "admin-1")
	if err == nil {
		t.Fatal("expected error from failed batch")
	}
	if count != 0 {
		t.Errorf("expected 0 written tasks, got %d", count)
	}
}
