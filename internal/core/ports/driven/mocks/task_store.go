package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/planforge/planforge-core/internal/core/domain"
)

// MockTaskStore is a mock implementation of TaskStore for testing
type MockTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task

	// SaveBatchFn overrides SaveBatch when set (for failure injection)
	SaveBatchFn func(tasks []*domain.Task) error
}

// NewMockTaskStore creates a new MockTaskStore
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		tasks: make(map[string]*domain.Task),
	}
}

func (m *MockTaskStore) Save(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *task
	m.tasks[task.ID] = &cp
	return nil
}

func (m *MockTaskStore) SaveBatch(ctx context.Context, tasks []*domain.Task) error {
	if m.SaveBatchFn != nil {
		return m.SaveBatchFn(tasks)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, task := range tasks {
		cp := *task
		m.tasks[task.ID] = &cp
	}
	return nil
}

func (m *MockTaskStore) Get(ctx context.Context, id, companyID string) (*domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok || task.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	cp := *task
	return &cp, nil
}

func (m *MockTaskStore) GetByProject(ctx context.Context, projectID, companyID string) ([]*domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var tasks []*domain.Task
	for _, task := range m.tasks {
		if task.ProjectID == projectID && task.CompanyID == companyID {
			cp := *task
			tasks = append(tasks, &cp)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (m *MockTaskStore) GetByPRD(ctx context.Context, prdID, companyID string) ([]*domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var tasks []*domain.Task
	for _, task := range m.tasks {
		if task.PRDID == prdID && task.CompanyID == companyID {
			cp := *task
			tasks = append(tasks, &cp)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (m *MockTaskStore) CountByProject(ctx context.Context, projectID, companyID string) (int, error) {
	tasks, err := m.GetByProject(ctx, projectID, companyID)
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}

func (m *MockTaskStore) Delete(ctx context.Context, id, companyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}
