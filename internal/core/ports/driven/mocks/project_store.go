package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/planforge/planforge-core/internal/core/domain"
)

// MockProjectStore is a mock implementation of ProjectStore for testing
type MockProjectStore struct {
	mu       sync.RWMutex
	projects map[string]*domain.Project
}

// NewMockProjectStore creates a new MockProjectStore
func NewMockProjectStore() *MockProjectStore {
	return &MockProjectStore{
		projects: make(map[string]*domain.Project),
	}
}

func (m *MockProjectStore) Save(ctx context.Context, project *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *project
	m.projects[project.ID] = &cp
	return nil
}

func (m *MockProjectStore) Get(ctx context.Context, id, companyID string) (*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	project, ok := m.projects[id]
	if !ok || project.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	cp := *project
	return &cp, nil
}

func (m *MockProjectStore) List(ctx context.Context, companyID string) ([]*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var projects []*domain.Project
	for _, project := range m.projects {
		if project.CompanyID == companyID {
			cp := *project
			projects = append(projects, &cp)
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

func (m *MockProjectStore) Delete(ctx context.Context, id, companyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[id]
	if !ok || project.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}
