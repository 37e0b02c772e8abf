package mocks

import (
	"context"
	"sync"

	"github.com/planforge/planforge-core/internal/core/domain"
)

// MockCompanyStore is a mock implementation of CompanyStore for testing
type MockCompanyStore struct {
	mu        sync.RWMutex
	companies map[string]*domain.Company
}

// NewMockCompanyStore creates a new MockCompanyStore
func NewMockCompanyStore() *MockCompanyStore {
	return &MockCompanyStore{
		companies: make(map[string]*domain.Company),
	}
}

func (m *MockCompanyStore) Save(ctx context.Context, company *domain.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *company
	m.companies[company.ID] = &cp
	return nil
}

func (m *MockCompanyStore) Get(ctx context.Context, id string) (*domain.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	company, ok := m.companies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *company
	return &cp, nil
}
