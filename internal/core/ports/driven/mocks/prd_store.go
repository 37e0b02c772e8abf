package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/planforge/planforge-core/internal/core/domain"
)

// MockPRDStore is a mock implementation of PRDStore for testing
type MockPRDStore struct {
	mu       sync.RWMutex
	prds     map[string]*domain.PRD
	versions map[string][]*domain.PRDVersion // key: prd id

	// ProjectNames maps project id to name for GetDetail joins
	ProjectNames map[string]string
	// UserNames maps user id to display name for GetDetail joins
	UserNames map[string]string

	// Custom behavior hooks (optional)
	SaveFn          func(prd *domain.PRD) error
	UpdateFn        func(prd *domain.PRD) error
	CreateVersionFn func(version *domain.PRDVersion, expectedVersion int) error
}

// NewMockPRDStore creates a new MockPRDStore
func NewMockPRDStore() *MockPRDStore {
	return &MockPRDStore{
		prds:         make(map[string]*domain.PRD),
		versions:     make(map[string][]*domain.PRDVersion),
		ProjectNames: make(map[string]string),
		UserNames:    make(map[string]string),
	}
}

// Save stores the PRD and records the initial version snapshot, the
// same unit the Postgres store writes in one transaction.
func (m *MockPRDStore) Save(ctx context.Context, prd *domain.PRD) error {
	if m.SaveFn != nil {
		return m.SaveFn(prd)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *prd
	m.prds[prd.ID] = &cp
	m.versions[prd.ID] = append(m.versions[prd.ID], &domain.PRDVersion{
		ID:        prd.ID + "-v1",
		PRDID:     prd.ID,
		Version:   prd.Version,
		Title:     prd.Title,
		Content:   prd.Content,
		CreatedBy: prd.CreatedBy,
		CreatedAt: prd.CreatedAt,
	})
	return nil
}

func (m *MockPRDStore) Get(ctx context.Context, id, companyID string) (*domain.PRD, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prd, ok := m.prds[id]
	if !ok || prd.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	cp := *prd
	return &cp, nil
}

func (m *MockPRDStore) GetDetail(ctx context.Context, id, companyID string) (*domain.PRDDetail, error) {
	prd, err := m.Get(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &domain.PRDDetail{
		PRD:         prd,
		ProjectName: m.ProjectNames[prd.ProjectID],
		CreatorName: m.UserNames[prd.CreatedBy],
	}, nil
}

func (m *MockPRDStore) GetByProject(ctx context.Context, projectID, companyID string) ([]*domain.PRD, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var prds []*domain.PRD
	for _, prd := range m.prds {
		if prd.ProjectID == projectID && prd.CompanyID == companyID {
			cp := *prd
			prds = append(prds, &cp)
		}
	}
	sort.Slice(prds, func(i, j int) bool {
		return prds[i].CreatedAt.After(prds[j].CreatedAt)
	})
	return prds, nil
}

func (m *MockPRDStore) Update(ctx context.Context, prd *domain.PRD) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(prd)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.prds[prd.ID]
	if !ok || existing.CompanyID != prd.CompanyID {
		return domain.ErrNotFound
	}
	cp := *prd
	cp.Version = existing.Version // Update never touches the version column
	m.prds[prd.ID] = &cp
	return nil
}

// CreateVersion mirrors the conditional bump the Postgres store does:
// the parent must still hold expectedVersion or the call fails with
// ErrVersionConflict and nothing is written.
func (m *MockPRDStore) CreateVersion(ctx context.Context, version *domain.PRDVersion, expectedVersion int) error {
	if m.CreateVersionFn != nil {
		return m.CreateVersionFn(version, expectedVersion)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prd, ok := m.prds[version.PRDID]
	if !ok {
		return domain.ErrNotFound
	}
	if prd.Version != expectedVersion {
		return domain.ErrVersionConflict
	}

	cp := *version
	m.versions[version.PRDID] = append(m.versions[version.PRDID], &cp)
	prd.Version = version.Version
	prd.UpdatedAt = version.CreatedAt
	return nil
}

func (m *MockPRDStore) GetVersion(ctx context.Context, prdID string, version int) (*domain.PRDVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.versions[prdID] {
		if v.Version == version {
			cp := *v
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPRDStore) ListVersions(ctx context.Context, prdID string) ([]*domain.PRDVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := make([]*domain.PRDVersion, 0, len(m.versions[prdID]))
	for _, v := range m.versions[prdID] {
		cp := *v
		versions = append(versions, &cp)
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Version < versions[j].Version
	})
	return versions, nil
}

func (m *MockPRDStore) Delete(ctx context.Context, id, companyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prd, ok := m.prds[id]
	if !ok || prd.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(m.prds, id)
	return nil
}
