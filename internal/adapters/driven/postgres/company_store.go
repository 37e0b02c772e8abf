package postgres

import (
	"context"
	"database/sql"

	"github.com/planforge/planforge-core/internal/core/domain"
	"github.com/planforge/planforge-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CompanyStore = (*CompanyStore)(nil)

// CompanyStore implements driven.CompanyStore using PostgreSQL
type CompanyStore struct {
	db *DB
}

// NewCompanyStore creates a new CompanyStore
func NewCompanyStore(db *DB) *CompanyStore {
	return &CompanyStore{db: db}
}

// Save creates or updates a company
func (s *CompanyStore) Save(ctx context.Context, company *domain.Company) error {
	query := `
		INSERT INTO companies (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		company.ID,
		company.Name,
		company.CreatedAt,
		company.UpdatedAt,
	)
	return err
}

// Get retrieves a company by ID
func (s *CompanyStore) Get(ctx context.Context, id string) (*domain.Company, error) {
	query := `SELECT id, name, created_at, updated_at FROM companies WHERE id = $1`

	var company domain.Company
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&company.ID,
		&company.Name,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &company, nil
}
