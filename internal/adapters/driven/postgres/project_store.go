package postgres

import (
	"context"
	"database/sql"

	"github.com/planforge/planforge-core/internal/core/domain"
	"github.com/planforge/planforge-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ProjectStore = (*ProjectStore)(nil)

// ProjectStore implements driven.ProjectStore using PostgreSQL
type ProjectStore struct {
	db *DB
}

// NewProjectStore creates a new ProjectStore
func NewProjectStore(db *DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// Save creates or updates a project
func (s *ProjectStore) Save(ctx context.Context, project *domain.Project) error {
	query := `
		INSERT INTO projects (id, company_id, name, description, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		project.ID,
		project.CompanyID,
		project.Name,
		project.Description,
		string(project.Status),
		project.CreatedBy,
		project.CreatedAt,
		project.UpdatedAt,
	)
	return err
}

// Get retrieves a project by ID within the company scope
func (s *ProjectStore) Get(ctx context.Context, id, companyID string) (*domain.Project, error) {
	query := `
		SELECT id, company_id, name, description, status, created_by, created_at, updated_at
		FROM projects
		WHERE id = $1 AND company_id = $2
	`

	var project domain.Project
	err := s.db.QueryRowContext(ctx, query, id, companyID).Scan(
		&project.ID,
		&project.CompanyID,
		&project.Name,
		&project.Description,
		&project.Status,
		&project.CreatedBy,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &project, nil
}

// List retrieves all projects for a company, newest first
func (s *ProjectStore) List(ctx context.Context, companyID string) ([]*domain.Project, error) {
	query := `
		SELECT id, company_id, name, description, status, created_by, created_at, updated_at
		FROM projects
		WHERE company_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		var project domain.Project
		err := rows.Scan(
			&project.ID,
			&project.CompanyID,
			&project.Name,
			&project.Description,
			&project.Status,
			&project.CreatedBy,
			&project.CreatedAt,
			&project.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		projects = append(projects, &project)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return projects, nil
}

// Delete removes a project within the company scope
func (s *ProjectStore) Delete(ctx context.Context, id, companyID string) error {
	query := `DELETE FROM projects WHERE id = $1 AND company_id = $2`
	result, err := s.db.ExecContext(ctx, query, id, companyID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
