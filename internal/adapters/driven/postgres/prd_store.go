package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/planforge/planforge-core/internal/core/domain"
	"github.com/planforge/planforge-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PRDStore = (*PRDStore)(nil)

// PRDStore implements driven.PRDStore using PostgreSQL
type PRDStore struct {
	db *DB
}

// NewPRDStore creates a new PRDStore
func NewPRDStore(db *DB) *PRDStore {
	return &PRDStore{db: db}
}

// Save creates a new PRD and its initial version snapshot in one
// transaction, so version history starts at 1.
func (s *PRDStore) Save(ctx context.Context, prd *domain.PRD) error {
	contentJSON, err := json.Marshal(prd.Content)
	if err != nil {
		return err
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO prds (id, company_id, project_id, title, content, status, version, created_by, approved_by, approved_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		_, err := tx.ExecContext(ctx, query,
			prd.ID,
			prd.CompanyID,
			prd.ProjectID,
			prd.Title,
			contentJSON,
			string(prd.Status),
			prd.Version,
			prd.CreatedBy,
			NullString(prd.ApprovedBy),
			NullTime(prd.ApprovedAt),
			prd.CreatedAt,
			prd.UpdatedAt,
		)
		if err != nil {
			return err
		}

		versionQuery := `
			INSERT INTO prd_versions (id, prd_id, version, title, content, created_by, changes_summary, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err = tx.ExecContext(ctx, versionQuery,
			domain.GenerateID(),
			prd.ID,
			prd.Version,
			prd.Title,
			contentJSON,
			prd.CreatedBy,
			"",
			prd.CreatedAt,
		)
		return err
	})
}

// Get retrieves a PRD by ID within the company scope
func (s *PRDStore) Get(ctx context.Context, id, companyID string) (*domain.PRD, error) {
	query := `
		SELECT id, company_id, project_id, title, content, status, version, created_by, approved_by, approved_at, created_at, updated_at
		FROM prds
		WHERE id = $1 AND company_id = $2
	`

	return scanPRD(s.db.QueryRowContext(ctx, query, id, companyID))
}

// GetDetail retrieves a PRD joined with project and creator names
func (s *PRDStore) GetDetail(ctx context.Context, id, companyID string) (*domain.PRDDetail, error) {
	query := `
		SELECT p.id, p.company_id, p.project_id, p.title, p.content, p.status, p.version, p.created_by, p.approved_by, p.approved_at, p.created_at, p.updated_at,
		       pr.name, u.name
		FROM prds p
		JOIN projects pr ON pr.id = p.project_id
		LEFT JOIN users u ON u.id = p.created_by
		WHERE p.id = $1 AND p.company_id = $2
	`

	var prd domain.PRD
	var contentJSON []byte
	var approvedBy sql.NullString
	var approvedAt sql.NullTime
	var projectName string
	var creatorName sql.NullString

	err := s.db.QueryRowContext(ctx, query, id, companyID).Scan(
		&prd.ID,
		&prd.CompanyID,
		&prd.ProjectID,
		&prd.Title,
		&contentJSON,
		&prd.Status,
		&prd.Version,
		&prd.CreatedBy,
		&approvedBy,
		&approvedAt,
		&prd.CreatedAt,
		&prd.UpdatedAt,
		&projectName,
		&creatorName,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	prd.ApprovedBy = StringPtr(approvedBy)
	prd.ApprovedAt = TimePtr(approvedAt)
	if err := unmarshalContent(contentJSON, &prd.Content); err != nil {
		return nil, err
	}

	return &domain.PRDDetail{
		PRD:         &prd,
		ProjectName: projectName,
		CreatorName: creatorName.String,
	}, nil
}

// GetByProject retrieves all PRDs for a project, newest first
func (s *PRDStore) GetByProject(ctx context.Context, projectID, companyID string) ([]*domain.PRD, error) {
	query := `
		SELECT id, company_id, project_id, title, content, status, version, created_by, approved_by, approved_at, created_at, updated_at
		FROM prds
		WHERE project_id = $1 AND company_id = $2
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, projectID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prds []*domain.PRD
	for rows.Next() {
		prd, err := scanPRDRow(rows)
		if err != nil {
			return nil, err
		}
		prds = append(prds, prd)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return prds, nil
}

// Update patches the mutable fields. The version column is deliberately
// absent from the SET list; only CreateVersion moves it.
func (s *PRDStore) Update(ctx context.Context, prd *domain.PRD) error {
	contentJSON, err := json.Marshal(prd.Content)
	if err != nil {
		return err
	}

	query := `
		UPDATE prds
		SET title = $1, content = $2, status = $3, approved_by = $4, approved_at = $5, updated_at = $6
		WHERE id = $7 AND company_id = $8
	`

	result, err := s.db.ExecContext(ctx, query,
		prd.Title,
		contentJSON,
		string(prd.Status),
		NullString(prd.ApprovedBy),
		NullTime(prd.ApprovedAt),
		prd.UpdatedAt,
		prd.ID,
		prd.CompanyID,
	)
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

// CreateVersion inserts the version snapshot and bumps the parent's
// version with a conditional write, all in one transaction. If another
// writer moved the version since the caller read it, the guard fails
// and the whole unit rolls back with ErrVersionConflict.
func (s *PRDStore) CreateVersion(ctx context.Context, version *domain.PRDVersion, expectedVersion int) error {
	contentJSON, err := json.Marshal(version.Content)
	if err != nil {
		return err
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		bump := `
			UPDATE prds
			SET version = $1, title = $2, content = $3, updated_at = $4
			WHERE id = $5 AND version = $6
		`
		result, err := tx.ExecContext(ctx, bump,
			version.Version,
			version.Title,
			contentJSON,
			version.CreatedAt,
			version.PRDID,
			expectedVersion,
		)
		if err != nil {
			return err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return domain.ErrVersionConflict
		}

		insert := `
			INSERT INTO prd_versions (id, prd_id, version, title, content, created_by, changes_summary, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err = tx.ExecContext(ctx, insert,
			version.ID,
			version.PRDID,
			version.Version,
			version.Title,
			contentJSON,
			version.CreatedBy,
			version.ChangesSummary,
			version.CreatedAt,
		)
		return err
	})
}

// GetVersion retrieves a single version snapshot
func (s *PRDStore) GetVersion(ctx context.Context, prdID string, version int) (*domain.PRDVersion, error) {
	query := `
		SELECT id, prd_id, version, title, content, created_by, changes_summary, created_at
		FROM prd_versions
		WHERE prd_id = $1 AND version = $2
	`

	var v domain.PRDVersion
	var contentJSON []byte

	err := s.db.QueryRowContext(ctx, query, prdID, version).Scan(
		&v.ID,
		&v.PRDID,
		&v.Version,
		&v.Title,
		&contentJSON,
		&v.CreatedBy,
		&v.ChangesSummary,
		&v.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := unmarshalContent(contentJSON, &v.Content); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVersions retrieves all version snapshots for a PRD, ascending
func (s *PRDStore) ListVersions(ctx context.Context, prdID string) ([]*domain.PRDVersion, error) {
	query := `
		SELECT id, prd_id, version, title, content, created_by, changes_summary, created_at
		FROM prd_versions
		WHERE prd_id = $1
		ORDER BY version ASC
	`

	rows, err := s.db.QueryContext(ctx, query, prdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*domain.PRDVersion
	for rows.Next() {
		var v domain.PRDVersion
		var contentJSON []byte

		err := rows.Scan(
			&v.ID,
			&v.PRDID,
			&v.Version,
			&v.Title,
			&contentJSON,
			&v.CreatedBy,
			&v.ChangesSummary,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if err := unmarshalContent(contentJSON, &v.Content); err != nil {
			return nil, err
		}
		versions = append(versions, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return versions, nil
}

// Delete removes a PRD within the company scope. Version rows and
// generated tasks are left in place.
func (s *PRDStore) Delete(ctx context.Context, id, companyID string) error {
	query := `DELETE FROM prds WHERE id = $1 AND company_id = $2`
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

func scanPRD(row *sql.Row) (*domain.PRD, error) {
	var prd domain.PRD
	var contentJSON []byte
	var approvedBy sql.NullString
	var approvedAt sql.NullTime

	err := row.Scan(
		&prd.ID,
		&prd.CompanyID,
		&prd.ProjectID,
		&prd.Title,
		&contentJSON,
		&prd.Status,
		&prd.Version,
		&prd.CreatedBy,
		&approvedBy,
		&approvedAt,
		&prd.CreatedAt,
		&prd.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	prd.ApprovedBy = StringPtr(approvedBy)
	prd.ApprovedAt = TimePtr(approvedAt)
	if err := unmarshalContent(contentJSON, &prd.Content); err != nil {
		return nil, err
	}
	return &prd, nil
}

func scanPRDRow(rows *sql.Rows) (*domain.PRD, error) {
	var prd domain.PRD
	var contentJSON []byte
	var approvedBy sql.NullString
	var approvedAt sql.NullTime

	err := rows.Scan(
		&prd.ID,
		&prd.CompanyID,
		&prd.ProjectID,
		&prd.Title,
		&contentJSON,
		&prd.Status,
		&prd.Version,
		&prd.CreatedBy,
		&approvedBy,
		&approvedAt,
		&prd.CreatedAt,
		&prd.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	prd.ApprovedBy = StringPtr(approvedBy)
	prd.ApprovedAt = TimePtr(approvedAt)
	if err := unmarshalContent(contentJSON, &prd.Content); err != nil {
		return nil, err
	}
	return &prd, nil
}

func unmarshalContent(data []byte, content *map[string]any) error {
	if len(data) > 0 {
		if err := json.Unmarshal(data, content); err != nil {
			return err
		}
	}
	if *content == nil {
		*content = make(map[string]any)
	}
	return nil
}
