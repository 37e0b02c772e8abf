package postgres

import (
	"context"
	"database/sql"

	"github.com/planforge/planforge-core/internal/core/domain"
	"github.com/planforge/planforge-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TaskStore = (*TaskStore)(nil)

// TaskStore implements driven.TaskStore using PostgreSQL
type TaskStore struct {
	db *DB
}

// NewTaskStore creates a new TaskStore
func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

// Save creates or updates a task
func (s *TaskStore) Save(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (id, project_id, company_id, prd_id, title, description, status, priority, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.ProjectID,
		task.CompanyID,
		nullIfEmpty(task.PRDID),
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.CreatedBy,
		task.CreatedAt,
		task.UpdatedAt,
	)
	return err
}

// SaveBatch inserts all tasks in one transaction. Either every row
// lands or none do.
func (s *TaskStore) SaveBatch(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO tasks (id, project_id, company_id, prd_id, title, description, status, priority, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, task := range tasks {
			_, err := stmt.ExecContext(ctx,
				task.ID,
				task.ProjectID,
				task.CompanyID,
				nullIfEmpty(task.PRDID),
				task.Title,
				task.Description,
				string(task.Status),
				string(task.Priority),
				task.CreatedBy,
				task.CreatedAt,
				task.UpdatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Get retrieves a task by ID within the company scope
func (s *TaskStore) Get(ctx context.Context, id, companyID string) (*domain.Task, error) {
	query := `
		SELECT id, project_id, company_id, prd_id, title, description, status, priority, created_by, created_at, updated_at
		FROM tasks
		WHERE id = $1 AND company_id = $2
	`

	var task domain.Task
	var prdID sql.NullString

	err := s.db.QueryRowContext(ctx, query, id, companyID).Scan(
		&task.ID,
		&task.ProjectID,
		&task.CompanyID,
		&prdID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.CreatedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	task.PRDID = prdID.String
	return &task, nil
}

// GetByProject retrieves all tasks for a project, newest first
func (s *TaskStore) GetByProject(ctx context.Context, projectID, companyID string) ([]*domain.Task, error) {
	query := `
		SELECT id, project_id, company_id, prd_id, title, description, status, priority, created_by, created_at, updated_at
		FROM tasks
		WHERE project_id = $1 AND company_id = $2
		ORDER BY created_at DESC
	`
	return s.queryTasks(ctx, query, projectID, companyID)
}

// GetByPRD retrieves all tasks generated from a PRD
func (s *TaskStore) GetByPRD(ctx context.Context, prdID, companyID string) ([]*domain.Task, error) {
	query := `
		SELECT id, project_id, company_id, prd_id, title, description, status, priority, created_by, created_at, updated_at
		FROM tasks
		WHERE prd_id = $1 AND company_id = $2
		ORDER BY created_at ASC
	`
	return s.queryTasks(ctx, query, prdID, companyID)
}

// CountByProject returns the task count for a project
func (s *TaskStore) CountByProject(ctx context.Context, projectID, companyID string) (int, error) {
	query := `SELECT COUNT(*) FROM tasks WHERE project_id = $1 AND company_id = $2`

	var count int
	if err := s.db.QueryRowContext(ctx, query, projectID, companyID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes a task within the company scope
func (s *TaskStore) Delete(ctx context.Context, id, companyID string) error {
	query := `DELETE FROM tasks WHERE id = $1 AND company_id = $2`
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

func (s *TaskStore) queryTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		var task domain.Task
		var prdID sql.NullString

		err := rows.Scan(
			&task.ID,
			&task.ProjectID,
			&task.CompanyID,
			&prdID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.Priority,
			&task.CreatedBy,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		task.PRDID = prdID.String
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
