package driven

import (
	"context"

	"github.com/planforge/planforge-core/internal/core/domain"
)

// CompanyStore handles company (tenant) persistence (PostgreSQL)
type CompanyStore interface {
	// Save creates or updates a company
	Save(ctx context.Context, company *domain.Company) error

	// Get retrieves a company by ID
	Get(ctx context.Context, id string) (*domain.Company, error)
}
