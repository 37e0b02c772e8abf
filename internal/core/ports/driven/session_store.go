package driven

import (
	"context"

	"github.com/planforge/planforge-core/internal/core/domain"
)

// SessionStore handles session persistence (Redis preferred, PostgreSQL fallback)
type SessionStore interface {
	// Save stores a session with TTL based on ExpiresAt
	Save(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by ID
	Get(ctx context.Context, id string) (*domain.Session, error)

	// GetByRefreshToken retrieves a session by refresh token value
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)

	// Delete deletes a session
	Delete(ctx context.Context, id string) error

	// DeleteByUser deletes all sessions for a user (logout everywhere)
	DeleteByUser(ctx context.Context, userID string) error

	// DeleteExpired removes sessions past their expiry, returning the
	// number removed. Redis implementations rely on TTL and may no-op.
	DeleteExpired(ctx context.Context) (int, error)
}
