package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found or is
	// not visible inside the caller's company scope. The two cases are
	// merged on purpose so callers cannot probe for resources belonging
	// to other tenants.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition indicates a PRD status change that is not
	// allowed from the document's current status
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrVersionConflict indicates a concurrent version bump lost the
	// race against another writer
	ErrVersionConflict = errors.New("version conflict")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidCredentials indicates wrong email/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStoreFailure wraps an underlying persistence error. Raw store
	// errors never cross the HTTP boundary; the original is logged with
	// operation context instead.
	ErrStoreFailure = errors.New("store failure")
)
