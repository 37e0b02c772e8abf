package domain

import "time"

// Role defines user permission level within a company
type Role string

const (
	RoleAdmin  Role = "admin"  // Manage users, projects, approve PRDs
	RoleEditor Role = "editor" // Create and edit PRDs, manage tasks
	RoleViewer Role = "viewer" // Read-only access
)

// User represents a company member
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never serialize
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	CompanyID    string     `json:"company_id"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Company represents a tenant. Every project, PRD and task belongs to
// exactly one company; the company id is the scoping boundary for all
// reads and writes.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSummary provides a safe view of user data (no password hash)
type UserSummary struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        Role       `json:"role"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// ToSummary converts a User to UserSummary
func (u *User) ToSummary() *UserSummary {
	return &UserSummary{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
	}
}

// IsAdmin checks if the user has admin privileges
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanWrite checks if the user can create or edit PRDs and tasks
func (u *User) CanWrite() bool {
	return u.Active && (u.Role == RoleAdmin || u.Role == RoleEditor)
}

// CanApprove checks if the user can approve or reject PRDs
func (u *User) CanApprove() bool {
	return u.Active && u.Role == RoleAdmin
}
