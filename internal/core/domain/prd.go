package domain

import "time"

// PRDStatus represents the workflow state of a PRD.
// The set is closed: draft -> review -> approved | rejected.
type PRDStatus string

const (
	PRDStatusDraft    PRDStatus = "draft"
	PRDStatusReview   PRDStatus = "review"
	PRDStatusApproved PRDStatus = "approved"
	PRDStatusRejected PRDStatus = "rejected"
)

// prdTransitions is the guarded transition table. Any (from, to) pair
// not listed here is rejected with ErrInvalidTransition.
var prdTransitions = map[PRDStatus][]PRDStatus{
	PRDStatusDraft:  {PRDStatusReview},
	PRDStatusReview: {PRDStatusApproved, PRDStatusRejected},
}

// Valid reports whether the status is one of the known states
func (s PRDStatus) Valid() bool {
	switch s {
	case PRDStatusDraft, PRDStatusReview, PRDStatusApproved, PRDStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed
func (s PRDStatus) Terminal() bool {
	return len(prdTransitions[s]) == 0 && s.Valid()
}

// CanTransitionTo reports whether moving from s to target is allowed
func (s PRDStatus) CanTransitionTo(target PRDStatus) bool {
	for _, t := range prdTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// PRD is a versioned product requirements document owned by a project.
// Content is an opaque structured payload; the engine only inspects it
// during task generation, after approval.
type PRD struct {
	ID         string         `json:"id"`
	CompanyID  string         `json:"company_id"`
	ProjectID  string         `json:"project_id"`
	Title      string         `json:"title"`
	Content    map[string]any `json:"content"`
	Status     PRDStatus      `json:"status"`
	Version    int            `json:"version"`
	CreatedBy  string         `json:"created_by"`
	ApprovedBy *string        `json:"approved_by,omitempty"`
	ApprovedAt *time.Time     `json:"approved_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// PRDVersion is an immutable snapshot taken on each accepted revision.
// For a given PRD the version numbers form a contiguous ascending
// sequence starting at 1.
type PRDVersion struct {
	ID             string         `json:"id"`
	PRDID          string         `json:"prd_id"`
	Version        int            `json:"version"`
	Title          string         `json:"title"`
	Content        map[string]any `json:"content"`
	CreatedBy      string         `json:"created_by"`
	ChangesSummary string         `json:"changes_summary,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// PRDDetail joins a PRD with the minimal related fields callers need
// for a detail view
type PRDDetail struct {
	*PRD
	ProjectName string `json:"project_name,omitempty"`
	CreatorName string `json:"creator_name,omitempty"`
}
