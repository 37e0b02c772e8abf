package services

import (
	"context"
	"testing"

	"github.com/planforge/planforge-core/internal/core/domain"
	"github.com/planforge/planforge-core/internal/core/ports/driven/mocks"
	"github.com/planforge/planforge-core/internal/core/ports/driving"
)

func newTestUserService() (*mocks.MockUserStore, *mocks.MockCompanyStore, *mocks.MockSessionStore, driving.UserService) {
	userStore := mocks.NewMockUserStore()
	companyStore := mocks.NewMockCompanyStore()
	sessionStore := mocks.NewMockSessionStore()
	svc := NewUserService(userStore, companyStore, sessionStore, mocks.NewMockAuthAdapter())
	return userStore, companyStore, sessionStore, svc
}

func TestUserService_Setup(t *testing.T) {
	_, companyStore, _, svc := newTestUserService()

	resp, err := svc.Setup(context.Background(), driving.SetupRequest{
		CompanyName: "Acme Corp",
		Email:       "admin@acme.com",
		Password:    "secret",
		Name:        "Admin",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.User.Role != domain.RoleAdmin {
		t.Errorf("expected admin role, got %s", resp.User.Role)
	}
	if resp.User.CompanyID == "" {
		t.Fatal("expected a company to be created")
	}
	company, err := companyStore.Get(context.Background(), resp.User.CompanyID)
	if err != nil {
		t.Fatalf("expected company row, got %v", err)
	}
	if company.Name != "Acme Corp" {
		t.Errorf("expected company Acme Corp, got %s", company.Name)
	}

	// Setup with an already registered email is rejected
	_, err = svc.Setup(context.Background(), driving.SetupRequest{
		CompanyName: "Acme Corp",
		Email:       "admin@acme.com",
		Password:    "secret",
		Name:        "Admin",
	})
	if err != domain.ErrForbidden {
		t.Errorf("expected ErrForbidden for repeated setup, got %v", err)
	}
}

func TestUserService_Setup_Validation(t *testing.T) {
	_, _, _, svc := newTestUserService()

	tests := []struct {
		name string
		req  driving.SetupRequest
	}{
		{name: "missing company", req: driving.SetupRequest{Email: "a@b.c", Password: "p", Name: "N"}},
		{name: "missing email", req: driving.SetupRequest{CompanyName: "C", Password: "p", Name: "N"}},
		{name: "missing password", req: driving.SetupRequest{CompanyName: "C", Email: "a@b.c", Name: "N"}},
		{name: "missing name", req: driving.SetupRequest{CompanyName: "C", Email: "a@b.c", Password: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Setup(context.Background(), tt.req); err != domain.ErrInvalidInput {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestUserService_Create(t *testing.T) {
	_, _, _, svc := newTestUserService()

	user, err := svc.Create(context.Background(), "company-1", driving.CreateUserRequest{
		Email:    " Editor@Acme.com ",
		Password: "secret",
		Name:     "Editor",
		Role:     domain.RoleEditor,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "editor@acme.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if !user.Active {
		t.Error("expected new users to be active")
	}

	// Duplicate email
	_, err = svc.Create(context.Background(), "company-1", driving.CreateUserRequest{
		Email:    "editor@acme.com",
		Password: "secret",
		Name:     "Editor Again",
		Role:     domain.RoleEditor,
	})
	if err != domain.ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	// Unknown role
	_, err = svc.Create(context.Background(), "company-1", driving.CreateUserRequest{
		Email:    "other@acme.com",
		Password: "secret",
		Name:     "Other",
		Role:     "owner",
	})
	if err != domain.ErrInvalidInput {
		t.Errorf("expected ErrInvalidInput for unknown role, got %v", err)
	}
}

func TestUserService_Update_DeactivateKillsSessions(t *testing.T) {
	_, _, sessionStore, svc := newTestUserService()

	user, _ := svc.Create(context.Background(), "company-1", driving.CreateUserRequest{
		Email:    "editor@acme.com",
		Password: "secret",
		Name:     "Editor",
		Role:     domain.RoleEditor,
	})
	_ = sessionStore.Save(context.Background(), &domain.Session{
		ID:     "session-1",
		UserID: user.ID,
	})

	inactive := false
	updated, err := svc.Update(context.Background(), user.ID, driving.UpdateUserRequest{Active: &inactive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Active {
		t.Error("expected user to be deactivated")
	}
	if _, err := sessionStore.Get(context.Background(), "session-1"); err != domain.ErrNotFound {
		t.Errorf("expected sessions to be deleted on deactivation, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	userStore, _, sessionStore, svc := newTestUserService()

	user, _ := svc.Create(context.Background(), "company-1", driving.CreateUserRequest{
		Email:    "editor@acme.com",
		Password: "secret",
		Name:     "Editor",
		Role:     domain.RoleEditor,
	})
	_ = sessionStore.Save(context.Background(), &domain.Session{ID: "session-1", UserID: user.ID})

	if err := svc.Delete(context.Background(), user.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := userStore.Get(context.Background(), user.ID); err != domain.ErrNotFound {
		t.Errorf("expected user to be gone, got %v", err)
	}
	if _, err := sessionStore.Get(context.Background(), "session-1"); err != domain.ErrNotFound {
		t.Errorf("expected sessions to be deleted, got %v", err)
	}

	if err := svc.Delete(context.Background(), "missing"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
