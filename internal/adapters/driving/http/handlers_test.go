package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/planforge/planforge-core/internal/core/domain"
	"github.com/planforge/planforge-core/internal/core/ports/driving"
)

// Mock services for testing

type mockAuthService struct {
	authenticateFn  func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	validateTokenFn func(ctx context.Context, token string) (*domain.AuthContext, error)
	refreshTokenFn  func(ctx context.Context, req domain.RefreshRequest) (*domain.LoginResponse, error)
	logoutFn        func(ctx context.Context, token string) error
}

func (m *mockAuthService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) RefreshToken(ctx context.Context, req domain.RefreshRequest) (*domain.LoginResponse, error) {
	if m.refreshTokenFn != nil {
		return m.refreshTokenFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil
}

func (m *mockAuthService) LogoutAll(ctx context.Context, userID string) error {
	return nil
}

func (m *mockAuthService) ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error {
	return nil
}

type mockUserService struct {
	setupFn  func(ctx context.Context, req driving.SetupRequest) (*driving.SetupResponse, error)
	createFn func(ctx context.Context, companyID string, req driving.CreateUserRequest) (*domain.User, error)
	getFn    func(ctx context.Context, id string) (*domain.User, error)
	listFn   func(ctx context.Context, companyID string) ([]*domain.User, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockUserService) Setup(ctx context.Context, req driving.SetupRequest) (*driving.SetupResponse, error) {
	if m.setupFn != nil {
		return m.setupFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) Create(ctx context.Context, companyID string, req driving.CreateUserRequest) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, companyID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) List(ctx context.Context, companyID string) ([]*domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx, companyID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) Update(ctx context.Context, id string, req driving.UpdateUserRequest) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockUserService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return errors.New("not implemented")
}

type mockProjectService struct {
	createFn          func(ctx context.Context, actor *domain.AuthContext, req driving.CreateProjectRequest) (*domain.Project, error)
	getFn             func(ctx context.Context, id, companyID string) (*domain.Project, error)
	listFn            func(ctx context.Context, companyID string) ([]*domain.Project, error)
	listWithSummaryFn func(ctx context.Context, companyID string) ([]*domain.ProjectSummary, error)
	deleteFn          func(ctx context.Context, id, companyID string) error
}

func (m *mockProjectService) Create(ctx context.Context, actor *domain.AuthContext, req driving.CreateProjectRequest) (*domain.Project, error) {
	if m.createFn != nil {
		return m.createFn(ctx, actor, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProjectService) Get(ctx context.Context, id, companyID string) (*domain.Project, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id, companyID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProjectService) List(ctx context.Context, companyID string) ([]*domain.Project, error) {
	if m.listFn != nil {
		return m.listFn(ctx, companyID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProjectService) ListWithSummary(ctx context.Context, companyID string) ([]*domain.ProjectSummary, error) {
	if m.listWithSummaryFn != nil {
		return m.listWithSummaryFn(ctx, companyID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProjectService) Update(ctx context.Context, id, companyID string, req driving.UpdateProjectRequest) (*domain.Project, error) {
	return nil, errors.New("not implemented")
}

func (m *mockProjectService) Delete(ctx context.Context, id, companyID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, companyID)
	}
	return errors.New("not implemented")
}

type mockPRDService struct {
	createFn        func(ctx context.Context, actor *domain.AuthContext, req driving.CreatePRDRequest) (*domain.PRD, error)
	getFn           func(ctx context.Context, id, companyID string) (*domain.PRDDetail, error)
	listByProjectFn func(ctx context.Context, projectID, companyID string) ([]*domain.PRD, error)
	updateFn        func(ctx context.Context, id, companyID string, req driving.UpdatePRDRequest) (*domain.PRD, error)
	createVersionFn func(ctx context.Context, id, companyID string, actor *domain.AuthContext, req driving.CreateVersionRequest) (*domain.PRDVersion, error)
	listVersionsFn  func(ctx context.Context, id, companyID string) ([]*domain.PRDVersion, error)
	submitFn        func(ctx context.Context, id, companyID string, actor *domain.AuthContext) (*domain.PRD, error)
	decideFn        func(ctx context.Context, id, companyID string, actor *domain.AuthContext, req driving.DecideRequest) (*domain.PRD, error)
	deleteFn        func(ctx context.Context, id, companyID string) error
}

func (m *mockPRDService) Create(ctx context.Context, actor *domain.AuthContext, req driving.CreatePRDRequest) (*domain.PRD, error) {
	if m.createFn != nil {
		return m.createFn(ctx, actor, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPRDService) Get(ctx context.Context, id, companyID string) (*domain.PRDDetail, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id, companyID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPRDService) ListByProject(ctx context.Context, projectID, companyID string) ([]*domain.PRD, error) {
	if m.listByProjectFn != nil {
		return m.listByProjectFn(ctx, projectID, companyID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPRDService) Update(ctx context.Context, id, companyID string, req driving.UpdatePRDRequest) (*domain.PRD, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, companyID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPRDService) CreateVersion(ctx context.Context, id, companyID string, actor *domain.AuthContext, req driving.CreateVersionRequest) (*domain.PRDVersion, error) {
	if m.createVersionFn != nil {
		return m.createVersionFn(ctx, id, companyID, actor, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPRDService) ListVersions(ctx context.Context, id, companyID string) ([]*domain.PRDVersion, error) {
	if m.listVersionsFn != nil {
		return m.listVersionsFn(ctx, id, companyID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPRDService) Submit(ctx context.Context, id, companyID string, actor *domain.AuthContext) (*domain.PRD, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, id, companyID, actor)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPRDService) Decide(ctx context.Context, id, companyID string, actor *domain.AuthContext, req driving.DecideRequest) (*domain.PRD, error) {
	if m.decideFn != nil {
		return m.decideFn(ctx, id, companyID, actor, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPRDService) Delete(ctx context.Context, id, companyID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, companyID)
	}
	return errors.New("not implemented")
}

type mockTaskService struct {
	createFn        func(ctx context.Context, actor *domain.AuthContext, req driving.CreateTaskRequest) (*domain.Task, error)
	getFn           func(ctx context.Context, id, companyID string) (*domain.Task, error)
	listByProjectFn func(ctx context.Context, projectID, companyID string) ([]*domain.Task, error)
	listByPRDFn     func(ctx context.Context, prdID, companyID string) ([]*domain.Task, error)
}

func (m *mockTaskService) Create(ctx context.Context, actor *domain.AuthContext, req driving.CreateTaskRequest) (*domain.Task, error) {
	if m.createFn != nil {
		return m.createFn(ctx, actor, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTaskService) Get(ctx context.Context, id, companyID string) (*domain.Task, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id, companyID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTaskService) ListByProject(ctx context.Context, projectID, companyID string) ([]*domain.Task, error) {
	if m.listByProjectFn != nil {
		return m.listByProjectFn(ctx, projectID, companyID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTaskService) ListByPRD(ctx context.Context, prdID, companyID string) ([]*domain.Task, error) {
	if m.listByPRDFn != nil {
		return m.listByPRDFn(ctx, prdID, companyID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTaskService) Update(ctx context.Context, id, companyID string, req driving.UpdateTaskRequest) (*domain.Task, error) {
	return nil, errors.New("not implemented")
}

func (m *mockTaskService) Delete(ctx context.Context, id, companyID string) error {
	return errors.New("not implemented")
}

// Test helpers

// tokenValidator maps well-known test tokens to auth contexts
func tokenValidator(ctx context.Context, token string) (*domain.AuthContext, error) {
	switch token {
	case "admin-token":
		return &domain.AuthContext{
			UserID:    "admin-1",
			Email:     "admin@example.com",
			Role:      domain.RoleAdmin,
			CompanyID: "company-1",
			SessionID: "session-1",
		}, nil
	case "editor-token":
		return &domain.AuthContext{
			UserID:    "editor-1",
			Email:     "editor@example.com",
			Role:      domain.RoleEditor,
			CompanyID: "company-1",
			SessionID: "session-2",
		}, nil
	case "viewer-token":
		return &domain.AuthContext{
			UserID:    "viewer-1",
			Email:     "viewer@example.com",
			Role:      domain.RoleViewer,
			CompanyID: "company-1",
			SessionID: "session-3",
		}, nil
	}
	return nil, domain.ErrTokenInvalid
}

type testServices struct {
	auth    *mockAuthService
	user    *mockUserService
	project *mockProjectService
	prd     *mockPRDService
	task    *mockTaskService
}

func newTestServer() (*Server, *testServices) {
	svcs := &testServices{
		auth:    &mockAuthService{validateTokenFn: tokenValidator},
		user:    &mockUserService{},
		project: &mockProjectService{},
		prd:     &mockPRDService{},
		task:    &mockTaskService{},
	}

	server := NewServer(
		DefaultConfig(),
		svcs.auth,
		svcs.user,
		svcs.project,
		svcs.prd,
		svcs.task,
		nil,
		nil,
		nil,
	)

	return server, svcs
}

func doRequest(server *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)
	return rec
}

// Health endpoints

func TestHandleHealth(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, "GET", "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestHandleVersion(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, "GET", "/version", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp["version"] != "dev" {
		t.Errorf("expected version dev, got %s", resp["version"])
	}
}

// Auth endpoints

func TestHandleLogin(t *testing.T) {
	server, svcs := newTestServer()

	svcs.auth.authenticateFn = func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
		if req.Email == "admin@example.com" && req.Password == "password" {
			return &domain.LoginResponse{
				Token: "jwt-token",
				User:  &domain.UserSummary{ID: "admin-1", Email: req.Email},
			}, nil
		}
		return nil, domain.ErrInvalidCredentials
	}

	rec := doRequest(server, "POST", "/api/v1/auth/login", "", domain.LoginRequest{
		Email:    "admin@example.com",
		Password: "password",
	})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp domain.LoginResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Token != "jwt-token" {
		t.Errorf("expected token in response, got %q", resp.Token)
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	server, svcs := newTestServer()

	svcs.auth.authenticateFn = func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
		return nil, domain.ErrInvalidCredentials
	}

	rec := doRequest(server, "POST", "/api/v1/auth/login", "", domain.LoginRequest{
		Email:    "admin@example.com",
		Password: "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandleLogin_InvalidBody(t *testing.T) {
	server, _ := newTestServer()

	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleSetup(t *testing.T) {
	server, svcs := newTestServer()

	svcs.user.setupFn = func(ctx context.Context, req driving.SetupRequest) (*driving.SetupResponse, error) {
		return &driving.SetupResponse{
			User:    &domain.User{ID: "admin-1", Email: req.Email, Role: domain.RoleAdmin},
			Message: "setup complete",
		}, nil
	}

	rec := doRequest(server, "POST", "/api/v1/setup", "", driving.SetupRequest{
		CompanyName: "Acme",
		Email:       "admin@acme.com",
		Password:    "password123",
		Name:        "Admin",
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandleSetup_AlreadyComplete(t *testing.T) {
	server, svcs := newTestServer()

	svcs.user.setupFn = func(ctx context.Context, req driving.SetupRequest) (*driving.SetupResponse, error) {
		return nil, domain.ErrForbidden
	}

	rec := doRequest(server, "POST", "/api/v1/setup", "", driving.SetupRequest{
		CompanyName: "Acme",
		Email:       "admin@acme.com",
		Password:    "password123",
		Name:        "Admin",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

// PRD endpoints

func TestHandleCreatePRD(t *testing.T) {
	server, svcs := newTestServer()

	svcs.prd.createFn = func(ctx context.Context, actor *domain.AuthContext, req driving.CreatePRDRequest) (*domain.PRD, error) {
		return &domain.PRD{
			ID:        "prd-1",
			ProjectID: req.ProjectID,
			CompanyID: actor.CompanyID,
			Title:     req.Title,
			Status:    domain.PRDStatusDraft,
			Version:   1,
			CreatedBy: actor.UserID,
		}, nil
	}

	rec := doRequest(server, "POST", "/api/v1/prds", "editor-token", driving.CreatePRDRequest{
		ProjectID: "project-1",
		Title:     "Checkout Flow",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var prd domain.PRD
	_ = json.NewDecoder(rec.Body).Decode(&prd)
	if prd.Version != 1 {
		t.Errorf("expected version 1, got %d", prd.Version)
	}
	if prd.Status != domain.PRDStatusDraft {
		t.Errorf("expected draft status, got %s", prd.Status)
	}
	if prd.CreatedBy != "editor-1" {
		t.Errorf("expected creator editor-1, got %s", prd.CreatedBy)
	}
}

func TestHandleCreatePRD_ViewerForbidden(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, "POST", "/api/v1/prds", "viewer-token", driving.CreatePRDRequest{
		ProjectID: "project-1",
		Title:     "Checkout Flow",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestHandleCreatePRD_Unauthenticated(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, "POST", "/api/v1/prds", "", driving.CreatePRDRequest{
		ProjectID: "project-1",
		Title:     "Checkout Flow",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandleGetPRD_NotFound(t *testing.T) {
	server, svcs := newTestServer()

	svcs.prd.getFn = func(ctx context.Context, id, companyID string) (*domain.PRDDetail, error) {
		return nil, domain.ErrNotFound
	}

	rec := doRequest(server, "GET", "/api/v1/prds/missing", "viewer-token", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleCreatePRDVersion_Conflict(t *testing.T) {
	server, svcs := newTestServer()

	svcs.prd.createVersionFn = func(ctx context.Context, id, companyID string, actor *domain.AuthContext, req driving.CreateVersionRequest) (*domain.PRDVersion, error) {
		return nil, domain.ErrVersionConflict
	}

	rec := doRequest(server, "POST", "/api/v1/prds/prd-1/versions", "editor-token", driving.CreateVersionRequest{
		Title:   "Revised",
		Content: map[string]any{"features": []any{}},
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestHandleCreatePRDVersion(t *testing.T) {
	server, svcs := newTestServer()

	svcs.prd.createVersionFn = func(ctx context.Context, id, companyID string, actor *domain.AuthContext, req driving.CreateVersionRequest) (*domain.PRDVersion, error) {
		return &domain.PRDVersion{
			ID:      "version-2",
			PRDID:   id,
			Version: 2,
			Title:   req.Title,
		}, nil
	}

	rec := doRequest(server, "POST", "/api/v1/prds/prd-1/versions", "editor-token", driving.CreateVersionRequest{
		Title:   "Revised",
		Content: map[string]any{"features": []any{}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var version domain.PRDVersion
	_ = json.NewDecoder(rec.Body).Decode(&version)
	if version.Version != 2 {
		t.Errorf("expected version 2, got %d", version.Version)
	}
}

func TestHandleSubmitPRD_InvalidTransition(t *testing.T) {
	server, svcs := newTestServer()

	svcs.prd.submitFn = func(ctx context.Context, id, companyID string, actor *domain.AuthContext) (*domain.PRD, error) {
		return nil, domain.ErrInvalidTransition
	}

	rec := doRequest(server, "POST", "/api/v1/prds/prd-1/submit", "editor-token", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleDecidePRD(t *testing.T) {
	server, svcs := newTestServer()

	var gotActor *domain.AuthContext
	svcs.prd.decideFn = func(ctx context.Context, id, companyID string, actor *domain.AuthContext, req driving.DecideRequest) (*domain.PRD, error) {
		gotActor = actor
		return &domain.PRD{ID: id, Status: req.Status}, nil
	}

	rec := doRequest(server, "POST", "/api/v1/prds/prd-1/decide", "admin-token", driving.DecideRequest{
		Status: domain.PRDStatusApproved,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if gotActor == nil || gotActor.UserID != "admin-1" {
		t.Errorf("expected admin actor passed through, got %+v", gotActor)
	}

	var prd domain.PRD
	_ = json.NewDecoder(rec.Body).Decode(&prd)
	if prd.Status != domain.PRDStatusApproved {
		t.Errorf("expected approved status, got %s", prd.Status)
	}
}

func TestHandleDecidePRD_Forbidden(t *testing.T) {
	server, svcs := newTestServer()

	svcs.prd.decideFn = func(ctx context.Context, id, companyID string, actor *domain.AuthContext, req driving.DecideRequest) (*domain.PRD, error) {
		return nil, domain.ErrForbidden
	}

	rec := doRequest(server, "POST", "/api/v1/prds/prd-1/decide", "editor-token", driving.DecideRequest{
		Status: domain.PRDStatusApproved,
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestHandleListPRDVersions(t *testing.T) {
	server, svcs := newTestServer()

	svcs.prd.listVersionsFn = func(ctx context.Context, id, companyID string) ([]*domain.PRDVersion, error) {
		return []*domain.PRDVersion{
			{ID: "v1", PRDID: id, Version: 1},
			{ID: "v2", PRDID: id, Version: 2},
		}, nil
	}

	rec := doRequest(server, "GET", "/api/v1/prds/prd-1/versions", "viewer-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var versions []*domain.PRDVersion
	_ = json.NewDecoder(rec.Body).Decode(&versions)
	if len(versions) != 2 {
		t.Errorf("expected 2 versions, got %d", len(versions))
	}
}

func TestHandleDeletePRD_InternalError(t *testing.T) {
	server, svcs := newTestServer()

	svcs.prd.deleteFn = func(ctx context.Context, id, companyID string) error {
		return errors.New("connection refused")
	}

	rec := doRequest(server, "DELETE", "/api/v1/prds/prd-1", "editor-token", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	// Internals must not leak to clients
	var resp map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp["error"] != "internal server error" {
		t.Errorf("expected stable error message, got %q", resp["error"])
	}
}

// Masked store failures carry the sentinel but map to the same stable
// 500 body as any other internal error.
func TestHandleDeletePRD_StoreFailure(t *testing.T) {
	server, svcs := newTestServer()

	svcs.prd.deleteFn = func(ctx context.Context, id, companyID string) error {
		return fmt.Errorf("%w: delete prd", domain.ErrStoreFailure)
	}

	rec := doRequest(server, "DELETE", "/api/v1/prds/prd-1", "editor-token", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var resp map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp["error"] != "internal server error" {
		t.Errorf("expected stable error message, got %q", resp["error"])
	}
}

// Project endpoints

func TestHandleListProjectSummaries(t *testing.T) {
	server, svcs := newTestServer()

	svcs.project.listWithSummaryFn = func(ctx context.Context, companyID string) ([]*domain.ProjectSummary, error) {
		return []*domain.ProjectSummary{
			{Project: &domain.Project{ID: "project-1", CompanyID: companyID}, PRDCount: 3, TaskCount: 12},
		}, nil
	}

	rec := doRequest(server, "GET", "/api/v1/projects/summary", "viewer-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var summaries []*domain.ProjectSummary
	_ = json.NewDecoder(rec.Body).Decode(&summaries)
	if len(summaries) != 1 || summaries[0].PRDCount != 3 {
		t.Errorf("unexpected summaries: %+v", summaries)
	}
}

func TestHandleDeleteProject_AdminOnly(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, "DELETE", "/api/v1/projects/project-1", "editor-token", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for editor, got %d", rec.Code)
	}
}

// User endpoints

func TestHandleCreateUser_AdminOnly(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, "POST", "/api/v1/users", "editor-token", driving.CreateUserRequest{
		Email: "new@example.com",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for editor, got %d", rec.Code)
	}
}

func TestHandleCreateUser(t *testing.T) {
	server, svcs := newTestServer()

	svcs.user.createFn = func(ctx context.Context, companyID string, req driving.CreateUserRequest) (*domain.User, error) {
		return &domain.User{ID: "user-2", Email: req.Email, Role: req.Role, CompanyID: companyID}, nil
	}

	rec := doRequest(server, "POST", "/api/v1/users", "admin-token", driving.CreateUserRequest{
		Email:    "new@example.com",
		Password: "password123",
		Name:     "New User",
		Role:     domain.RoleEditor,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	// Response must be a summary, never include the password hash
	if bytes.Contains(rec.Body.Bytes(), []byte("password_hash")) {
		t.Error("response must not contain password hash")
	}
}

func TestHandleCreateUser_Duplicate(t *testing.T) {
	server, svcs := newTestServer()

	svcs.user.createFn = func(ctx context.Context, companyID string, req driving.CreateUserRequest) (*domain.User, error) {
		return nil, domain.ErrAlreadyExists
	}

	rec := doRequest(server, "POST", "/api/v1/users", "admin-token", driving.CreateUserRequest{
		Email:    "dup@example.com",
		Password: "password123",
		Name:     "Dup",
		Role:     domain.RoleEditor,
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestHandleDeleteUser_SelfDeletion(t *testing.T) {
	server, _ := newTestServer()

	rec := doRequest(server, "DELETE", "/api/v1/users/admin-1", "admin-token", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for self-deletion, got %d", rec.Code)
	}
}

func TestHandleGetMe(t *testing.T) {
	server, svcs := newTestServer()

	svcs.user.getFn = func(ctx context.Context, id string) (*domain.User, error) {
		return &domain.User{ID: id, Email: "viewer@example.com", Role: domain.RoleViewer}, nil
	}

	rec := doRequest(server, "GET", "/api/v1/me", "viewer-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var summary domain.UserSummary
	_ = json.NewDecoder(rec.Body).Decode(&summary)
	if summary.ID != "viewer-1" {
		t.Errorf("expected viewer-1, got %s", summary.ID)
	}
}

// Task endpoints

func TestHandleCreateTask(t *testing.T) {
	server, svcs := newTestServer()

	svcs.task.createFn = func(ctx context.Context, actor *domain.AuthContext, req driving.CreateTaskRequest) (*domain.Task, error) {
		return &domain.Task{
			ID:        "task-1",
			ProjectID: req.ProjectID,
			Title:     req.Title,
			Status:    domain.TaskStatusBacklog,
			Priority:  domain.TaskPriorityMedium,
		}, nil
	}

	rec := doRequest(server, "POST", "/api/v1/tasks", "editor-token", driving.CreateTaskRequest{
		ProjectID: "project-1",
		Title:     "Implement login",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestHandleListPRDTasks(t *testing.T) {
	server, svcs := newTestServer()

	svcs.task.listByPRDFn = func(ctx context.Context, prdID, companyID string) ([]*domain.Task, error) {
		return []*domain.Task{
			{ID: "task-1", PRDID: prdID},
			{ID: "task-2", PRDID: prdID},
		}, nil
	}

	rec := doRequest(server, "GET", "/api/v1/prds/prd-1/tasks", "viewer-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var tasks []*domain.Task
	_ = json.NewDecoder(rec.Body).Decode(&tasks)
	if len(tasks) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(tasks))
	}
}
