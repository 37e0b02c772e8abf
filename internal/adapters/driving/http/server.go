package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/planforge/planforge-core/internal/core/domain"
	"github.com/planforge/planforge-core/internal/core/ports/driven"
	"github.com/planforge/planforge-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	authService    driving.AuthService
	userService    driving.UserService
	projectService driving.ProjectService
	prdService     driving.PRDService
	taskService    driving.TaskService

	// Infrastructure
	jobQueue    driven.JobQueue
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	userService driving.UserService,
	projectService driving.ProjectService,
	prdService driving.PRDService,
	taskService driving.TaskService,
	jobQueue driven.JobQueue,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		authService:    authService,
		userService:    userService,
		projectService: projectService,
		prdService:     prdService,
		taskService:    taskService,
		jobQueue:       jobQueue,
		db:             db,
		redisClient:    redisClient,
	}

	// Outer middleware chain: recovery first, then logging, then CORS
	var handler http.Handler = s.router
	handler = NewCORSMiddleware(cfg.AllowedOrigins).Handler(handler)
	handler = NewLoggingMiddleware().Handler(handler)
	handler = NewRecoveryMiddleware().Handler(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)
	requireWrite := authMiddleware.RequireRole(domain.RoleAdmin, domain.RoleEditor)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Auth endpoints (public)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.router.HandleFunc("POST /api/v1/auth/refresh", s.handleRefresh)

	// Setup endpoint (public, one-time use)
	s.router.HandleFunc("POST /api/v1/setup", s.handleSetup)

	// Auth endpoints (authenticated)
	s.router.Handle("POST /api/v1/auth/logout",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleLogout)))
	s.router.Handle("POST /api/v1/auth/password",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleChangePassword)))

	// Current user
	s.router.Handle("GET /api/v1/me",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetMe)))

	// Admin-only user management
	s.router.Handle("GET /api/v1/users",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleListUsers))))
	s.router.Handle("POST /api/v1/users",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleCreateUser))))
	s.router.Handle("GET /api/v1/users/{id}",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleGetUser))))
	s.router.Handle("PUT /api/v1/users/{id}",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleUpdateUser))))
	s.router.Handle("DELETE /api/v1/users/{id}",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleDeleteUser))))

	// Project endpoints
	s.router.Handle("GET /api/v1/projects",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListProjects)))
	s.router.Handle("GET /api/v1/projects/summary",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListProjectSummaries)))
	s.router.Handle("POST /api/v1/projects",
		authMiddleware.Authenticate(requireWrite(http.HandlerFunc(s.handleCreateProject))))
	s.router.Handle("GET /api/v1/projects/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetProject)))
	s.router.Handle("PUT /api/v1/projects/{id}",
		authMiddleware.Authenticate(requireWrite(http.HandlerFunc(s.handleUpdateProject))))
	s.router.Handle("DELETE /api/v1/projects/{id}",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleDeleteProject))))
	s.router.Handle("GET /api/v1/projects/{id}/prds",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListProjectPRDs)))
	s.router.Handle("GET /api/v1/projects/{id}/tasks",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListProjectTasks)))

	// PRD endpoints
	s.router.Handle("POST /api/v1/prds",
		authMiddleware.Authenticate(requireWrite(http.HandlerFunc(s.handleCreatePRD))))
	s.router.Handle("GET /api/v1/prds/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetPRD)))
	s.router.Handle("PUT /api/v1/prds/{id}",
		authMiddleware.Authenticate(requireWrite(http.HandlerFunc(s.handleUpdatePRD))))
	s.router.Handle("DELETE /api/v1/prds/{id}",
		authMiddleware.Authenticate(requireWrite(http.HandlerFunc(s.handleDeletePRD))))
	s.router.Handle("GET /api/v1/prds/{id}/versions",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListPRDVersions)))
	s.router.Handle("POST /api/v1/prds/{id}/versions",
		authMiddleware.Authenticate(requireWrite(http.HandlerFunc(s.handleCreatePRDVersion))))
	s.router.Handle("POST /api/v1/prds/{id}/submit",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSubmitPRD)))
	s.router.Handle("POST /api/v1/prds/{id}/decide",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDecidePRD)))
	s.router.Handle("GET /api/v1/prds/{id}/tasks",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListPRDTasks)))

	// Task endpoints
	s.router.Handle("POST /api/v1/tasks",
		authMiddleware.Authenticate(requireWrite(http.HandlerFunc(s.handleCreateTask))))
	s.router.Handle("GET /api/v1/tasks/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetTask)))
	s.router.Handle("PUT /api/v1/tasks/{id}",
		authMiddleware.Authenticate(requireWrite(http.HandlerFunc(s.handleUpdateTask))))
	s.router.Handle("DELETE /api/v1/tasks/{id}",
		authMiddleware.Authenticate(requireWrite(http.HandlerFunc(s.handleDeleteTask))))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
