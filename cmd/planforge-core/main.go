package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/planforge/planforge-core/internal/adapters/driven/auth"
	"github.com/planforge/planforge-core/internal/adapters/driven/mail"
	"github.com/planforge/planforge-core/internal/adapters/driven/postgres"
	postgresqueue "github.com/planforge/planforge-core/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/planforge/planforge-core/internal/adapters/driven/queue/redis"
	redisadapter "github.com/planforge/planforge-core/internal/adapters/driven/redis"
	"github.com/planforge/planforge-core/internal/adapters/driving/http"
	"github.com/planforge/planforge-core/internal/config"
	"github.com/planforge/planforge-core/internal/core/ports/driven"
	"github.com/planforge/planforge-core/internal/core/ports/driving"
	"github.com/planforge/planforge-core/internal/core/services"
	"github.com/planforge/planforge-core/internal/worker"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	// Get run mode from environment (RUN_MODE) or command line arg
	mode := getEnv("RUN_MODE", "all")
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	log.Printf("planforge-core %s starting in %s mode", version, mode)

	cfg, err := config.Load(getEnv("CONFIG_PATH", ""))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// ===== Initialize PostgreSQL =====
	log.Println("Connecting to PostgreSQL...")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize schema (idempotent)
	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("PostgreSQL connected and schema initialized")

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== Driven adapters (infrastructure) =====
	authAdapter := auth.NewAdapter(cfg.Auth.JWTSecret)

	// ===== PostgreSQL Stores =====
	companyStore := postgres.NewCompanyStore(db)
	userStore := postgres.NewUserStore(db)
	projectStore := postgres.NewProjectStore(db)
	prdStore := postgres.NewPRDStore(db)
	taskStore := postgres.NewTaskStore(db)

	// ===== Session Store (Redis if available, otherwise PostgreSQL) =====
	var sessionStore driven.SessionStore
	if redisClient != nil {
		sessionStore = redisadapter.NewSessionStore(redisClient)
		log.Println("Using Redis session store")
	} else {
		sessionStore = postgres.NewSessionStore(db)
		log.Println("Using PostgreSQL session store")
	}

	// ===== Job Queue (Redis if available, otherwise PostgreSQL) =====
	var jobQueue driven.JobQueue
	if redisClient != nil {
		var err error
		jobQueue, err = redisqueue.NewQueue(redisClient, fmt.Sprintf("worker-%d", os.Getpid()))
		if err != nil {
			log.Fatalf("Failed to create job queue: %v", err)
		}
		log.Println("Using Redis job queue")
	} else {
		jobQueue = postgresqueue.NewQueue(db.DB)
		log.Println("Using PostgreSQL job queue")
	}

	// ===== Distributed Lock (Redis if available, otherwise PostgreSQL advisory locks) =====
	var distributedLock driven.DistributedLock
	if redisClient != nil {
		distributedLock = redisadapter.NewLock(redisClient)
		log.Println("Using Redis distributed lock")
	} else {
		distributedLock = postgres.NewAdvisoryLock(db)
		log.Println("Using PostgreSQL advisory lock")
	}

	// ===== Notifier (SMTP if configured, otherwise log-and-drop) =====
	var notifier driven.Notifier
	if cfg.SMTPEnabled() {
		notifier = mail.NewSMTPNotifier(mail.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, slog.Default())
		log.Println("Using SMTP notifier")
	} else {
		notifier = mail.NewNopNotifier(slog.Default())
		log.Println("SMTP not configured, notifications are logged and dropped")
	}

	// ===== Services (core business logic) =====
	authService := services.NewAuthService(userStore, sessionStore, authAdapter)
	userService := services.NewUserService(userStore, companyStore, sessionStore, authAdapter)
	projectService := services.NewProjectService(projectStore, prdStore, taskStore)
	prdService := services.NewPRDService(services.PRDServiceConfig{
		PRDStore:     prdStore,
		TaskStore:    taskStore,
		ProjectStore: projectStore,
		JobQueue:     jobQueue,
		Lock:         distributedLock,
		Logger:       slog.Default(),
	})
	taskService := services.NewTaskService(taskStore, projectStore)

	// Janitor for worker mode
	var janitor *services.Janitor
	if cfg.Janitor.Enabled {
		janitor = services.NewJanitor(services.JanitorConfig{
			JobQueue:     jobQueue,
			SessionStore: sessionStore,
			Lock:         distributedLock,
			Logger:       slog.Default(),
			Interval:     cfg.Janitor.Interval,
			JobMaxAge:    cfg.Janitor.JobMaxAge,
		})
		log.Printf("Janitor enabled (interval=%s)", cfg.Janitor.Interval)
	} else {
		log.Println("Janitor disabled via configuration")
	}

	// Notification worker for worker mode
	notifyWorker := worker.NewWorker(worker.WorkerConfig{
		JobQueue:       jobQueue,
		PRDStore:       prdStore,
		ProjectStore:   projectStore,
		UserStore:      userStore,
		Notifier:       notifier,
		Logger:         slog.Default(),
		Concurrency:    cfg.Worker.Concurrency,
		DequeueTimeout: cfg.Worker.DequeueTimeout,
	})

	serverCfg := http.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	var redisPing http.Pinger
	if redisClient != nil {
		redisPing = redisPinger{client: redisClient}
	}

	switch mode {
	case "api":
		// API-only mode: HTTP server, no worker
		runAPI(serverCfg, authService, userService, projectService, prdService, taskService, jobQueue, db, redisPing)

	case "worker":
		// Worker-only mode: job processing and cleanup, no HTTP server
		runWorkerMode(ctx, notifyWorker, janitor)

	case "all":
		// Combined mode: worker in background, API in foreground
		go runWorkerMode(ctx, notifyWorker, janitor)
		runAPI(serverCfg, authService, userService, projectService, prdService, taskService, jobQueue, db, redisPing)

	default:
		log.Fatalf("Unknown mode: %s (use: api, worker, or all)", mode)
	}
}

func runAPI(
	cfg http.Config,
	authService driving.AuthService,
	userService driving.UserService,
	projectService driving.ProjectService,
	prdService driving.PRDService,
	taskService driving.TaskService,
	jobQueue driven.JobQueue,
	db http.Pinger,
	redisClient http.Pinger,
) {
	server := http.NewServer(
		cfg,
		authService,
		userService,
		projectService,
		prdService,
		taskService,
		jobQueue,
		db,
		redisClient,
	)

	log.Printf("API server starting on :%d", cfg.Port)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// runWorkerMode starts the notification worker and the janitor.
func runWorkerMode(ctx context.Context, w *worker.Worker, janitor *services.Janitor) {
	log.Println("Starting worker mode...")

	if janitor != nil {
		if err := janitor.Start(ctx); err != nil {
			log.Printf("Failed to start janitor: %v", err)
		}
	}

	if err := w.Start(ctx); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Println("Worker started, processing jobs...")
	log.Println("Worker handles:")
	log.Println("  - notify_prd_created: PRD creation notifications")
	log.Println("  - notify_prd_decided: approval/rejection notifications")

	<-ctx.Done()

	log.Println("Stopping worker...")
	w.Stop()
	if janitor != nil {
		janitor.Stop()
	}
	log.Println("Worker stopped")
}

// redisPinger adapts *redis.Client to the server's health check interface.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
