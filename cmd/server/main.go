package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Btuvia/MZ-sub001/internal/api"
	"github.com/Btuvia/MZ-sub001/internal/config"
	"github.com/Btuvia/MZ-sub001/internal/logging"
	"github.com/Btuvia/MZ-sub001/internal/mcp"
	"github.com/Btuvia/MZ-sub001/internal/repository"
	"github.com/Btuvia/MZ-sub001/internal/services"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logging.NewLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		log.Fatalf("Configuration loading failed: %v", err)
	}
	logger.Info("Starting task and workflow service")

	dbPool, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize database: %v", err)
		log.Fatalf("Database initialization failed: %v", err)
	}
	defer dbPool.Close()
	logger.Info("Database connected")

	// Repository layer
	taskStore := repository.NewPostgresTaskStore(dbPool)
	workflowStore := repository.NewPostgresWorkflowStore(dbPool)
	instanceStore := repository.NewPostgresInstanceStore(dbPool)
	subjectStore := repository.NewPostgresSubjectStore(dbPool)

	// Service layer
	duePolicy, err := services.ParseDueDatePolicy(cfg.Workflow.DueDateMode, cfg.Workflow.WeekendDays)
	if err != nil {
		logger.Error("Invalid due date policy: %v", err)
		log.Fatalf("Due date policy: %v", err)
	}
	roles := services.NewStaticRoleResolver(cfg.Roles)
	engine := services.NewEngine(workflowStore, taskStore, instanceStore, subjectStore, roles, duePolicy, logger)
	sweeper := services.NewSweeper(taskStore, logger, cfg.Sweeper.Interval)
	logger.Info("Service layer initialized")

	// The sweeper is the only background process; it stops with the server.
	go sweeper.Run(ctx)

	// Create Echo server
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("task-workflow-service"))

	e.GET("/health", api.HandleHealth)

	apiGroup := e.Group("/api/v1")
	apiServer := api.NewServer(taskStore, workflowStore, instanceStore, subjectStore, engine, logger)
	apiServer.Register(apiGroup)
	logger.Info("REST API handlers mounted")

	// Mount MCP protocol handlers
	mcpServer := mcp.NewServer(taskStore, engine)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))
	logger.Info("MCP protocol handlers mounted")

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting on %s", cfg.Server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			logger.Error("Server error: %v", err)
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		logger.Info("Shutdown signal received: %v", sig)
		cancel() // stop the sweeper

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				logger.Error("Server close error: %v", err)
			}
		}
		logger.Info("Server stopped gracefully")
	}
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	logger.Debug("Initializing database connection")

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
