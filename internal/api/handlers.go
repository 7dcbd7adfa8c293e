// Package api contains the HTTP handlers for the task and workflow service.
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Btuvia/MZ-sub001/internal/logging"
	"github.com/Btuvia/MZ-sub001/internal/repository"
	"github.com/Btuvia/MZ-sub001/internal/services"
)

// Server holds the dependencies for the API server.
type Server struct {
	Tasks     repository.TaskStore
	Workflows repository.WorkflowStore
	Instances repository.InstanceStore
	Subjects  repository.SubjectStore
	Engine    *services.Engine
	Logger    *logging.Logger
}

// NewServer creates a new Server.
func NewServer(
	tasks repository.TaskStore,
	workflows repository.WorkflowStore,
	instances repository.InstanceStore,
	subjects repository.SubjectStore,
	engine *services.Engine,
	logger *logging.Logger,
) *Server {
	return &Server{
		Tasks:     tasks,
		Workflows: workflows,
		Instances: instances,
		Subjects:  subjects,
		Engine:    engine,
		Logger:    logger,
	}
}

// Register mounts all handlers on the given group.
func (s *Server) Register(g *echo.Group) {
	g.GET("/tasks", s.ListTasks)
	g.POST("/tasks", s.CreateTask)
	g.GET("/tasks/:id", s.GetTask)
	g.PATCH("/tasks/:id/status", s.UpdateTaskStatus)
	g.DELETE("/tasks/:id", s.DeleteTask)

	g.GET("/workflows", s.ListWorkflows)
	g.POST("/workflows", s.CreateWorkflow)
	g.GET("/workflows/:id", s.GetWorkflow)
	g.POST("/workflows/:id/instances", s.StartWorkflow)

	g.GET("/instances/:id", s.GetInstance)
	g.POST("/instances/:id/cancel", s.CancelInstance)
	g.POST("/instances/:id/steps/:step/task", s.RecordManualTask)

	g.GET("/subjects", s.ListSubjects)
	g.POST("/subjects/:id/start", s.StartForSubject)
}

// HealthStatus represents the health check response.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// HandleHealth returns basic health status (always returns 200 OK).
func HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "task-workflow-service",
		Version:   "1.0.0",
	})
}

// ProblemDetails represents an RFC 7807 Problem Details response.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// problem writes an RFC 7807 Problem Details JSON error response.
func problem(c echo.Context, status int, title, detail string) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(status, ProblemDetails{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
