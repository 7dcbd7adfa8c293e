package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Btuvia/MZ-sub001/internal/repository"
	"github.com/Btuvia/MZ-sub001/internal/services"
	"github.com/Btuvia/MZ-sub001/pkg/models"
)

// ListTasks returns tasks matching the filter query parameters.
// (GET /api/v1/tasks)
func (s *Server) ListTasks(c echo.Context) error {
	ctx := c.Request().Context()

	var filter services.TaskFilter
	if err := c.Bind(&filter); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid filter", err.Error())
	}

	// The status predicate is pushed down; the rest of the filter runs over
	// the returned set.
	var hints repository.TaskFilterHints
	if filter.Status != "" && filter.Status != services.FilterAll {
		hints.Statuses = []models.TaskStatus{models.TaskStatus(filter.Status)}
	}
	tasks, err := s.Tasks.List(ctx, hints)
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Store error", err.Error())
	}
	return c.JSON(http.StatusOK, services.FilterTasks(tasks, filter))
}

// CreateTask creates a new task.
// (POST /api/v1/tasks)
func (s *Server) CreateTask(c echo.Context) error {
	ctx := c.Request().Context()

	var task models.Task
	if err := c.Bind(&task); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error())
	}
	if task.Status == "" {
		task.Status = models.TaskStatusNew
	}
	if !task.Status.Valid() {
		return problem(c, http.StatusBadRequest, "Invalid status", string(task.Status))
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	task.ID = uuid.New().String()
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	// Reject malformed scheduling fields up front.
	if _, err := task.Deadline(); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid date", err.Error())
	}

	if err := s.Tasks.Create(ctx, &task); err != nil {
		return problem(c, http.StatusInternalServerError, "Failed to create task", err.Error())
	}
	return c.JSON(http.StatusCreated, task)
}

// GetTask returns a single task. The response status field is re-derived
// against the current time so a task that crossed its deadline between sweeps
// already reads as overdue; the persisted record is untouched.
// (GET /api/v1/tasks/:id)
func (s *Server) GetTask(c echo.Context) error {
	ctx := c.Request().Context()

	task, err := s.Tasks.Get(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Task not found", err.Error())
	}
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Store error", err.Error())
	}
	if derived, err := services.DeriveStatus(task, time.Now()); err == nil {
		task.Status = derived
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateStatusRequest is the body for a task status change.
type UpdateStatusRequest struct {
	Status models.TaskStatus `json:"status"`
}

// StatusChangeResponse reports a status change plus anything the workflow
// engine did because of it.
type StatusChangeResponse struct {
	Task        *models.Task              `json:"task"`
	Created     []*models.Task            `json:"created,omitempty"`
	Obligations []services.StepObligation `json:"obligations,omitempty"`
}

// UpdateTaskStatus changes a task's status. Completing a workflow task drives
// the workflow engine, which may materialize the next step's task.
// (PATCH /api/v1/tasks/:id/status)
func (s *Server) UpdateTaskStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error())
	}
	if !req.Status.Valid() {
		return problem(c, http.StatusBadRequest, "Invalid status", string(req.Status))
	}

	task, err := s.Tasks.Get(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Task not found", err.Error())
	}
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Store error", err.Error())
	}
	if task.Status.Terminal() {
		return problem(c, http.StatusConflict, "Task is terminal",
			"a "+string(task.Status)+" task cannot change status")
	}

	now := time.Now()
	if err := s.Tasks.UpdateStatus(ctx, task.ID, req.Status, now); err != nil {
		return problem(c, http.StatusInternalServerError, "Failed to update task", err.Error())
	}
	task.Status = req.Status
	task.UpdatedAt = now

	resp := StatusChangeResponse{Task: task}
	if req.Status == models.TaskStatusCompleted && task.IsWorkflowTask() {
		created, obligations, err := s.Engine.OnTaskCompleted(ctx, task, now)
		if err != nil {
			// The status change stands; the chain advance is retryable.
			s.Logger.Error("workflow advance for task %s failed: %v", task.ID, err)
			return problem(c, http.StatusBadGateway, "Workflow advance failed", err.Error())
		}
		resp.Created = created
		resp.Obligations = obligations
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteTask removes a task.
// (DELETE /api/v1/tasks/:id)
func (s *Server) DeleteTask(c echo.Context) error {
	ctx := c.Request().Context()

	err := s.Tasks.Delete(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Task not found", err.Error())
	}
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Store error", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
