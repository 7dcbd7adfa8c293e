package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Btuvia/MZ-sub001/internal/repository"
	"github.com/Btuvia/MZ-sub001/internal/services"
	"github.com/Btuvia/MZ-sub001/pkg/models"
)

// ListWorkflows returns all workflow definitions.
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	ctx := c.Request().Context()

	workflows, err := s.Workflows.List(ctx)
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Store error", err.Error())
	}
	return c.JSON(http.StatusOK, workflows)
}

// CreateWorkflow creates a workflow definition. Definitions with non-dense
// step numbering are rejected whole, never partially applied.
// (POST /api/v1/workflows)
func (s *Server) CreateWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	var def models.WorkflowDefinition
	if err := c.Bind(&def); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error())
	}
	if err := def.Validate(); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid workflow definition", err.Error())
	}
	if def.ID == "" {
		def.ID = uuid.New().String()
	}
	now := time.Now()
	def.CreatedAt = now
	def.UpdatedAt = now
	def.UsageCount = 0

	if err := s.Workflows.Create(ctx, &def); err != nil {
		return problem(c, http.StatusInternalServerError, "Failed to save workflow", err.Error())
	}
	return c.JSON(http.StatusCreated, def)
}

// GetWorkflow returns a single workflow definition.
// (GET /api/v1/workflows/:id)
func (s *Server) GetWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	def, err := s.Workflows.Get(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Workflow not found", err.Error())
	}
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Store error", err.Error())
	}
	return c.JSON(http.StatusOK, def)
}

// InstanceResponse reports a started instance and its initial tasks.
type InstanceResponse struct {
	Instance *models.WorkflowInstance `json:"instance"`
	Created  []*models.Task           `json:"created,omitempty"`
}

// StartWorkflow instantiates a workflow for a subject/client context.
// (POST /api/v1/workflows/:id/instances)
func (s *Server) StartWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	var ictx services.InstanceContext
	if err := c.Bind(&ictx); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error())
	}

	inst, created, err := s.Engine.Instantiate(ctx, c.Param("id"), ictx, time.Now())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return problem(c, http.StatusNotFound, "Workflow not found", err.Error())
	case errors.Is(err, services.ErrWorkflowInactive), errors.Is(err, models.ErrStepsNotDense):
		return problem(c, http.StatusUnprocessableEntity, "Workflow not instantiable", err.Error())
	case err != nil:
		return problem(c, http.StatusInternalServerError, "Failed to start workflow", err.Error())
	}
	return c.JSON(http.StatusCreated, InstanceResponse{Instance: inst, Created: created})
}

// GetInstance returns a workflow instance.
// (GET /api/v1/instances/:id)
func (s *Server) GetInstance(c echo.Context) error {
	ctx := c.Request().Context()

	inst, err := s.Instances.Get(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Instance not found", err.Error())
	}
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Store error", err.Error())
	}
	return c.JSON(http.StatusOK, inst)
}

// CancelInstance cancels a workflow instance, blocking further automatic task
// creation for it.
// (POST /api/v1/instances/:id/cancel)
func (s *Server) CancelInstance(c echo.Context) error {
	ctx := c.Request().Context()

	err := s.Engine.Cancel(ctx, c.Param("id"), time.Now())
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Instance not found", err.Error())
	}
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Failed to cancel instance", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// RecordManualTaskRequest binds a manually created task to an instance step.
type RecordManualTaskRequest struct {
	TaskID string `json:"task_id"`
}

// RecordManualTask closes a manual-creation obligation by recording the task
// a human created for a step, so automatic chaining resumes from there.
// (POST /api/v1/instances/:id/steps/:step/task)
func (s *Server) RecordManualTask(c echo.Context) error {
	ctx := c.Request().Context()

	step, err := strconv.Atoi(c.Param("step"))
	if err != nil || step < 1 {
		return problem(c, http.StatusBadRequest, "Invalid step number", c.Param("step"))
	}
	var req RecordManualTaskRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error())
	}
	if req.TaskID == "" {
		return problem(c, http.StatusBadRequest, "Missing task_id", "task_id is required")
	}

	err = s.Engine.RecordManualTask(ctx, c.Param("id"), step, req.TaskID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return problem(c, http.StatusNotFound, "Instance not found", err.Error())
	case errors.Is(err, services.ErrInstanceCancelled):
		return problem(c, http.StatusConflict, "Instance cancelled", err.Error())
	case errors.Is(err, services.ErrStepConflict):
		return problem(c, http.StatusConflict, "Step already bound", err.Error())
	case err != nil:
		return problem(c, http.StatusInternalServerError, "Failed to record task", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ListSubjects returns all configured subjects.
// (GET /api/v1/subjects)
func (s *Server) ListSubjects(c echo.Context) error {
	ctx := c.Request().Context()

	subjects, err := s.Subjects.List(ctx)
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Store error", err.Error())
	}
	return c.JSON(http.StatusOK, subjects)
}

// StartForSubject instantiates the subject's default workflow for a client
// context.
// (POST /api/v1/subjects/:id/start)
func (s *Server) StartForSubject(c echo.Context) error {
	ctx := c.Request().Context()

	var ictx services.InstanceContext
	if err := c.Bind(&ictx); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error())
	}

	inst, created, err := s.Engine.StartForSubject(ctx, c.Param("id"), ictx, time.Now())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return problem(c, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, services.ErrNoDefaultWorkflow):
		return problem(c, http.StatusUnprocessableEntity, "No default workflow", err.Error())
	case err != nil:
		return problem(c, http.StatusInternalServerError, "Failed to start workflow", err.Error())
	}
	return c.JSON(http.StatusCreated, InstanceResponse{Instance: inst, Created: created})
}
