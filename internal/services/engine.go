package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Btuvia/MZ-sub001/internal/logging"
	"github.com/Btuvia/MZ-sub001/internal/repository"
	"github.com/Btuvia/MZ-sub001/pkg/models"
)

var (
	// ErrWorkflowInactive is returned when instantiating a definition that
	// has been deactivated.
	ErrWorkflowInactive = errors.New("workflow definition is inactive")
	// ErrNotWorkflowTask is returned when a completion event carries a task
	// with no workflow instance binding.
	ErrNotWorkflowTask = errors.New("task is not bound to a workflow instance")
	// ErrTaskNotCompleted is returned when a completion event carries a task
	// that is not in the completed status.
	ErrTaskNotCompleted = errors.New("task has not reached completed")
	// ErrInstanceCancelled is returned when an operation targets a
	// cancelled instance.
	ErrInstanceCancelled = errors.New("workflow instance is cancelled")
	// ErrNoDefaultWorkflow is returned when a subject carries no default
	// workflow to start.
	ErrNoDefaultWorkflow = errors.New("subject has no default workflow")
	// ErrStepConflict is returned when a manual task is recorded for a step
	// that already has a different task bound.
	ErrStepConflict = errors.New("step already has a task recorded")
)

// InstanceContext carries the subject/client binding a workflow instance is
// started for.
type InstanceContext struct {
	SubjectID  string  `json:"subject_id"`
	ClientID   *string `json:"client_id,omitempty"`
	ClientName *string `json:"client_name,omitempty"`
	CreatedBy  *string `json:"created_by,omitempty"`
}

// StepObligation is the engine's signal that the next step must be created by
// a human: the step's AutoCreate is false, so materializing its task is
// outside the engine's write surface. The obligation is closed by
// RecordManualTask.
type StepObligation struct {
	InstanceID   string `json:"instance_id"`
	WorkflowID   string `json:"workflow_id"`
	StepNumber   int    `json:"step_number"`
	StepName     string `json:"step_name"`
	AssigneeRole string `json:"assignee_role"`
}

// Engine instantiates workflow definitions and advances their instances as
// step tasks complete.
type Engine struct {
	workflows repository.WorkflowStore
	tasks     repository.TaskStore
	instances repository.InstanceStore
	subjects  repository.SubjectStore
	roles     RoleResolver
	due       DueDatePolicy
	logger    *logging.Logger
}

// NewEngine creates an Engine over the given stores and collaborators.
func NewEngine(
	workflows repository.WorkflowStore,
	tasks repository.TaskStore,
	instances repository.InstanceStore,
	subjects repository.SubjectStore,
	roles RoleResolver,
	due DueDatePolicy,
	logger *logging.Logger,
) *Engine {
	return &Engine{
		workflows: workflows,
		tasks:     tasks,
		instances: instances,
		subjects:  subjects,
		roles:     roles,
		due:       due,
		logger:    logger,
	}
}

// Instantiate starts a new instance of the given workflow for the given
// context as of now. Step 1's task is materialized if and only if its
// AutoCreate is set; later steps that do not require predecessor completion
// and are auto-created are materialized immediately as well, since nothing
// gates them. The instance is recorded even when no task is materialized yet
// (step 1 awaiting manual creation).
func (e *Engine) Instantiate(ctx context.Context, workflowID string, ictx InstanceContext, now time.Time) (*models.WorkflowInstance, []*models.Task, error) {
	def, err := e.workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, nil, fmt.Errorf("load workflow: %w", err)
	}
	if !def.IsActive {
		return nil, nil, fmt.Errorf("%w: %s", ErrWorkflowInactive, def.ID)
	}
	if err := def.Validate(); err != nil {
		return nil, nil, err
	}

	inst := &models.WorkflowInstance{
		ID:            uuid.New().String(),
		WorkflowID:    def.ID,
		SubjectID:     ictx.SubjectID,
		ClientID:      ictx.ClientID,
		ClientName:    ictx.ClientName,
		Status:        models.InstanceStatusActive,
		TaskIDsByStep: map[int]string{},
		CreatedAt:     now,
		UpdatedAt:     now,
		CreatedBy:     ictx.CreatedBy,
	}
	if err := e.instances.Create(ctx, inst); err != nil {
		return nil, nil, fmt.Errorf("record instance: %w", err)
	}

	var created []*models.Task
	for _, step := range def.Steps {
		if !step.AutoCreate {
			continue
		}
		if step.StepNumber > 1 && step.RequiresPreviousCompletion {
			continue
		}
		task, err := e.materializeStep(ctx, inst, step, now)
		if err != nil {
			// Persist what already succeeded so a retry can see it.
			e.saveInstance(ctx, inst, now)
			return inst, created, fmt.Errorf("materialize step %d: %w", step.StepNumber, err)
		}
		created = append(created, task)
		if step.StepNumber > inst.CurrentStep {
			inst.CurrentStep = step.StepNumber
		}
	}
	if err := e.instances.Update(ctx, inst); err != nil {
		return inst, created, fmt.Errorf("record instance progress: %w", err)
	}
	e.logger.Info("workflow %s instantiated as %s, %d task(s) created", def.ID, inst.ID, len(created))
	return inst, created, nil
}

// StartForSubject instantiates the default workflow configured on a subject.
// A subject without one is not an error surface for the caller to retry, so
// ErrNoDefaultWorkflow is permanent; a dangling default workflow id surfaces
// as the store's not-found.
func (e *Engine) StartForSubject(ctx context.Context, subjectID string, ictx InstanceContext, now time.Time) (*models.WorkflowInstance, []*models.Task, error) {
	subject, err := e.subjects.Get(ctx, subjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("load subject: %w", err)
	}
	if subject.DefaultWorkflowID == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoDefaultWorkflow, subjectID)
	}
	ictx.SubjectID = subjectID
	return e.Instantiate(ctx, *subject.DefaultWorkflowID, ictx, now)
}

// OnTaskCompleted advances the instance a completed workflow task belongs to.
// It returns any newly created tasks and any obligation for a step whose task
// must be created by hand. Invoking it more than once for the same completed
// task is idempotent: a task already recorded for the next step short-circuits.
func (e *Engine) OnTaskCompleted(ctx context.Context, t *models.Task, now time.Time) ([]*models.Task, []StepObligation, error) {
	if !t.IsWorkflowTask() {
		return nil, nil, fmt.Errorf("%w: task %s", ErrNotWorkflowTask, t.ID)
	}
	if t.Status != models.TaskStatusCompleted {
		return nil, nil, fmt.Errorf("%w: task %s is %s", ErrTaskNotCompleted, t.ID, t.Status)
	}

	inst, err := e.instances.Get(ctx, *t.InstanceID)
	if err != nil {
		return nil, nil, fmt.Errorf("load instance: %w", err)
	}
	if inst.Status != models.InstanceStatusActive {
		// Cancelled or already completed instances create nothing more.
		e.logger.Debug("instance %s is %s, ignoring completion of task %s", inst.ID, inst.Status, t.ID)
		return nil, nil, nil
	}

	def, err := e.workflows.Get(ctx, inst.WorkflowID)
	if err != nil {
		return nil, nil, fmt.Errorf("load workflow: %w", err)
	}

	k := *t.StepNumber
	if k >= def.FinalStep() {
		return nil, nil, e.completeInstance(ctx, inst, def, k, now)
	}

	next, ok := def.Step(k + 1)
	if !ok {
		return nil, nil, fmt.Errorf("workflow %s has no step %d", def.ID, k+1)
	}
	if _, exists := inst.TaskForStep(next.StepNumber); exists {
		// Already materialized: at instantiation for an independent step,
		// or by an earlier delivery of this same completion event.
		return nil, nil, e.advanceTo(ctx, inst, next.StepNumber, now)
	}
	if !next.AutoCreate {
		ob := StepObligation{
			InstanceID:   inst.ID,
			WorkflowID:   def.ID,
			StepNumber:   next.StepNumber,
			StepName:     next.Name,
			AssigneeRole: next.AssigneeRole,
		}
		e.logger.Info("instance %s step %d awaits manual creation", inst.ID, next.StepNumber)
		return nil, []StepObligation{ob}, nil
	}

	task, err := e.materializeStep(ctx, inst, next, now)
	if err != nil {
		// Instance stays at step k; the caller retries the event.
		return nil, nil, fmt.Errorf("materialize step %d: %w", next.StepNumber, err)
	}
	if err := e.advanceTo(ctx, inst, next.StepNumber, now); err != nil {
		return []*models.Task{task}, nil, err
	}
	return []*models.Task{task}, nil, nil
}

// RecordManualTask binds an externally created task to an instance step,
// closing a manual-creation obligation so automatic chaining can resume from
// that step. Recording the same task twice is a no-op; a different task for
// an already-bound step is a conflict.
func (e *Engine) RecordManualTask(ctx context.Context, instanceID string, stepNumber int, taskID string) error {
	inst, err := e.instances.Get(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("load instance: %w", err)
	}
	if inst.Status == models.InstanceStatusCancelled {
		return fmt.Errorf("%w: %s", ErrInstanceCancelled, instanceID)
	}
	if existing, ok := inst.TaskForStep(stepNumber); ok {
		if existing == taskID {
			return nil
		}
		return fmt.Errorf("%w: instance %s step %d has task %s", ErrStepConflict, instanceID, stepNumber, existing)
	}
	inst.TaskIDsByStep[stepNumber] = taskID
	if stepNumber > inst.CurrentStep {
		inst.CurrentStep = stepNumber
	}
	inst.UpdatedAt = time.Now()
	return e.instances.Update(ctx, inst)
}

// Cancel marks an instance cancelled, blocking any further automatic task
// creation for it. Cancelling twice is a no-op.
func (e *Engine) Cancel(ctx context.Context, instanceID string, now time.Time) error {
	inst, err := e.instances.Get(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("load instance: %w", err)
	}
	if inst.Status == models.InstanceStatusCancelled {
		return nil
	}
	inst.Status = models.InstanceStatusCancelled
	inst.UpdatedAt = now
	if err := e.instances.Update(ctx, inst); err != nil {
		return err
	}
	e.logger.Info("instance %s cancelled", instanceID)
	return nil
}

// materializeStep creates the task for a step, due the step's SLA from now,
// and records it on the instance in memory. The caller persists the instance.
func (e *Engine) materializeStep(ctx context.Context, inst *models.WorkflowInstance, step models.WorkflowStep, now time.Time) (*models.Task, error) {
	assignee, err := e.roles.ResolveAssignee(ctx, step.AssigneeRole)
	if err != nil {
		return nil, fmt.Errorf("resolve assignee: %w", err)
	}
	due := e.due.AddDays(now, step.DaysToComplete)

	stepNumber := step.StepNumber
	task := &models.Task{
		ID:          uuid.New().String(),
		Title:       step.Name,
		Description: step.Description,
		Date:        due.Format(models.DateLayout),
		Status:      models.TaskStatusNew,
		Priority:    models.TaskPriorityMedium,
		Type:        step.TaskType,
		SubjectID:   inst.SubjectID,
		WorkflowID:  &inst.WorkflowID,
		StepNumber:  &stepNumber,
		InstanceID:  &inst.ID,
		ClientID:    inst.ClientID,
		ClientName:  inst.ClientName,
		AssignedTo:  assignee,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   inst.CreatedBy,
	}
	if err := e.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	inst.TaskIDsByStep[step.StepNumber] = task.ID
	return task, nil
}

func (e *Engine) advanceTo(ctx context.Context, inst *models.WorkflowInstance, step int, now time.Time) error {
	if step <= inst.CurrentStep {
		return nil
	}
	inst.CurrentStep = step
	inst.UpdatedAt = now
	return e.instances.Update(ctx, inst)
}

func (e *Engine) completeInstance(ctx context.Context, inst *models.WorkflowInstance, def *models.WorkflowDefinition, finalStep int, now time.Time) error {
	inst.Status = models.InstanceStatusCompleted
	if finalStep > inst.CurrentStep {
		inst.CurrentStep = finalStep
	}
	inst.UpdatedAt = now
	if err := e.instances.Update(ctx, inst); err != nil {
		return fmt.Errorf("complete instance: %w", err)
	}
	if err := e.workflows.IncrementUsage(ctx, def.ID); err != nil {
		// The instance is already completed; the count is advisory.
		e.logger.Warn("failed to increment usage for workflow %s: %v", def.ID, err)
	}
	e.logger.Info("instance %s completed workflow %s", inst.ID, def.ID)
	return nil
}

// saveInstance persists instance progress on a best-effort basis during
// partial-failure paths.
func (e *Engine) saveInstance(ctx context.Context, inst *models.WorkflowInstance, now time.Time) {
	inst.UpdatedAt = now
	if err := e.instances.Update(ctx, inst); err != nil {
		e.logger.Warn("failed to record instance %s progress: %v", inst.ID, err)
	}
}
