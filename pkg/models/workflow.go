package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrStepsNotDense marks a workflow definition whose step numbers are not a
// dense 1..N sequence. Such definitions are configuration errors and are
// rejected before instantiation.
var ErrStepsNotDense = errors.New("workflow steps are not densely numbered")

// WorkflowStep is one step of a workflow definition.
type WorkflowStep struct {
	StepNumber     int     `json:"step_number"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	TaskType       string  `json:"task_type"`
	DaysToComplete int     `json:"days_to_complete"` // SLA in days
	AssigneeRole   string  `json:"assignee_role"`
	AutoCreate     bool    `json:"auto_create"`

	// RequiresPreviousCompletion gates materialization on the previous
	// step's task reaching completed. Steps without it may be created at
	// instantiation time, independent of predecessor state.
	RequiresPreviousCompletion bool `json:"requires_previous_completion"`
}

// WorkflowDefinition is a reusable template for a multi-step business process.
type WorkflowDefinition struct {
	ID          string         `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Description *string        `json:"description,omitempty" db:"description"`
	Category    string         `json:"category" db:"category"`
	IsActive    bool           `json:"is_active" db:"is_active"`
	UsageCount  int            `json:"usage_count" db:"usage_count"`
	Steps       []WorkflowStep `json:"steps"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// EstimatedDuration returns the sum of all step SLAs in days.
func (d *WorkflowDefinition) EstimatedDuration() int {
	total := 0
	for _, s := range d.Steps {
		total += s.DaysToComplete
	}
	return total
}

// Validate checks that step numbers form a dense 1..N sequence in order.
func (d *WorkflowDefinition) Validate() error {
	for i, s := range d.Steps {
		if s.StepNumber != i+1 {
			return fmt.Errorf("%w: workflow %s step at index %d has number %d", ErrStepsNotDense, d.ID, i, s.StepNumber)
		}
	}
	return nil
}

// Step returns the step with the given number, if present.
func (d *WorkflowDefinition) Step(n int) (WorkflowStep, bool) {
	if n < 1 || n > len(d.Steps) {
		return WorkflowStep{}, false
	}
	return d.Steps[n-1], true
}

// FinalStep returns the highest step number, or 0 for an empty definition.
func (d *WorkflowDefinition) FinalStep() int {
	return len(d.Steps)
}

// RemoveStep deletes the step with the given number and renumbers the
// remainder so the sequence stays dense.
func (d *WorkflowDefinition) RemoveStep(n int) {
	if n < 1 || n > len(d.Steps) {
		return
	}
	d.Steps = append(d.Steps[:n-1], d.Steps[n:]...)
	for i := range d.Steps {
		d.Steps[i].StepNumber = i + 1
	}
}

// InstanceStatus represents the lifecycle state of a workflow instance.
type InstanceStatus string

const (
	InstanceStatusActive    InstanceStatus = "active"
	InstanceStatusCompleted InstanceStatus = "completed"
	InstanceStatusCancelled InstanceStatus = "cancelled"
)

// WorkflowInstance binds one workflow definition to one subject/client
// context and tracks the tasks it has produced per step.
type WorkflowInstance struct {
	ID         string         `json:"id" db:"id"`
	WorkflowID string         `json:"workflow_id" db:"workflow_id"`
	SubjectID  string         `json:"subject_id" db:"subject_id"`
	ClientID   *string        `json:"client_id,omitempty" db:"client_id"`
	ClientName *string        `json:"client_name,omitempty" db:"client_name"`
	Status     InstanceStatus `json:"status" db:"status"`

	// CurrentStep is the highest step reached so far; 0 when no step has
	// been materialized yet (step 1 awaiting manual creation).
	CurrentStep   int            `json:"current_step" db:"current_step"`
	TaskIDsByStep map[int]string `json:"task_ids_by_step"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	CreatedBy *string   `json:"created_by,omitempty" db:"created_by"`
}

// TaskForStep returns the task id recorded for the given step, if any.
func (i *WorkflowInstance) TaskForStep(n int) (string, bool) {
	id, ok := i.TaskIDsByStep[n]
	return id, ok
}
