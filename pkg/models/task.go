// Package models defines the domain models for the task and workflow engine.
package models

import (
	"errors"
	"fmt"
	"time"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusNew         TaskStatus = "new"
	TaskStatusPending     TaskStatus = "pending"
	TaskStatusInProgress  TaskStatus = "in_progress"
	TaskStatusCompleted   TaskStatus = "completed"
	TaskStatusCancelled   TaskStatus = "cancelled"
	TaskStatusTransferred TaskStatus = "transferred"

	// TaskStatusOverdue is derived from the task deadline versus wall-clock
	// time. It is advisory: business rules that need an explicit human or
	// workflow action must not key off it.
	TaskStatusOverdue TaskStatus = "overdue"
)

// Terminal reports whether s is a terminal status. Terminal statuses are
// sticky: no automated process may move a task out of one.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusCancelled, TaskStatusTransferred:
		return true
	}
	return false
}

// Valid reports whether s is a known status value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNew, TaskStatusPending, TaskStatusInProgress,
		TaskStatusCompleted, TaskStatusCancelled, TaskStatusTransferred,
		TaskStatusOverdue:
		return true
	}
	return false
}

// ActiveStatuses lists every non-terminal status. The sweeper uses it as a
// store-side prefilter.
func ActiveStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusNew, TaskStatusPending, TaskStatusInProgress, TaskStatusOverdue}
}

// TaskPriority represents the urgency of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// Date and time layouts for task scheduling fields. Dates are local calendar
// dates with no zone component; parsing happens on demand so malformed values
// surface as data-quality errors instead of being coerced.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ErrBadDate marks a data-quality error on a task's date or time field.
var ErrBadDate = errors.New("malformed task date")

// Subtask is a checklist item owned exclusively by its parent task. It has no
// independent lifecycle.
type Subtask struct {
	ID        string `json:"id" db:"id"`
	Title     string `json:"title" db:"title"`
	Completed bool   `json:"completed" db:"completed"`
}

// Task represents a single unit of agency work.
type Task struct {
	ID          string  `json:"id" db:"id"`
	Title       string  `json:"title" db:"title"`
	Description *string `json:"description,omitempty" db:"description"`

	// Scheduling
	Date     string       `json:"date" db:"date"`           // DateLayout
	Time     *string      `json:"time,omitempty" db:"time"` // TimeLayout
	Status   TaskStatus   `json:"status" db:"status"`
	Priority TaskPriority `json:"priority" db:"priority"`
	Type     string       `json:"type" db:"type"`

	// Classification
	SubjectID  string  `json:"subject_id" db:"subject_id"`
	WorkflowID *string `json:"workflow_id,omitempty" db:"workflow_id"`
	StepNumber *int    `json:"step_number,omitempty" db:"step_number"`
	InstanceID *string `json:"instance_id,omitempty" db:"instance_id"`

	// Relationships (weak references, lookup only)
	ClientID   *string `json:"client_id,omitempty" db:"client_id"`
	ClientName *string `json:"client_name,omitempty" db:"client_name"`
	AssignedTo string  `json:"assigned_to" db:"assigned_to"`

	Subtasks []Subtask `json:"subtasks,omitempty"`

	// Audit
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	CreatedBy *string   `json:"created_by,omitempty" db:"created_by"`
}

// Deadline computes the task's effective deadline in local time: the task date
// combined with its time of day, or end of day (23:59) when no time is set.
// A malformed date or time returns an error wrapping ErrBadDate.
func (t *Task) Deadline() (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, t.Date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: task %s date %q", ErrBadDate, t.ID, t.Date)
	}
	if t.Time == nil {
		return day.Add(23*time.Hour + 59*time.Minute), nil
	}
	tod, err := time.ParseInLocation(TimeLayout, *t.Time, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: task %s time %q", ErrBadDate, t.ID, *t.Time)
	}
	return day.Add(time.Duration(tod.Hour())*time.Hour + time.Duration(tod.Minute())*time.Minute), nil
}

// IsWorkflowTask reports whether the task instantiates a workflow step.
func (t *Task) IsWorkflowTask() bool {
	return t.InstanceID != nil && t.StepNumber != nil
}
