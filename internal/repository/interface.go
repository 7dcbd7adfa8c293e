// Package repository defines the store contracts the engine depends on and
// their PostgreSQL implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Btuvia/MZ-sub001/pkg/models"
)

// ErrNotFound is returned when a record does not exist. It is a permanent
// error: callers must not retry it.
var ErrNotFound = errors.New("record not found")

// TaskFilterHints narrows a TaskStore.List call store-side. All fields are
// optional; correctness never depends on a hint being applied.
type TaskFilterHints struct {
	Statuses   []models.TaskStatus
	SubjectID  *string
	WorkflowID *string
	InstanceID *string
	AssignedTo *string
}

// TaskStore persists and retrieves tasks.
type TaskStore interface {
	// Create persists a new task. The caller assigns the ID.
	Create(ctx context.Context, t *models.Task) error
	// Get retrieves a task by ID.
	Get(ctx context.Context, id string) (*models.Task, error)
	// Update saves all fields of an existing task.
	Update(ctx context.Context, t *models.Task) error
	// UpdateStatus updates only a task's status and updated-at timestamp.
	UpdateStatus(ctx context.Context, id string, status models.TaskStatus, updatedAt time.Time) error
	// List returns tasks matching the given hints.
	List(ctx context.Context, hints TaskFilterHints) ([]*models.Task, error)
	// Delete removes a task by ID.
	Delete(ctx context.Context, id string) error
}

// WorkflowStore persists workflow definitions.
type WorkflowStore interface {
	Create(ctx context.Context, d *models.WorkflowDefinition) error
	Get(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	List(ctx context.Context) ([]*models.WorkflowDefinition, error)
	// IncrementUsage bumps a definition's usage count by one.
	IncrementUsage(ctx context.Context, id string) error
}

// InstanceStore persists workflow instances.
type InstanceStore interface {
	Create(ctx context.Context, inst *models.WorkflowInstance) error
	Get(ctx context.Context, id string) (*models.WorkflowInstance, error)
	Update(ctx context.Context, inst *models.WorkflowInstance) error
	ListActive(ctx context.Context) ([]*models.WorkflowInstance, error)
}

// SubjectStore reads subject configuration. Subjects are owned by
// configuration; the engine only reads them.
type SubjectStore interface {
	Create(ctx context.Context, s *models.Subject) error
	Get(ctx context.Context, id string) (*models.Subject, error)
	List(ctx context.Context) ([]*models.Subject, error)
}
