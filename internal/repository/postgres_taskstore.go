package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Btuvia/MZ-sub001/pkg/models"
)

// PostgresTaskStore is a PostgreSQL implementation of the TaskStore interface.
type PostgresTaskStore struct {
	db *pgxpool.Pool
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db *pgxpool.Pool) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

const taskColumns = `id, title, description, date, time, status, priority, type,
	subject_id, workflow_id, step_number, instance_id, client_id, client_name,
	assigned_to, subtasks, created_at, updated_at, created_by`

// Create persists a new task.
func (s *PostgresTaskStore) Create(ctx context.Context, t *models.Task) error {
	subtasks, err := json.Marshal(t.Subtasks)
	if err != nil {
		return fmt.Errorf("marshal subtasks: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		t.ID, t.Title, t.Description, t.Date, t.Time, t.Status, t.Priority, t.Type,
		t.SubjectID, t.WorkflowID, t.StepNumber, t.InstanceID, t.ClientID, t.ClientName,
		t.AssignedTo, subtasks, t.CreatedAt, t.UpdatedAt, t.CreatedBy)
	return err
}

// Get retrieves a task by its ID.
func (s *PostgresTaskStore) Get(ctx context.Context, id string) (*models.Task, error) {
	row := s.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return t, err
}

// Update saves all fields of an existing task.
func (s *PostgresTaskStore) Update(ctx context.Context, t *models.Task) error {
	subtasks, err := json.Marshal(t.Subtasks)
	if err != nil {
		return fmt.Errorf("marshal subtasks: %w", err)
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE tasks SET title = $2, description = $3, date = $4, time = $5,
		 status = $6, priority = $7, type = $8, subject_id = $9, workflow_id = $10,
		 step_number = $11, instance_id = $12, client_id = $13, client_name = $14,
		 assigned_to = $15, subtasks = $16, updated_at = $17 WHERE id = $1`,
		t.ID, t.Title, t.Description, t.Date, t.Time, t.Status, t.Priority, t.Type,
		t.SubjectID, t.WorkflowID, t.StepNumber, t.InstanceID, t.ClientID, t.ClientName,
		t.AssignedTo, subtasks, t.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

// UpdateStatus updates only a task's status and updated-at timestamp.
func (s *PostgresTaskStore) UpdateStatus(ctx context.Context, id string, status models.TaskStatus, updatedAt time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tasks SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// List returns tasks matching the given hints, oldest first.
func (s *PostgresTaskStore) List(ctx context.Context, hints TaskFilterHints) ([]*models.Task, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if len(hints.Statuses) > 0 {
		statuses := make([]string, len(hints.Statuses))
		for i, st := range hints.Statuses {
			statuses[i] = string(st)
		}
		where = append(where, "status = ANY("+arg(statuses)+")")
	}
	if hints.SubjectID != nil {
		where = append(where, "subject_id = "+arg(*hints.SubjectID))
	}
	if hints.WorkflowID != nil {
		where = append(where, "workflow_id = "+arg(*hints.WorkflowID))
	}
	if hints.InstanceID != nil {
		where = append(where, "instance_id = "+arg(*hints.InstanceID))
	}
	if hints.AssignedTo != nil {
		where = append(where, "assigned_to = "+arg(*hints.AssignedTo))
	}
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Delete removes a task by ID.
func (s *PostgresTaskStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var (
		t        models.Task
		subtasks []byte
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Date, &t.Time, &t.Status,
		&t.Priority, &t.Type, &t.SubjectID, &t.WorkflowID, &t.StepNumber, &t.InstanceID,
		&t.ClientID, &t.ClientName, &t.AssignedTo, &subtasks, &t.CreatedAt, &t.UpdatedAt,
		&t.CreatedBy)
	if err != nil {
		return nil, err
	}
	if len(subtasks) > 0 {
		if err := json.Unmarshal(subtasks, &t.Subtasks); err != nil {
			return nil, fmt.Errorf("unmarshal subtasks for task %s: %w", t.ID, err)
		}
	}
	return &t, nil
}
