package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Btuvia/MZ-sub001/pkg/models"
)

// PostgresInstanceStore is a PostgreSQL implementation of the InstanceStore
// interface.
type PostgresInstanceStore struct {
	db *pgxpool.Pool
}

// NewPostgresInstanceStore creates a new PostgresInstanceStore.
func NewPostgresInstanceStore(db *pgxpool.Pool) *PostgresInstanceStore {
	return &PostgresInstanceStore{db: db}
}

const instanceColumns = `id, workflow_id, subject_id, client_id, client_name,
	status, current_step, task_ids_by_step, created_at, updated_at, created_by`

// Create persists a workflow instance.
func (s *PostgresInstanceStore) Create(ctx context.Context, inst *models.WorkflowInstance) error {
	byStep, err := json.Marshal(inst.TaskIDsByStep)
	if err != nil {
		return fmt.Errorf("marshal task ids: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO workflow_instances (`+instanceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		inst.ID, inst.WorkflowID, inst.SubjectID, inst.ClientID, inst.ClientName,
		inst.Status, inst.CurrentStep, byStep, inst.CreatedAt, inst.UpdatedAt, inst.CreatedBy)
	return err
}

// Get retrieves a workflow instance by its ID.
func (s *PostgresInstanceStore) Get(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	row := s.db.QueryRow(ctx, `SELECT `+instanceColumns+` FROM workflow_instances WHERE id = $1`, id)
	inst, err := scanInstance(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("instance %s: %w", id, ErrNotFound)
	}
	return inst, err
}

// Update saves an existing workflow instance.
func (s *PostgresInstanceStore) Update(ctx context.Context, inst *models.WorkflowInstance) error {
	byStep, err := json.Marshal(inst.TaskIDsByStep)
	if err != nil {
		return fmt.Errorf("marshal task ids: %w", err)
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE workflow_instances SET status = $2, current_step = $3,
		 task_ids_by_step = $4, updated_at = $5 WHERE id = $1`,
		inst.ID, inst.Status, inst.CurrentStep, byStep, inst.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("instance %s: %w", inst.ID, ErrNotFound)
	}
	return nil
}

// ListActive returns all instances still in the active state.
func (s *PostgresInstanceStore) ListActive(ctx context.Context) ([]*models.WorkflowInstance, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+instanceColumns+` FROM workflow_instances WHERE status = $1 ORDER BY created_at`,
		models.InstanceStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []*models.WorkflowInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func scanInstance(row pgx.Row) (*models.WorkflowInstance, error) {
	var (
		inst   models.WorkflowInstance
		byStep []byte
	)
	err := row.Scan(&inst.ID, &inst.WorkflowID, &inst.SubjectID, &inst.ClientID,
		&inst.ClientName, &inst.Status, &inst.CurrentStep, &byStep,
		&inst.CreatedAt, &inst.UpdatedAt, &inst.CreatedBy)
	if err != nil {
		return nil, err
	}
	inst.TaskIDsByStep = map[int]string{}
	if len(byStep) > 0 {
		if err := json.Unmarshal(byStep, &inst.TaskIDsByStep); err != nil {
			return nil, fmt.Errorf("unmarshal task ids for instance %s: %w", inst.ID, err)
		}
	}
	return &inst, nil
}
