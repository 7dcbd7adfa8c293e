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

// PostgresWorkflowStore is a PostgreSQL implementation of the WorkflowStore
// interface.
type PostgresWorkflowStore struct {
	db *pgxpool.Pool
}

// NewPostgresWorkflowStore creates a new PostgresWorkflowStore.
func NewPostgresWorkflowStore(db *pgxpool.Pool) *PostgresWorkflowStore {
	return &PostgresWorkflowStore{db: db}
}

// Create persists a workflow definition.
func (s *PostgresWorkflowStore) Create(ctx context.Context, d *models.WorkflowDefinition) error {
	steps, err := json.Marshal(d.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO workflows (id, name, description, category, is_active, usage_count, steps, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.Name, d.Description, d.Category, d.IsActive, d.UsageCount, steps, d.CreatedAt, d.UpdatedAt)
	return err
}

// Get retrieves a workflow definition by its ID.
func (s *PostgresWorkflowStore) Get(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, name, description, category, is_active, usage_count, steps, created_at, updated_at
		 FROM workflows WHERE id = $1`, id)
	d, err := scanWorkflow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("workflow %s: %w", id, ErrNotFound)
	}
	return d, err
}

// List returns all workflow definitions, oldest first.
func (s *PostgresWorkflowStore) List(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, category, is_active, usage_count, steps, created_at, updated_at
		 FROM workflows ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []*models.WorkflowDefinition
	for rows.Next() {
		d, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// IncrementUsage bumps a definition's usage count by one.
func (s *PostgresWorkflowStore) IncrementUsage(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE workflows SET usage_count = usage_count + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workflow %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanWorkflow(row pgx.Row) (*models.WorkflowDefinition, error) {
	var (
		d     models.WorkflowDefinition
		steps []byte
	)
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Category, &d.IsActive,
		&d.UsageCount, &steps, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(steps) > 0 {
		if err := json.Unmarshal(steps, &d.Steps); err != nil {
			return nil, fmt.Errorf("unmarshal steps for workflow %s: %w", d.ID, err)
		}
	}
	return &d, nil
}
