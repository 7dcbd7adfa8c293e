package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Btuvia/MZ-sub001/pkg/models"
)

// PostgresSubjectStore is a PostgreSQL implementation of the SubjectStore
// interface.
type PostgresSubjectStore struct {
	db *pgxpool.Pool
}

// NewPostgresSubjectStore creates a new PostgresSubjectStore.
func NewPostgresSubjectStore(db *pgxpool.Pool) *PostgresSubjectStore {
	return &PostgresSubjectStore{db: db}
}

// Create persists a subject.
func (s *PostgresSubjectStore) Create(ctx context.Context, subject *models.Subject) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO subjects (id, name, related_to_policy, is_future_lead, default_workflow_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		subject.ID, subject.Name, subject.RelatedToPolicy, subject.IsFutureLead,
		subject.DefaultWorkflowID, subject.CreatedAt, subject.UpdatedAt)
	return err
}

// Get retrieves a subject by its ID.
func (s *PostgresSubjectStore) Get(ctx context.Context, id string) (*models.Subject, error) {
	var subject models.Subject
	err := s.db.QueryRow(ctx,
		`SELECT id, name, related_to_policy, is_future_lead, default_workflow_id, created_at, updated_at
		 FROM subjects WHERE id = $1`, id).
		Scan(&subject.ID, &subject.Name, &subject.RelatedToPolicy, &subject.IsFutureLead,
			&subject.DefaultWorkflowID, &subject.CreatedAt, &subject.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("subject %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

// List returns all subjects.
func (s *PostgresSubjectStore) List(ctx context.Context) ([]*models.Subject, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, related_to_policy, is_future_lead, default_workflow_id, created_at, updated_at
		 FROM subjects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []*models.Subject
	for rows.Next() {
		var subject models.Subject
		if err := rows.Scan(&subject.ID, &subject.Name, &subject.RelatedToPolicy,
			&subject.IsFutureLead, &subject.DefaultWorkflowID,
			&subject.CreatedAt, &subject.UpdatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, &subject)
	}
	return subjects, rows.Err()
}
