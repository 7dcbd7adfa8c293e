package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Btuvia/MZ-sub001/pkg/models"
)

func TestPostgresStores(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	if err := ApplySchema(ctx, pool); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("task round trip", func(t *testing.T) {
		store := NewPostgresTaskStore(pool)
		nine := "09:00"
		task := &models.Task{
			ID:        uuid.New().String(),
			Title:     "Contact client",
			Date:      "2025-01-10",
			Time:      &nine,
			Status:    models.TaskStatusNew,
			Priority:  models.TaskPriorityHigh,
			Type:      "call",
			SubjectID: "renewals",
			Subtasks:  []models.Subtask{{ID: "s1", Title: "find phone number"}},
			CreatedAt: now,
			UpdatedAt: now,
		}

		assert.NoError(t, store.Create(ctx, task))

		got, err := store.Get(ctx, task.ID)
		assert.NoError(t, err)
		assert.Equal(t, task.Title, got.Title)
		assert.Equal(t, task.Date, got.Date)
		assert.Equal(t, nine, *got.Time)
		assert.Equal(t, task.Subtasks, got.Subtasks)

		later := now.Add(time.Minute)
		assert.NoError(t, store.UpdateStatus(ctx, task.ID, models.TaskStatusOverdue, later))
		got, err = store.Get(ctx, task.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.TaskStatusOverdue, got.Status)
		// Only status and updated-at changed.
		assert.Equal(t, task.Title, got.Title)
		assert.Equal(t, task.Subtasks, got.Subtasks)

		listed, err := store.List(ctx, TaskFilterHints{Statuses: models.ActiveStatuses()})
		assert.NoError(t, err)
		assert.Len(t, listed, 1)

		listed, err = store.List(ctx, TaskFilterHints{Statuses: []models.TaskStatus{models.TaskStatusCompleted}})
		assert.NoError(t, err)
		assert.Empty(t, listed)

		assert.NoError(t, store.Delete(ctx, task.ID))
		_, err = store.Get(ctx, task.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("workflow round trip and usage", func(t *testing.T) {
		store := NewPostgresWorkflowStore(pool)
		def := &models.WorkflowDefinition{
			ID:       uuid.New().String(),
			Name:     "Policy renewal",
			Category: "policy",
			IsActive: true,
			Steps: []models.WorkflowStep{
				{StepNumber: 1, Name: "Contact client", TaskType: "call", DaysToComplete: 2, AssigneeRole: "agent", AutoCreate: true},
				{StepNumber: 2, Name: "Prepare quote", TaskType: "quote", DaysToComplete: 3, AssigneeRole: "back_office", AutoCreate: true, RequiresPreviousCompletion: true},
			},
			CreatedAt: now,
			UpdatedAt: now,
		}

		assert.NoError(t, store.Create(ctx, def))

		got, err := store.Get(ctx, def.ID)
		assert.NoError(t, err)
		assert.Equal(t, def.Steps, got.Steps)
		assert.Equal(t, 0, got.UsageCount)

		assert.NoError(t, store.IncrementUsage(ctx, def.ID))
		got, err = store.Get(ctx, def.ID)
		assert.NoError(t, err)
		assert.Equal(t, 1, got.UsageCount)

		defs, err := store.List(ctx)
		assert.NoError(t, err)
		assert.NotEmpty(t, defs)
	})

	t.Run("instance round trip", func(t *testing.T) {
		store := NewPostgresInstanceStore(pool)
		inst := &models.WorkflowInstance{
			ID:            uuid.New().String(),
			WorkflowID:    uuid.New().String(),
			SubjectID:     "renewals",
			Status:        models.InstanceStatusActive,
			CurrentStep:   1,
			TaskIDsByStep: map[int]string{1: uuid.New().String()},
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		assert.NoError(t, store.Create(ctx, inst))

		got, err := store.Get(ctx, inst.ID)
		assert.NoError(t, err)
		assert.Equal(t, inst.TaskIDsByStep, got.TaskIDsByStep)

		got.Status = models.InstanceStatusCompleted
		got.CurrentStep = 2
		got.TaskIDsByStep[2] = uuid.New().String()
		assert.NoError(t, store.Update(ctx, got))

		active, err := store.ListActive(ctx)
		assert.NoError(t, err)
		for _, a := range active {
			assert.NotEqual(t, inst.ID, a.ID)
		}
	})

	t.Run("subject round trip", func(t *testing.T) {
		store := NewPostgresSubjectStore(pool)
		wfID := uuid.New().String()
		subject := &models.Subject{
			ID:                "renewals-test",
			Name:              "Policy renewals",
			RelatedToPolicy:   true,
			DefaultWorkflowID: &wfID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		assert.NoError(t, store.Create(ctx, subject))

		got, err := store.Get(ctx, subject.ID)
		assert.NoError(t, err)
		assert.Equal(t, wfID, *got.DefaultWorkflowID)
		assert.True(t, got.RelatedToPolicy)

		_, err = store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
