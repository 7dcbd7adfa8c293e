package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Btuvia/MZ-sub001/internal/logging"
	"github.com/Btuvia/MZ-sub001/pkg/models"
)

func sweepTask(id, date string, status models.TaskStatus) *models.Task {
	return &models.Task{
		ID:       id,
		Title:    "task " + id,
		Date:     date,
		Status:   status,
		Priority: models.TaskPriorityMedium,
	}
}

func TestSweeper(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewLogger()
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.Local)

	t.Run("persists overdue transitions and leaves the rest alone", func(t *testing.T) {
		store := newFakeTaskStore()
		assert.NoError(t, store.Create(ctx, sweepTask("late", "2025-01-10", models.TaskStatusNew)))
		assert.NoError(t, store.Create(ctx, sweepTask("ontime", "2025-01-20", models.TaskStatusPending)))
		assert.NoError(t, store.Create(ctx, sweepTask("done", "2025-01-10", models.TaskStatusCompleted)))

		result, err := NewSweeper(store, logger, time.Minute).SweepOnce(ctx, now)
		assert.NoError(t, err)
		assert.Equal(t, []string{"late"}, result.Changed)
		assert.Equal(t, []string{"ontime"}, result.Unchanged)
		assert.Empty(t, result.Failed)

		late, err := store.Get(ctx, "late")
		assert.NoError(t, err)
		assert.Equal(t, models.TaskStatusOverdue, late.Status)
		assert.Equal(t, now, late.UpdatedAt)

		// Terminal task untouched.
		done, err := store.Get(ctx, "done")
		assert.NoError(t, err)
		assert.Equal(t, models.TaskStatusCompleted, done.Status)
	})

	t.Run("second sweep with the same now reports zero changes", func(t *testing.T) {
		store := newFakeTaskStore()
		assert.NoError(t, store.Create(ctx, sweepTask("late", "2025-01-10", models.TaskStatusNew)))
		sweeper := NewSweeper(store, logger, time.Minute)

		first, err := sweeper.SweepOnce(ctx, now)
		assert.NoError(t, err)
		assert.Len(t, first.Changed, 1)

		second, err := sweeper.SweepOnce(ctx, now)
		assert.NoError(t, err)
		assert.Empty(t, second.Changed)
		assert.Equal(t, []string{"late"}, second.Unchanged)
	})

	t.Run("one failing update does not block the others", func(t *testing.T) {
		store := newFakeTaskStore()
		assert.NoError(t, store.Create(ctx, sweepTask("a", "2025-01-10", models.TaskStatusNew)))
		assert.NoError(t, store.Create(ctx, sweepTask("b", "2025-01-10", models.TaskStatusNew)))
		store.failUpdates["a"] = true

		result, err := NewSweeper(store, logger, time.Minute).SweepOnce(ctx, now)
		assert.NoError(t, err)
		assert.Equal(t, []string{"a"}, result.Failed)
		assert.Equal(t, []string{"b"}, result.Changed)

		// The failed task converges on the next cycle.
		store.failUpdates["a"] = false
		retry, err := NewSweeper(store, logger, time.Minute).SweepOnce(ctx, now)
		assert.NoError(t, err)
		assert.Equal(t, []string{"a"}, retry.Changed)
	})

	t.Run("a bad record is skipped, not fatal", func(t *testing.T) {
		store := newFakeTaskStore()
		assert.NoError(t, store.Create(ctx, sweepTask("bad", "not-a-date", models.TaskStatusNew)))
		assert.NoError(t, store.Create(ctx, sweepTask("good", "2025-01-10", models.TaskStatusNew)))

		result, err := NewSweeper(store, logger, time.Minute).SweepOnce(ctx, now)
		assert.NoError(t, err)
		assert.Equal(t, []string{"bad"}, result.Failed)
		assert.Equal(t, []string{"good"}, result.Changed)
	})

	t.Run("sweep touches nothing besides status and updated-at", func(t *testing.T) {
		store := newFakeTaskStore()
		task := sweepTask("late", "2025-01-10", models.TaskStatusNew)
		task.Subtasks = []models.Subtask{{ID: "s1", Title: "check documents"}}
		task.AssignedTo = "dana"
		assert.NoError(t, store.Create(ctx, task))

		_, err := NewSweeper(store, logger, time.Minute).SweepOnce(ctx, now)
		assert.NoError(t, err)

		after, err := store.Get(ctx, "late")
		assert.NoError(t, err)
		assert.Equal(t, models.TaskStatusOverdue, after.Status)
		assert.Equal(t, "dana", after.AssignedTo)
		assert.Equal(t, task.Subtasks, after.Subtasks)
		assert.Equal(t, task.Date, after.Date)
	})
}
