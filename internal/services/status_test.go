package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Btuvia/MZ-sub001/pkg/models"
)

func TestDeriveStatus(t *testing.T) {
	shortTime := func(s string) *string { return &s }

	t.Run("past deadline with time is overdue", func(t *testing.T) {
		task := &models.Task{ID: "t1", Date: "2025-01-10", Time: shortTime("09:00"), Status: models.TaskStatusNew}
		now := time.Date(2025, 1, 10, 9, 1, 0, 0, time.Local)

		status, err := DeriveStatus(task, now)
		assert.NoError(t, err)
		assert.Equal(t, models.TaskStatusOverdue, status)
	})

	t.Run("before deadline keeps persisted status", func(t *testing.T) {
		task := &models.Task{ID: "t1", Date: "2025-01-10", Time: shortTime("09:00"), Status: models.TaskStatusNew}
		now := time.Date(2025, 1, 10, 8, 59, 0, 0, time.Local)

		status, err := DeriveStatus(task, now)
		assert.NoError(t, err)
		assert.Equal(t, models.TaskStatusNew, status)
	})

	t.Run("at the deadline is overdue", func(t *testing.T) {
		task := &models.Task{ID: "t1", Date: "2025-01-10", Time: shortTime("09:00"), Status: models.TaskStatusInProgress}
		now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.Local)

		status, err := DeriveStatus(task, now)
		assert.NoError(t, err)
		assert.Equal(t, models.TaskStatusOverdue, status)
	})

	t.Run("no time means end of day", func(t *testing.T) {
		task := &models.Task{ID: "t1", Date: "2025-01-10", Status: models.TaskStatusPending}

		status, err := DeriveStatus(task, time.Date(2025, 1, 10, 23, 58, 0, 0, time.Local))
		assert.NoError(t, err)
		assert.Equal(t, models.TaskStatusPending, status)

		status, err = DeriveStatus(task, time.Date(2025, 1, 10, 23, 59, 0, 0, time.Local))
		assert.NoError(t, err)
		assert.Equal(t, models.TaskStatusOverdue, status)
	})

	t.Run("terminal statuses are sticky regardless of now", func(t *testing.T) {
		for _, terminal := range []models.TaskStatus{
			models.TaskStatusCompleted, models.TaskStatusCancelled, models.TaskStatusTransferred,
		} {
			task := &models.Task{ID: "t1", Date: "2020-01-01", Status: terminal}
			status, err := DeriveStatus(task, time.Date(2030, 1, 1, 0, 0, 0, 0, time.Local))
			assert.NoError(t, err)
			assert.Equal(t, terminal, status)
		}
	})

	t.Run("malformed date is a data-quality error", func(t *testing.T) {
		task := &models.Task{ID: "t1", Date: "10/01/2025", Status: models.TaskStatusNew}
		_, err := DeriveStatus(task, time.Now())
		assert.ErrorIs(t, err, models.ErrBadDate)
	})

	t.Run("malformed time is a data-quality error", func(t *testing.T) {
		task := &models.Task{ID: "t1", Date: "2025-01-10", Time: shortTime("9 am"), Status: models.TaskStatusNew}
		_, err := DeriveStatus(task, time.Now())
		assert.ErrorIs(t, err, models.ErrBadDate)
	})

	t.Run("never mutates its input", func(t *testing.T) {
		task := &models.Task{ID: "t1", Date: "2025-01-10", Status: models.TaskStatusNew}
		_, err := DeriveStatus(task, time.Date(2030, 1, 1, 0, 0, 0, 0, time.Local))
		assert.NoError(t, err)
		assert.Equal(t, models.TaskStatusNew, task.Status)
	})
}
