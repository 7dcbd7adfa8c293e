// Package services implements the task lifecycle engines: status derivation,
// the overdue sweeper, workflow instantiation and chaining, and the task
// filter.
package services

import (
	"time"

	"github.com/Btuvia/MZ-sub001/pkg/models"
)

// DeriveStatus maps a task snapshot and the current time to the task's
// correct status. Terminal statuses are sticky and returned unchanged. For
// active tasks the effective deadline is the task date plus its time of day
// (end of day when no time is set); at or past the deadline the derived
// status is overdue, otherwise the persisted status.
//
// The function is pure: it never mutates the task. A malformed date or time
// is a data-quality error returned to the caller, not coerced.
func DeriveStatus(t *models.Task, now time.Time) (models.TaskStatus, error) {
	if t.Status.Terminal() {
		return t.Status, nil
	}
	deadline, err := t.Deadline()
	if err != nil {
		return "", err
	}
	if !now.Before(deadline) {
		return models.TaskStatusOverdue, nil
	}
	return t.Status, nil
}
