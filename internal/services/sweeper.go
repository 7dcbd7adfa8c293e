package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/Btuvia/MZ-sub001/internal/logging"
	"github.com/Btuvia/MZ-sub001/internal/repository"
	"github.com/Btuvia/MZ-sub001/pkg/models"
)

// SweepResult reports the outcome of one sweep cycle.
type SweepResult struct {
	Changed   []string `json:"changed"`
	Unchanged []string `json:"unchanged"`
	Failed    []string `json:"failed"`
}

// Sweeper re-evaluates every active task against the status engine on a fixed
// interval and persists any status that has drifted, so the overdue state is
// visible to every reader of the store rather than recomputed per viewer.
type Sweeper struct {
	tasks    repository.TaskStore
	logger   *logging.Logger
	interval time.Duration

	evaluated   metric.Int64Counter
	transitions metric.Int64Counter
	failures    metric.Int64Counter
}

// NewSweeper creates a Sweeper over the given task store.
func NewSweeper(tasks repository.TaskStore, logger *logging.Logger, interval time.Duration) *Sweeper {
	meter := otel.Meter("github.com/Btuvia/MZ-sub001/internal/services")
	evaluated, _ := meter.Int64Counter("sweeper.tasks_evaluated")
	transitions, _ := meter.Int64Counter("sweeper.status_transitions")
	failures, _ := meter.Int64Counter("sweeper.failures")
	return &Sweeper{
		tasks:       tasks,
		logger:      logger,
		interval:    interval,
		evaluated:   evaluated,
		transitions: transitions,
		failures:    failures,
	}
}

// SweepOnce re-derives the status of every active task as of now and persists
// each change individually. A bad record or a failed write is logged, counted
// under Failed, and skipped; it never aborts the cycle. The sweep touches no
// field besides status and updated-at, and running it twice with the same now
// reports zero further changes.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	active, err := s.tasks.List(ctx, repository.TaskFilterHints{Statuses: models.ActiveStatuses()})
	if err != nil {
		return result, err
	}

	for _, t := range active {
		// The store hint should exclude terminal tasks already; this
		// guard keeps the sweep correct when it does not.
		if t.Status.Terminal() {
			continue
		}
		s.evaluated.Add(ctx, 1)

		derived, err := DeriveStatus(t, now)
		if err != nil {
			s.logger.Warn("sweep: skipping task %s: %v", t.ID, err)
			s.failures.Add(ctx, 1)
			result.Failed = append(result.Failed, t.ID)
			continue
		}
		if derived == t.Status {
			result.Unchanged = append(result.Unchanged, t.ID)
			continue
		}
		if err := s.tasks.UpdateStatus(ctx, t.ID, derived, now); err != nil {
			// Retried naturally on the next cycle.
			s.logger.Warn("sweep: failed to update task %s: %v", t.ID, err)
			s.failures.Add(ctx, 1)
			result.Failed = append(result.Failed, t.ID)
			continue
		}
		s.transitions.Add(ctx, 1)
		result.Changed = append(result.Changed, t.ID)
	}
	return result, nil
}

// Run drives SweepOnce on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started, interval %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case now := <-ticker.C:
			result, err := s.SweepOnce(ctx, now)
			if err != nil {
				s.logger.Error("sweep cycle failed: %v", err)
				continue
			}
			if len(result.Changed) > 0 || len(result.Failed) > 0 {
				s.logger.Info("sweep: %d overdue transitions, %d failures, %d unchanged",
					len(result.Changed), len(result.Failed), len(result.Unchanged))
			}
		}
	}
}
