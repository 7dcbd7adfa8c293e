package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Btuvia/MZ-sub001/internal/logging"
	"github.com/Btuvia/MZ-sub001/internal/repository"
	"github.com/Btuvia/MZ-sub001/pkg/models"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and seed default subjects and workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context())
		},
	}
}

func runSeed(ctx context.Context) error {
	logger := logging.NewLogger()

	_, pool, err := connect(ctx, logger)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	if err := repository.ApplySchema(ctx, pool); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	logger.Info("schema applied")

	workflows := repository.NewPostgresWorkflowStore(pool)
	subjects := repository.NewPostgresSubjectStore(pool)

	// Check for existing workflows to prevent duplicates.
	existing, err := workflows.List(ctx)
	if err != nil {
		return fmt.Errorf("list workflows: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("found %d existing workflow(s), skipping seed", len(existing))
		return nil
	}

	now := time.Now()
	renewal := &models.WorkflowDefinition{
		ID:       uuid.New().String(),
		Name:     "Policy renewal",
		Category: "policy",
		IsActive: true,
		Steps: []models.WorkflowStep{
			{
				StepNumber:     1,
				Name:           "Contact client about renewal",
				TaskType:       "call",
				DaysToComplete: 2,
				AssigneeRole:   "agent",
				AutoCreate:     true,
			},
			{
				StepNumber:                 2,
				Name:                       "Prepare renewal quote",
				TaskType:                   "quote",
				DaysToComplete:             3,
				AssigneeRole:               "back_office",
				AutoCreate:                 true,
				RequiresPreviousCompletion: true,
			},
			{
				StepNumber:                 3,
				Name:                       "Confirm renewal and issue policy",
				TaskType:                   "issue",
				DaysToComplete:             5,
				AssigneeRole:               "agent",
				AutoCreate:                 true,
				RequiresPreviousCompletion: true,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := renewal.Validate(); err != nil {
		return err
	}
	if err := workflows.Create(ctx, renewal); err != nil {
		return fmt.Errorf("create workflow: %w", err)
	}
	logger.Info("seeded workflow %q (%s)", renewal.Name, renewal.ID)

	seedSubjects := []*models.Subject{
		{
			ID:                "renewals",
			Name:              "Policy renewals",
			RelatedToPolicy:   true,
			DefaultWorkflowID: &renewal.ID,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
		{
			ID:           "future-leads",
			Name:         "Future leads",
			IsFutureLead: true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
	for _, s := range seedSubjects {
		if err := subjects.Create(ctx, s); err != nil {
			return fmt.Errorf("create subject %s: %w", s.ID, err)
		}
		logger.Info("seeded subject %q", s.ID)
	}
	return nil
}
