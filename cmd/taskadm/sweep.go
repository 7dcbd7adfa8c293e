package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Btuvia/MZ-sub001/internal/logging"
	"github.com/Btuvia/MZ-sub001/internal/repository"
	"github.com/Btuvia/MZ-sub001/internal/services"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run a single overdue sweep cycle and report the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context())
		},
	}
}

func runSweep(ctx context.Context) error {
	logger := logging.NewLogger()

	cfg, pool, err := connect(ctx, logger)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	sweeper := services.NewSweeper(repository.NewPostgresTaskStore(pool), logger, cfg.Sweeper.Interval)
	result, err := sweeper.SweepOnce(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	logger.Info("sweep done: %d changed, %d unchanged, %d failed",
		len(result.Changed), len(result.Unchanged), len(result.Failed))
	for _, id := range result.Changed {
		logger.Info("  overdue: %s", id)
	}
	for _, id := range result.Failed {
		logger.Warn("  failed: %s", id)
	}
	return nil
}
