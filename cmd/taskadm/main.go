// taskadm is the operations CLI for the task and workflow service: seeding
// the schema and fixtures, and running one-off sweep cycles.
package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/Btuvia/MZ-sub001/internal/config"
	"github.com/Btuvia/MZ-sub001/internal/logging"
)

func main() {
	root := &cobra.Command{
		Use:           "taskadm",
		Short:         "Admin tool for the task and workflow service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSeedCmd(), newSweepCmd())

	if err := root.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

// connect loads config and opens the database pool shared by all subcommands.
func connect(ctx context.Context, logger *logging.Logger) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.ConnString())
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Debug("database connected")
	return cfg, pool, nil
}
