package cmd

import (
	"fmt"

	"github.com/eventsignup/server/internal/storage"
	"github.com/eventsignup/server/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		Long: `Manage the PostgreSQL schema with the embedded migrations.

SQLite databases apply their schema when opened, so these commands only
report that nothing needs to be done for a sqlite:// DATABASE_URL.`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			databaseURL, ok, err := migrationTarget(opts, cmd)
			if err != nil || !ok {
				return err
			}
			if err := postgres.MigrateUp(databaseURL); err != nil {
				return err
			}
			return printMigrationVersion(cmd, databaseURL)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			databaseURL, ok, err := migrationTarget(opts, cmd)
			if err != nil || !ok {
				return err
			}
			if err := postgres.MigrateDown(databaseURL, steps); err != nil {
				return err
			}
			return printMigrationVersion(cmd, databaseURL)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

// migrationTarget returns the database URL and whether migrations apply to
// its backend.
func migrationTarget(opts *globalOptions, cmd *cobra.Command) (string, bool, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return "", false, fmt.Errorf("config error: %w", err)
	}
	backend, err := storage.Backend(cfg.Database.URL)
	if err != nil {
		return "", false, err
	}
	if backend != storage.BackendPostgres {
		fmt.Fprintf(cmd.OutOrStdout(), "%s schema is applied on startup; nothing to migrate\n", backend)
		return "", false, nil
	}
	return cfg.Database.URL, true, nil
}

func printMigrationVersion(cmd *cobra.Command, databaseURL string) error {
	version, dirty, err := postgres.MigrationVersion(databaseURL)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
	return nil
}
