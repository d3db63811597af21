package cmd

import (
	"fmt"

	"github.com/eventpro/server/internal/config"
	"github.com/eventpro/server/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
		Long: `Apply or roll back postgres schema migrations.

Migrations live in internal/storage/postgres/migrations unless MIGRATIONS_PATH
is set. The mongo store creates its indexes at start-up and has no migrations.`,
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := postgresConfig()
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(cfg.DatabaseURL, cfg.MigrationsPath, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := postgresConfig()
				if err != nil {
					return err
				}
				if err := postgres.MigrateUp(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "Print the applied migration version",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := postgresConfig()
				if err != nil {
					return err
				}
				version, dirty, err := postgres.MigrationVersion(cfg.DatabaseURL, cfg.MigrationsPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %t\n", version, dirty)
				return nil
			},
		},
	)
	return cmd
}

func postgresConfig() (config.StoreConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return config.StoreConfig{}, fmt.Errorf("config error: %w", err)
	}
	if cfg.Store.Driver != config.DriverPostgres {
		return config.StoreConfig{}, fmt.Errorf("migrations only apply to the %s store (STORE_DRIVER=%s)", config.DriverPostgres, cfg.Store.Driver)
	}
	return cfg.Store, nil
}
