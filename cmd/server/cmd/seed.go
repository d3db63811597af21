package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/config"
	"github.com/eventpro/server/internal/seed"
	"github.com/spf13/cobra"
)

var errSeedNeedsForce = errors.New("seeding deletes all existing data; pass --force outside development")

func newSeedCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace all data with the demo data set",
		Long: `Delete every user, event, registration and contact submission, then load
three demo accounts, six published events and four registrations.

Outside ENVIRONMENT=development the --force flag is required.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if err := checkSeedAllowed(cfg, force); err != nil {
				return err
			}

			logger := config.NewLogger(cfg.Logging)
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			store, err := openStore(ctx, cfg.Store, logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			summary, err := seed.Load(ctx, store, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Seeded %d users, %d events, %d registrations\n", summary.Users, summary.Events, summary.Registrations)
			fmt.Fprintln(out, "\nSample login credentials:")
			for _, c := range summary.Credentials {
				fmt.Fprintf(out, "Email: %s, Password: %s\n", c.Email, c.Password)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "allow seeding outside development")
	return cmd
}

func checkSeedAllowed(cfg config.Config, force bool) error {
	if cfg.IsDevelopment() || force {
		return nil
	}
	return errSeedNeedsForce
}
