package cmd

import (
	"context"
	"fmt"

	"github.com/eventpro/server/internal/config"
	"github.com/eventpro/server/internal/storage"
	"github.com/eventpro/server/internal/storage/mongo"
	"github.com/eventpro/server/internal/storage/postgres"
	"github.com/rs/zerolog"
)

// openStore connects the configured backend. Postgres schemas are migrated
// to the latest version first.
func openStore(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if err := postgres.MigrateUp(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return nil, err
		}
		logger.Info().Msg("database migrations applied")
		return postgres.Open(ctx, cfg)
	case config.DriverMongo:
		return mongo.Open(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
