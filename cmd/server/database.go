package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskmaster-api/internal/config"
	"github.com/phrazzld/taskmaster-api/internal/platform/sqlstore"
)

// setupDatabase opens and pings the database and, when configured, applies
// pending migrations. The scheduler must not start before this returns.
func setupDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sqlx.DB, error) {
	db, err := sqlstore.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := sqlstore.Migrate(ctx, db, logger); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	return db, nil
}
