// Package persistence opens the repository backend selected by configuration.
package persistence

import (
	"context"
	"fmt"

	"github.com/rezkam/compass/internal/application/planner"
	"github.com/rezkam/compass/internal/config"
	"github.com/rezkam/compass/internal/infrastructure/persistence/postgres"
	"github.com/rezkam/compass/internal/infrastructure/persistence/sqlite"
)

// Store is a planner repository that owns a database connection.
type Store interface {
	planner.Repository
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the configured database. SQLite files are created and migrated
// on open; PostgreSQL is migrated only when cfg.AutoMigrate is set.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			AutoMigrate:     cfg.AutoMigrate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return store, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate applies pending migrations to the configured database.
func Migrate(ctx context.Context, cfg config.DatabaseConfig) error {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Migrate(ctx, cfg.DSN)
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		return store.Close()
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
