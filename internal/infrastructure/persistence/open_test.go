package persistence_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rezkam/compass/internal/config"
	"github.com/rezkam/compass/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "compass.db")

	store, err := persistence.Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Ping(ctx))
	assert.FileExists(t, path)
}

func TestMigrate_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "compass.db")}

	require.NoError(t, persistence.Migrate(ctx, cfg))
	// Re-running finds nothing pending.
	require.NoError(t, persistence.Migrate(ctx, cfg))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := persistence.Open(context.Background(), config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")

	err = persistence.Migrate(context.Background(), config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
}
