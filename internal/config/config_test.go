package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadServerConfig_Defaults(t *testing.T) {
	t.Setenv("COMPASS_AUTH_SECRET", testSecret)

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "./compass-data/compass.db", cfg.Database.SQLitePath)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.False(t, cfg.Database.AutoMigrate)

	assert.Equal(t, ":8080", cfg.HTTP.Addr())
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, int64(1<<20), cfg.HTTP.MaxBodyBytes)
	assert.False(t, cfg.HTTP.TLSEnabled())

	assert.Equal(t, "compass", cfg.Auth.Issuer)
	assert.Equal(t, 30*time.Second, cfg.Auth.Leeway)
	assert.Equal(t, 50, cfg.Planner.DefaultPageSize)
	assert.Equal(t, 200, cfg.Planner.MaxPageSize)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	level, err := cfg.Observability.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
	assert.False(t, cfg.Observability.OTelEnabled)
}

func TestLoadServerConfig_WithEnv(t *testing.T) {
	t.Setenv("COMPASS_AUTH_SECRET", testSecret)
	t.Setenv("COMPASS_DB_DRIVER", "postgres")
	t.Setenv("COMPASS_DB_DSN", "postgres://compass:secret@db:5432/compass")
	t.Setenv("COMPASS_DB_MAX_OPEN_CONNS", "50")
	t.Setenv("COMPASS_HTTP_HOST", "127.0.0.1")
	t.Setenv("COMPASS_HTTP_PORT", "9090")
	t.Setenv("COMPASS_TLS_CERT_FILE", "cert.pem")
	t.Setenv("COMPASS_TLS_KEY_FILE", "key.pem")
	t.Setenv("COMPASS_LOG_LEVEL", "DEBUG")
	t.Setenv("COMPASS_OTEL_ENABLED", "true")
	t.Setenv("COMPASS_SHUTDOWN_TIMEOUT", "30s")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://compass:secret@db:5432/compass", cfg.Database.DSN)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTP.Addr())
	assert.True(t, cfg.HTTP.TLSEnabled())
	assert.True(t, cfg.Observability.OTelEnabled)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)

	level, err := cfg.Observability.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadServerConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing secret", map[string]string{}, "COMPASS_AUTH_SECRET is required"},
		{"postgres without dsn", map[string]string{"COMPASS_DB_DRIVER": "postgres"}, "COMPASS_DB_DSN is required"},
		{"unknown driver", map[string]string{"COMPASS_DB_DRIVER": "mysql"}, `unsupported COMPASS_DB_DRIVER "mysql"`},
		{"half tls", map[string]string{"COMPASS_TLS_CERT_FILE": "cert.pem"}, "must be set together"},
		{"page sizes", map[string]string{"COMPASS_MAX_PAGE_SIZE": "10"}, "must be >= COMPASS_DEFAULT_PAGE_SIZE"},
		{"log level", map[string]string{"COMPASS_LOG_LEVEL": "loud"}, "invalid COMPASS_LOG_LEVEL"},
		{"bad duration", map[string]string{"COMPASS_SHUTDOWN_TIMEOUT": "10"}, "COMPASS_SHUTDOWN_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.name != "missing secret" {
				t.Setenv("COMPASS_AUTH_SECRET", testSecret)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadServerConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadWorkerConfig(t *testing.T) {
	cfg, err := LoadWorkerConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Interval)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.False(t, cfg.Snapshot.Enabled())
	assert.Equal(t, 30, cfg.Snapshot.Retain)

	t.Setenv("COMPASS_SNAPSHOT_SINK", "gcs")
	_, err = LoadWorkerConfig()
	assert.ErrorContains(t, err, "COMPASS_SNAPSHOT_BUCKET is required")

	t.Setenv("COMPASS_SNAPSHOT_BUCKET", "roadmaps")
	t.Setenv("COMPASS_WORKER_INTERVAL", "30s")
	cfg, err = LoadWorkerConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Snapshot.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Interval)

	t.Setenv("COMPASS_SNAPSHOT_SINK", "s3")
	_, err = LoadWorkerConfig()
	assert.ErrorContains(t, err, "unsupported COMPASS_SNAPSHOT_SINK")
}

func TestLoadCLIConfig_SecretOptional(t *testing.T) {
	cfg, err := LoadCLIConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.AuthSecret)
	assert.Equal(t, "compass", cfg.AuthIssuer)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("COMPASS_DOTENV_PROBE=from-file\nCOMPASS_DOTENV_KEEP=from-file\n"), 0o600))

	t.Setenv("COMPASS_ENV_FILE", path)
	t.Setenv("COMPASS_DOTENV_KEEP", "from-env")
	t.Cleanup(func() { os.Unsetenv("COMPASS_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv())
	assert.Equal(t, "from-file", os.Getenv("COMPASS_DOTENV_PROBE"))
	assert.Equal(t, "from-env", os.Getenv("COMPASS_DOTENV_KEEP"), "existing variables win")

	t.Setenv("COMPASS_ENV_FILE", filepath.Join(dir, "missing.env"))
	assert.NoError(t, LoadDotEnv())
}
