package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rezkam/compass/internal/env"
)

// WorkerConfig holds all configuration for the worker binary.
type WorkerConfig struct {
	Database      DatabaseConfig
	Planner       PlannerConfig
	Observability ObservabilityConfig
	Snapshot      SnapshotConfig

	Interval         time.Duration `env:"COMPASS_WORKER_INTERVAL" default:"5m"`
	OperationTimeout time.Duration `env:"COMPASS_WORKER_OPERATION_TIMEOUT" default:"2m"`
	BatchSize        int           `env:"COMPASS_WORKER_BATCH_SIZE" default:"100"`
	RunOnce          bool          `env:"COMPASS_WORKER_RUN_ONCE"`
}

// Validate validates the worker schedule.
func (c *WorkerConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("COMPASS_WORKER_INTERVAL must be positive, got %s", c.Interval)
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("COMPASS_WORKER_OPERATION_TIMEOUT must be positive, got %s", c.OperationTimeout)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("COMPASS_WORKER_BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	return nil
}

// Snapshot sinks.
const (
	SinkNone = ""
	SinkFS   = "fs"
	SinkGCS  = "gcs"
)

// SnapshotConfig selects where roadmap snapshots are exported.
type SnapshotConfig struct {
	Sink   string `env:"COMPASS_SNAPSHOT_SINK"` // "", fs, gcs
	Dir    string `env:"COMPASS_SNAPSHOT_DIR" default:"./compass-data/snapshots"`
	Bucket string `env:"COMPASS_SNAPSHOT_BUCKET"`

	// Retain is how many snapshots are kept per business; 0 keeps all.
	Retain int `env:"COMPASS_SNAPSHOT_RETAIN" default:"30"`
}

// Enabled reports whether snapshots are exported.
func (c *SnapshotConfig) Enabled() bool {
	return c.Sink != SinkNone
}

// Validate validates the snapshot configuration.
func (c *SnapshotConfig) Validate() error {
	switch c.Sink {
	case SinkNone:
	case SinkFS:
		if c.Dir == "" {
			return errors.New("COMPASS_SNAPSHOT_DIR is required when COMPASS_SNAPSHOT_SINK is 'fs'")
		}
	case SinkGCS:
		if c.Bucket == "" {
			return errors.New("COMPASS_SNAPSHOT_BUCKET is required when COMPASS_SNAPSHOT_SINK is 'gcs'")
		}
	default:
		return fmt.Errorf("unsupported COMPASS_SNAPSHOT_SINK %q: use 'fs' or 'gcs'", c.Sink)
	}
	if c.Retain < 0 {
		return fmt.Errorf("COMPASS_SNAPSHOT_RETAIN must not be negative, got %d", c.Retain)
	}
	return nil
}

// LoadWorkerConfig loads and validates worker configuration from environment.
func LoadWorkerConfig() (*WorkerConfig, error) {
	cfg := &WorkerConfig{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load worker config: %w", err)
	}

	return cfg, nil
}
