package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rezkam/compass/internal/application/planner"
	"github.com/rezkam/compass/internal/application/worker"
	"github.com/rezkam/compass/internal/config"
	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/observability"
	"github.com/rezkam/compass/internal/infrastructure/persistence"
	"github.com/rezkam/compass/internal/infrastructure/snapshot"
)

const (
	telemetryShutdownTimeout = 5 * time.Second
	startupJitter            = 10 * time.Second
)

// sink is a snapshot destination that holds a client.
type sink interface {
	worker.Sink
	Close() error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level, err := cfg.Observability.Level()
	if err != nil {
		return err
	}
	telemetry, err := observability.Setup(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		LogLevel:    level,
	})
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to shutdown telemetry", "error", err)
		}
	}()
	slog.SetDefault(telemetry.Logger)

	store, err := persistence.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close store", "error", err)
		}
	}()

	svc := planner.NewService(store, domain.SystemClock, planner.Config{
		DefaultPageSize: cfg.Planner.DefaultPageSize,
		MaxPageSize:     cfg.Planner.MaxPageSize,
	})

	reconciler, err := worker.NewReconciler(svc, worker.WithBatchSize(cfg.BatchSize))
	if err != nil {
		return err
	}

	opts := []worker.Option{
		worker.WithInterval(cfg.Interval),
		worker.WithOperationTimeout(cfg.OperationTimeout),
		worker.WithStartupJitter(startupJitter),
	}
	if cfg.Snapshot.Enabled() {
		s, err := newSink(ctx, cfg.Snapshot)
		if err != nil {
			return err
		}
		defer func() {
			if err := s.Close(); err != nil {
				slog.ErrorContext(ctx, "failed to close snapshot sink", "error", err)
			}
		}()

		exporter, err := worker.NewExporter(svc, s, cfg.Snapshot.Retain)
		if err != nil {
			return err
		}
		opts = append(opts, worker.WithExporter(exporter))
		slog.InfoContext(ctx, "roadmap snapshots enabled",
			"sink", cfg.Snapshot.Sink,
			"retain", cfg.Snapshot.Retain)
	}

	w := worker.New(reconciler, opts...)

	if cfg.RunOnce {
		runCtx, cancel := context.WithTimeout(ctx, cfg.OperationTimeout)
		defer cancel()
		return w.RunOnce(runCtx)
	}
	return w.Start(ctx)
}

func newSink(ctx context.Context, cfg config.SnapshotConfig) (sink, error) {
	switch cfg.Sink {
	case config.SinkFS:
		return snapshot.NewFileSink(cfg.Dir)
	case config.SinkGCS:
		return snapshot.NewGCSSink(ctx, cfg.Bucket)
	default:
		return nil, fmt.Errorf("unsupported snapshot sink %q", cfg.Sink)
	}
}
