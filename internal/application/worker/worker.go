// Package worker runs the periodic background passes: goal status cache
// reconciliation and roadmap snapshot export.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"sync"
	"time"
)

// Default configuration values.
const (
	DefaultInterval         = 5 * time.Minute
	DefaultOperationTimeout = 2 * time.Minute
)

// Worker runs a Reconciler and an optional Exporter on a fixed interval.
type Worker struct {
	reconciler       *Reconciler
	exporter         *Exporter // nil disables snapshot export
	interval         time.Duration
	operationTimeout time.Duration // Upper bound of a single run
	startupJitter    time.Duration
	wg               sync.WaitGroup
}

// Option is a functional option for configuring Worker.
type Option func(*Worker)

// WithInterval sets how often a run starts.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		w.interval = d
	}
}

// WithOperationTimeout bounds the duration of a single run.
func WithOperationTimeout(d time.Duration) Option {
	return func(w *Worker) {
		w.operationTimeout = d
	}
}

// WithStartupJitter delays the first run by a random duration up to d, so
// replicas started together do not hit the database at the same instant.
func WithStartupJitter(d time.Duration) Option {
	return func(w *Worker) {
		w.startupJitter = d
	}
}

// WithExporter enables roadmap snapshot export after each reconciliation.
func WithExporter(e *Exporter) Option {
	return func(w *Worker) {
		w.exporter = e
	}
}

// New creates a new Worker with the given reconciler and options.
func New(reconciler *Reconciler, opts ...Option) *Worker {
	w := &Worker{
		reconciler:       reconciler,
		interval:         DefaultInterval,
		operationTimeout: DefaultOperationTimeout,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start runs once immediately (after the optional jitter) and then on every tick
// until ctx is cancelled. On shutdown it waits for the in-flight run and returns nil.
func (w *Worker) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "worker started",
		"interval", w.interval,
		"snapshots", w.exporter != nil)

	if w.startupJitter > 0 {
		timer := time.NewTimer(rand.N(w.startupJitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}

	w.runGuarded()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.wg.Go(w.runGuarded)
		case <-ctx.Done():
			slog.InfoContext(ctx, "shutdown requested, waiting for in-flight run")
			w.wg.Wait()
			slog.InfoContext(ctx, "worker stopped gracefully")
			return nil
		}
	}
}

// runGuarded executes one bounded run. Runs are detached from the Start context
// so a shutdown lets the current run finish; a panic is logged, not propagated.
func (w *Worker) runGuarded() {
	ctx, cancel := context.WithTimeout(context.Background(), w.operationTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "worker run panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()

	if err := w.RunOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "worker run failed", "error", err)
	}
}

// RunOnce reconciles every goal and, when enabled, exports every roadmap.
// Both passes run even if the first fails; their errors are joined.
func (w *Worker) RunOnce(ctx context.Context) error {
	var errs []error

	if _, err := w.reconciler.ReconcileOnce(ctx); err != nil {
		errs = append(errs, fmt.Errorf("reconcile goals: %w", err))
	}
	if w.exporter != nil {
		if _, err := w.exporter.ExportOnce(ctx); err != nil {
			errs = append(errs, fmt.Errorf("export snapshots: %w", err))
		}
	}

	return errors.Join(errs...)
}
