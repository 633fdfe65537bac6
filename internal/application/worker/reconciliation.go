package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GoalRefresher is the slice of the planner service the reconciler needs.
type GoalRefresher interface {
	GoalIDsPage(ctx context.Context, afterID string, limit int) ([]string, error)
	RefreshGoal(ctx context.Context, goalID string) (bool, error)
}

// DefaultBatchSize is the number of goal IDs fetched per page.
const DefaultBatchSize = 100

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Checked int // Goals evaluated
	Changed int // Goals whose cached status or achieved date was rewritten
	Failed  int // Goals skipped after an error
}

// Reconciler repairs the cached status of every goal. Progress is derived at
// read time, so the cache only drifts when time passes (at_risk, overdue) or a
// write path failed; a pass re-evaluates each goal and persists differences.
type Reconciler struct {
	goals     GoalRefresher
	batchSize int
	rateLimit time.Duration // Pause between goals; zero disables
	metrics   *metrics
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithBatchSize sets how many goal IDs are fetched per page.
func WithBatchSize(n int) ReconcilerOption {
	return func(r *Reconciler) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithRateLimit pauses between goals to spread database load.
func WithRateLimit(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		r.rateLimit = d
	}
}

// NewReconciler creates a Reconciler reporting to the global meter provider.
func NewReconciler(goals GoalRefresher, opts ...ReconcilerOption) (*Reconciler, error) {
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	r := &Reconciler{
		goals:     goals,
		batchSize: DefaultBatchSize,
		metrics:   m,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ReconcileOnce pages through every goal ID and refreshes each goal.
// A failure on one goal is logged and counted; only paging errors abort the pass.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (ReconcileResult, error) {
	var (
		res     ReconcileResult
		afterID string
	)
	start := time.Now()

	for {
		ids, err := r.goals.GoalIDsPage(ctx, afterID, r.batchSize)
		if err != nil {
			return res, fmt.Errorf("failed to page goals after %q: %w", afterID, err)
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return res, err
			}

			changed, err := r.goals.RefreshGoal(ctx, id)
			res.Checked++
			switch {
			case err != nil:
				res.Failed++
				slog.WarnContext(ctx, "failed to reconcile goal", "goal_id", id, "error", err)
			case changed:
				res.Changed++
				slog.DebugContext(ctx, "goal status cache updated", "goal_id", id)
			}

			if r.rateLimit > 0 {
				select {
				case <-ctx.Done():
					return res, ctx.Err()
				case <-time.After(r.rateLimit):
				}
			}
		}

		if len(ids) < r.batchSize {
			break
		}
		afterID = ids[len(ids)-1]
	}

	r.metrics.reconciled.Add(ctx, int64(res.Checked), metric.WithAttributes(attribute.Bool("failed", false)))
	if res.Failed > 0 {
		r.metrics.reconciled.Add(ctx, int64(res.Failed), metric.WithAttributes(attribute.Bool("failed", true)))
	}
	r.metrics.statusChanged.Add(ctx, int64(res.Changed))

	slog.InfoContext(ctx, "goal reconciliation finished",
		"checked", res.Checked,
		"changed", res.Changed,
		"failed", res.Failed,
		"duration", time.Since(start))

	return res, nil
}
