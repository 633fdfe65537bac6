package worker

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/rezkam/compass/internal/application/worker"

type metrics struct {
	reconciled       metric.Int64Counter
	statusChanged    metric.Int64Counter
	snapshotsWritten metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter(meterName)

	reconciled, err := meter.Int64Counter("compass.goals.reconciled",
		metric.WithDescription("Goals evaluated by the reconciler"),
		metric.WithUnit("{goal}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create reconciled counter: %w", err)
	}

	statusChanged, err := meter.Int64Counter("compass.goals.status_changed",
		metric.WithDescription("Goals whose cached status was rewritten"),
		metric.WithUnit("{goal}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create status_changed counter: %w", err)
	}

	snapshotsWritten, err := meter.Int64Counter("compass.snapshots.written",
		metric.WithDescription("Roadmap snapshots written to the sink"),
		metric.WithUnit("{snapshot}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshots counter: %w", err)
	}

	return &metrics{
		reconciled:       reconciled,
		statusChanged:    statusChanged,
		snapshotsWritten: snapshotsWritten,
	}, nil
}
