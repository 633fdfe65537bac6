package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/snapshot"
	"github.com/rezkam/compass/internal/roadmap"
)

// RoadmapSource is the slice of the planner service the exporter needs.
type RoadmapSource interface {
	Businesses(ctx context.Context) ([]domain.BusinessRef, error)
	SnapshotRoadmap(ctx context.Context, ref domain.BusinessRef) (*roadmap.Roadmap, error)
}

// Sink stores snapshot documents by name.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// Exporter writes the full roadmap of every business to a Sink and keeps the
// newest retain snapshots per business.
type Exporter struct {
	source  RoadmapSource
	sink    Sink
	retain  int // 0 keeps every snapshot
	metrics *metrics
}

// NewExporter creates an Exporter reporting to the global meter provider.
func NewExporter(source RoadmapSource, sink Sink, retain int) (*Exporter, error) {
	if retain < 0 {
		return nil, fmt.Errorf("retain must not be negative, got %d", retain)
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	return &Exporter{source: source, sink: sink, retain: retain, metrics: m}, nil
}

// ExportOnce writes one snapshot per business and returns how many were written.
// A failing business is logged and skipped; the joined errors are returned at the end.
func (e *Exporter) ExportOnce(ctx context.Context) (int, error) {
	refs, err := e.source.Businesses(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list businesses: %w", err)
	}

	var (
		written int
		errs    []error
	)
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := e.export(ctx, ref); err != nil {
			slog.WarnContext(ctx, "failed to export roadmap snapshot",
				"owner", ref.OwnerID,
				"business_id", ref.BusinessID,
				"error", err)
			errs = append(errs, err)
			continue
		}
		written++
	}

	e.metrics.snapshotsWritten.Add(ctx, int64(written))
	slog.InfoContext(ctx, "roadmap snapshots exported",
		"businesses", len(refs),
		"written", written)

	return written, errors.Join(errs...)
}

func (e *Exporter) export(ctx context.Context, ref domain.BusinessRef) error {
	rm, err := e.source.SnapshotRoadmap(ctx, ref)
	if err != nil {
		return fmt.Errorf("build roadmap %s: %w", ref.BusinessID, err)
	}

	data, err := snapshot.Encode(rm)
	if err != nil {
		return err
	}

	name := snapshot.ObjectName(ref, rm.GeneratedAt)
	if err := e.sink.Put(ctx, name, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return e.prune(ctx, ref)
}

// prune deletes the oldest snapshots of ref beyond the retention count.
// Names sort chronologically, so the oldest come first in the listing.
func (e *Exporter) prune(ctx context.Context, ref domain.BusinessRef) error {
	if e.retain == 0 {
		return nil
	}

	names, err := e.sink.List(ctx, snapshot.Prefix(ref))
	if err != nil {
		return fmt.Errorf("list snapshots of %s: %w", ref.BusinessID, err)
	}
	if len(names) <= e.retain {
		return nil
	}

	for _, name := range names[:len(names)-e.retain] {
		if err := e.sink.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
	}
	return nil
}
