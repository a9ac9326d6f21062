package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/nhs-trust-dashboard/internal/domain"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/observability"
)

// Downloader retrieves the raw feed and returns the path of the local copy.
type Downloader interface {
	Download(ctx context.Context) (string, error)
}

// Publisher forwards prepared observations to a downstream sink.
type Publisher interface {
	Publish(ctx context.Context, rows []domain.Observation) error
}

// Pipeline runs the one-shot fetch, parse, filter and reshape sequence that
// produces the dashboard's table.
type Pipeline struct {
	downloader Downloader
	publisher  Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
}

// New creates a Pipeline. Pass a nil publisher to skip the downstream sink.
func New(d Downloader, pub Publisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		downloader: d,
		publisher:  pub,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once a table has been prepared.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("feed has not been prepared yet")
	}
	return nil
}

// Prepare downloads the feed and builds the immutable table. Fetch and schema
// failures are returned as-is and are not retried.
func (p *Pipeline) Prepare(ctx context.Context) (*domain.Table, error) {
	start := time.Now()
	path, err := p.downloader.Download(ctx)
	p.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.recordError(err)
		return nil, err
	}

	feed, table, err := prepareFile(path)
	if err != nil {
		p.recordError(err)
		return nil, err
	}

	p.metrics.FeedRows.Set(float64(feed.TotalRows))
	p.metrics.RowsRetained.Set(float64(table.Len()))
	p.metrics.QualifyingTrusts.Set(float64(len(table.Trusts())))
	p.logger.Info("feed prepared",
		"feed_rows", feed.TotalRows,
		"trust_rows", len(feed.Rows),
		"rows_retained", table.Len(),
		"qualifying_trusts", len(table.Trusts()),
		"duration", time.Since(start),
	)

	p.publish(ctx, table)

	p.ready.Store(true)
	p.metrics.PipelineReady.Set(1)
	return table, nil
}

// publish forwards the table to the sink. A sink failure is logged but does not
// invalidate the table.
func (p *Pipeline) publish(ctx context.Context, table *domain.Table) {
	if p.publisher == nil {
		return
	}
	rows := table.Rows()
	if err := p.publisher.Publish(ctx, rows); err != nil {
		p.logger.Error("publish observations failed", "error", err, "rows", len(rows))
		return
	}
	p.metrics.ObservationsSent.Add(float64(len(rows)))
}

func (p *Pipeline) recordError(err error) {
	kind := errorKind(err)
	p.metrics.PrepareErrors.WithLabelValues(kind).Inc()
	p.logger.Error("feed preparation failed", "kind", kind, "error", err)
}

func errorKind(err error) string {
	var fetchErr *domain.FetchError
	var schemaErr *domain.SchemaError
	switch {
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &schemaErr):
		return "schema"
	default:
		return "other"
	}
}
