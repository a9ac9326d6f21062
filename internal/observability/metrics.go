package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Feed preparation metrics.
	FetchDuration     prometheus.Histogram
	FeedRows          prometheus.Gauge
	RowsRetained      prometheus.Gauge
	QualifyingTrusts  prometheus.Gauge
	PrepareErrors     *prometheus.CounterVec // labels: kind={fetch,schema,other}
	PipelineReady     prometheus.Gauge
	ObservationsSent  prometheus.Counter
	SeriesCache       *prometheus.CounterVec // labels: result={hit,miss}
	WorkbooksRendered prometheus.Counter
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nhs_dashboard",
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of the feed download.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FeedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nhs_dashboard",
			Name:      "feed_rows",
			Help:      "Data rows read from the feed, all area types.",
		}),
		RowsRetained: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nhs_dashboard",
			Name:      "rows_retained",
			Help:      "Rows kept after the trust and ventilation filters.",
		}),
		QualifyingTrusts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nhs_dashboard",
			Name:      "qualifying_trusts",
			Help:      "Trusts that have reported at least one ventilated patient.",
		}),
		PrepareErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nhs_dashboard",
			Name:      "prepare_errors_total",
			Help:      "Feed preparation failures by kind.",
		}, []string{"kind"}),
		PipelineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nhs_dashboard",
			Name:      "pipeline_ready",
			Help:      "1 once the prepared table is available, 0 otherwise.",
		}),
		ObservationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nhs_dashboard",
			Name:      "observations_published_total",
			Help:      "Prepared observations written to the Kafka sink.",
		}),
		SeriesCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nhs_dashboard",
			Name:      "series_cache_total",
			Help:      "Chart series cache lookups by result.",
		}, []string{"result"}),
		WorkbooksRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nhs_dashboard",
			Name:      "workbooks_rendered_total",
			Help:      "XLSX workbooks rendered.",
		}),
	}

	prometheus.MustRegister(
		m.FetchDuration,
		m.FeedRows,
		m.RowsRetained,
		m.QualifyingTrusts,
		m.PrepareErrors,
		m.PipelineReady,
		m.ObservationsSent,
		m.SeriesCache,
		m.WorkbooksRendered,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FetchDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "nhs_dashboard", Name: "feed_fetch_duration_seconds"}),
		FeedRows:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "nhs_dashboard", Name: "feed_rows"}),
		RowsRetained:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "nhs_dashboard", Name: "rows_retained"}),
		QualifyingTrusts:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "nhs_dashboard", Name: "qualifying_trusts"}),
		PrepareErrors:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "nhs_dashboard", Name: "prepare_errors_total"}, []string{"kind"}),
		PipelineReady:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "nhs_dashboard", Name: "pipeline_ready"}),
		ObservationsSent:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "nhs_dashboard", Name: "observations_published_total"}),
		SeriesCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "nhs_dashboard", Name: "series_cache_total"}, []string{"result"}),
		WorkbooksRendered: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "nhs_dashboard", Name: "workbooks_rendered_total"}),
	}
}
