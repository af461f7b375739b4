package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline.
type Metrics struct {
	BatchesIngested   prometheus.Counter
	BatchesRejected   prometheus.Counter
	RowsIngested      prometheus.Counter
	DuplicatesDropped prometheus.Counter
	DatasetRows       prometheus.Gauge
	PipelineRunning   prometheus.Gauge
	RunDuration       prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,not_found,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.BatchesIngested,
		m.BatchesRejected,
		m.RowsIngested,
		m.DuplicatesDropped,
		m.DatasetRows,
		m.PipelineRunning,
		m.RunDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		BatchesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trip_etl",
			Name:      "batches_ingested_total",
			Help:      "Total batch files successfully merged into the dataset.",
		}),
		BatchesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trip_etl",
			Name:      "batches_rejected_total",
			Help:      "Total batch files rejected for malformed fields or unresolvable cities.",
		}),
		RowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trip_etl",
			Name:      "rows_ingested_total",
			Help:      "Total trip rows read from submitted batch files.",
		}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trip_etl",
			Name:      "duplicates_dropped_total",
			Help:      "Total rows collapsed by merge deduplication.",
		}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trip_etl",
			Name:      "dataset_rows",
			Help:      "Current row count of the accumulated dataset.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trip_etl",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in flight.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trip_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete pipeline run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 120},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trip_etl",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trip_etl",
			Name:      "geocode_cache_total",
			Help:      "Coordinate cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trip_etl",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}
