package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fuel_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge
	LastSuccess     prometheus.Gauge

	// Normalization metrics.
	RecordsRead     prometheus.Counter
	RecordsSkipped  *prometheus.CounterVec // labels: reason={missing_field,invalid_field}
	StationsWritten prometheus.Counter
	PricesDropped   prometheus.Counter
	HoursInvalid    prometheus.Counter

	// Name lookup metrics.
	NameLookups        *prometheus.CounterVec // labels: outcome={success,not_found,error}
	NameCache          *prometheus.CounterVec // labels: layer={memory,store}, result={hit,miss}
	NameLookupDuration prometheus.Histogram
	NameLookupEnabled  prometheus.Gauge
	ResolveProgress    prometheus.Gauge

	// Kafka sink.
	MessagesProduced prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-transform-load run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Station records decoded from the feed.",
		}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Station records excluded from the output by reason.",
		}, []string{"reason"}),
		StationsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_written_total",
			Help:      "Stations included in published documents.",
		}),
		PricesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prices_dropped_total",
			Help:      "Malformed price events ignored during normalization.",
		}),
		HoursInvalid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "opening_hours_invalid_total",
			Help:      "Stations whose opening hours could not be parsed.",
		}),
		NameLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "name_lookups_total",
			Help:      "Station name lookups by outcome.",
		}, []string{"outcome"}),
		NameCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "name_cache_total",
			Help:      "Station name cache lookups by layer and result.",
		}, []string{"layer", "result"}),
		NameLookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "name_lookup_duration_seconds",
			Help:      "Station info endpoint request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		NameLookupEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "name_lookup_enabled",
			Help:      "1 when station name enrichment is enabled, 0 otherwise.",
		}),
		ResolveProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "name_resolve_progress_ratio",
			Help:      "Fraction of the current run's name lookups that have completed.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Station messages written to the Kafka topic.",
		}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.PipelineRunning,
		m.LastSuccess,
		m.RecordsRead,
		m.RecordsSkipped,
		m.StationsWritten,
		m.PricesDropped,
		m.HoursInvalid,
		m.NameLookups,
		m.NameCache,
		m.NameLookupDuration,
		m.NameLookupEnabled,
		m.ResolveProgress,
		m.MessagesProduced,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "runs_total"}, []string{"outcome"}),
		RunDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "run_duration_seconds"}),
		PipelineRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		LastSuccess:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "last_success_timestamp_seconds"}),
		RecordsRead:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "records_read_total"}),
		RecordsSkipped:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "records_skipped_total"}, []string{"reason"}),
		StationsWritten:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "stations_written_total"}),
		PricesDropped:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "prices_dropped_total"}),
		HoursInvalid:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "opening_hours_invalid_total"}),
		NameLookups:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "name_lookups_total"}, []string{"outcome"}),
		NameCache:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "name_cache_total"}, []string{"layer", "result"}),
		NameLookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "name_lookup_duration_seconds"}),
		NameLookupEnabled:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "name_lookup_enabled"}),
		ResolveProgress:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "name_resolve_progress_ratio"}),
		MessagesProduced:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "messages_produced_total"}),
	}
}
