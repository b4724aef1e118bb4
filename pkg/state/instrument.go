package state

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures Prometheus instrumentation for a Graph.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "weft").
	Namespace string

	// Subsystem is the metrics subsystem (default: "state").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// graphMetrics holds the Prometheus metrics for one Graph.
type graphMetrics struct {
	scopes       prometheus.Gauge
	listeners    prometheus.Gauge
	passes       prometheus.Counter
	passDuration prometheus.Histogram
	invocations  prometheus.Counter
	failures     prometheus.Counter
	queued       prometheus.Counter
}

func newMetrics(cfg MetricsConfig) *graphMetrics {
	if cfg.Namespace == "" {
		cfg.Namespace = "weft"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "state"
	}
	if cfg.Buckets == nil {
		cfg.Buckets = prometheus.DefBuckets
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(cfg.Registry)

	return &graphMetrics{
		scopes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "scopes",
			Help:        "Number of live scopes in the graph",
			ConstLabels: cfg.ConstLabels,
		}),
		listeners: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "listeners",
			Help:        "Number of registered listeners",
			ConstLabels: cfg.ConstLabels,
		}),
		passes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of propagation passes",
			ConstLabels: cfg.ConstLabels,
		}),
		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Propagation pass duration in seconds",
			Buckets:     cfg.Buckets,
			ConstLabels: cfg.ConstLabels,
		}),
		invocations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "listener_invocations_total",
			Help:        "Total number of listener callback invocations",
			ConstLabels: cfg.ConstLabels,
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "listener_failures_total",
			Help:        "Total number of listener callback failures",
			ConstLabels: cfg.ConstLabels,
		}),
		queued: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "queued_mutations_total",
			Help:        "Total number of structural mutations deferred during passes",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}
