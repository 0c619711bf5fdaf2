package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRegistry holds the propline_* Prometheus metrics, generalized from a
// crypto-scan metric set to the prop-ingestion domain. No pipeline or handler
// code updates them, and the server's /metrics route serves promhttp's
// default registry rather than the registerer they are registered on.
type MetricsRegistry struct {
	CycleDuration   *prometheus.HistogramVec
	CycleResults    *prometheus.CounterVec
	CacheHitRatio   prometheus.Gauge
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	TaxonomyMisses  *prometheus.CounterVec
	MappingErrors   *prometheus.CounterVec
	CircuitState    *prometheus.GaugeVec
	UpserterPending prometheus.Gauge
	HTTPRequests    *prometheus.CounterVec
}

// NewMetricsRegistry builds and registers every propline_* metric against
// reg.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	m := &MetricsRegistry{
		CycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "propline_cycle_duration_seconds",
				Help:    "Duration of a single (sport, provider) ingestion cycle.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"sport", "provider", "state"},
		),
		CycleResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propline_upsert_results_total",
				Help: "Total upsert outcomes by result kind.",
			},
			[]string{"sport", "provider", "result"},
		),
		CacheHitRatio: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "propline_cache_hit_ratio",
				Help: "L1 cache hit ratio (0.0 to 1.0).",
			},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propline_cache_hits_total",
				Help: "Total cache hits by tier.",
			},
			[]string{"tier"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propline_cache_misses_total",
				Help: "Total cache misses by tier.",
			},
			[]string{"tier"},
		),
		TaxonomyMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propline_taxonomy_misses_total",
				Help: "Total unrecognized prop-category observations.",
			},
			[]string{"provider", "sport"},
		),
		MappingErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propline_mapping_errors_total",
				Help: "Total Prop Mapper errors by kind.",
			},
			[]string{"provider", "error"},
		),
		CircuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "propline_circuit_state",
				Help: "Provider circuit breaker state (0=closed, 1=half-open, 2=open).",
			},
			[]string{"provider"},
		),
		UpserterPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "propline_upserter_pending",
				Help: "Current count of props in flight between mapping and upsert.",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propline_http_requests_total",
				Help: "Total HTTP requests served by the query surface.",
			},
			[]string{"path", "status"},
		),
	}

	reg.MustRegister(
		m.CycleDuration, m.CycleResults, m.CacheHitRatio, m.CacheHits,
		m.CacheMisses, m.TaxonomyMisses, m.MappingErrors, m.CircuitState,
		m.UpserterPending, m.HTTPRequests,
	)
	return m
}

// gobreakerStateValue maps a gobreaker.State string to the numeric gauge
// value CircuitState exports.
func gobreakerStateValue(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return -1
	}
}
