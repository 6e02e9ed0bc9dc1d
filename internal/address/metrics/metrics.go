package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks address cache effectiveness and remote lookup health.
type Metrics struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	LookupOutcomes *prometheus.CounterVec
	LookupDuration prometheus.Histogram
}

// New registers the address metrics on reg. Pass prometheus.DefaultRegisterer in main
// and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "cadastro_address_cache_hits_total",
			Help: "Postal code resolutions served from the cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "cadastro_address_cache_misses_total",
			Help: "Postal code resolutions that required a remote lookup",
		}),
		LookupOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cadastro_address_lookup_outcomes_total",
			Help: "Remote postal lookups by outcome (found, not_found, unavailable)",
		}, []string{"outcome"}),
		LookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cadastro_address_lookup_duration_seconds",
			Help:    "Latency of remote postal lookups",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheMisses.Inc()
}

func (m *Metrics) RecordLookup(outcome string, elapsed time.Duration) {
	m.LookupOutcomes.WithLabelValues(outcome).Inc()
	m.LookupDuration.Observe(elapsed.Seconds())
}
