package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the authz module.
type Metrics struct {
	// Decision outcomes by reason and action
	DecisionOutcome *prometheus.CounterVec

	// Full check latency including permission resolution
	CheckLatency prometheus.Histogram

	// Permission cache hits/misses in the resolver path
	ResolverCache *prometheus.CounterVec
}

// New creates a Metrics instance with all authz metrics registered.
func New() *Metrics {
	return &Metrics{
		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_authz_decisions_total",
			Help: "Total authorization decisions by reason and action",
		}, []string{"reason", "action"}),

		CheckLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatehouse_authz_check_duration_seconds",
			Help:    "Duration of authorization checks including permission resolution",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),

		ResolverCache: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_authz_resolver_cache_total",
			Help: "Permission resolver cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss", "error"
	}
}

// IncrementOutcome records a decision outcome.
func (m *Metrics) IncrementOutcome(reason, action string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(reason, action).Inc()
	}
}

// ObserveCheckLatency records the total check duration.
func (m *Metrics) ObserveCheckLatency(d time.Duration) {
	if m != nil {
		m.CheckLatency.Observe(d.Seconds())
	}
}

// IncrementResolverCache records a cache lookup result.
func (m *Metrics) IncrementResolverCache(result string) {
	if m != nil {
		m.ResolverCache.WithLabelValues(result).Inc()
	}
}
