package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the rbac module.
type Metrics struct {
	// Role and assignment operations by kind
	Operations *prometheus.CounterVec

	// Permission cache lookups by result
	CacheLookups *prometheus.CounterVec
}

// New creates a Metrics instance with all rbac metrics registered.
func New() *Metrics {
	return &Metrics{
		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_rbac_operations_total",
			Help: "RBAC role and assignment operations by kind",
		}, []string{"operation"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_rbac_cache_lookups_total",
			Help: "Permission cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss", "error", "bypass"
	}
}

// IncrementOperation records a completed rbac operation.
func (m *Metrics) IncrementOperation(operation string) {
	if m != nil {
		m.Operations.WithLabelValues(operation).Inc()
	}
}

// IncrementCacheLookup records a cache lookup result.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}
