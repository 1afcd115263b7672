// Package metrics provides observability for the tenant module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks tenant lifecycle counts and the API key verification path.
type Metrics struct {
	TenantsCreated       prometheus.Counter
	StatusTransitions    *prometheus.CounterVec
	APIKeysRotated       prometheus.Counter
	VerifyAPIKeyDuration prometheus.Histogram
}

// New creates a Metrics instance with all tenant module metrics registered.
func New() *Metrics {
	return &Metrics{
		TenantsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_tenant_status_transitions_total",
			Help: "Total number of tenant status transitions by target status",
		}, []string{"to"}),
		APIKeysRotated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_tenant_api_keys_rotated_total",
			Help: "Total number of tenant API key rotations",
		}),
		VerifyAPIKeyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatehouse_tenant_verify_api_key_duration_seconds",
			Help:    "Duration of VerifyAPIKey operations (service auth critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementTenantsCreated records a successful tenant creation.
func (m *Metrics) IncrementTenantsCreated() {
	if m == nil {
		return
	}
	m.TenantsCreated.Inc()
}

// IncrementStatusTransition records a status transition to the given state.
func (m *Metrics) IncrementStatusTransition(to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(to).Inc()
}

// IncrementAPIKeysRotated records an API key rotation.
func (m *Metrics) IncrementAPIKeysRotated() {
	if m == nil {
		return
	}
	m.APIKeysRotated.Inc()
}

// ObserveVerifyAPIKey records the duration of a VerifyAPIKey operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveVerifyAPIKey(start time.Time) {
	if m == nil {
		return
	}
	m.VerifyAPIKeyDuration.Observe(time.Since(start).Seconds())
}
