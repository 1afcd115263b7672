package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit pipeline.
type Metrics struct {
	// Events accepted by the recorder, by action and category
	EventsRecorded *prometheus.CounterVec

	// No-op updates dropped by suppress-empty policies
	ChangesSuppressed prometheus.Counter

	// Outbox entries published to the broker by the relay
	RelayPublished prometheus.Counter

	// Relay publish failures
	RelayErrors prometheus.Counter

	// Events materialized into the query table by the consumer
	EventsMaterialized prometheus.Counter
}

// New creates a Metrics instance with all audit metrics registered.
func New() *Metrics {
	return &Metrics{
		EventsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_audit_events_recorded_total",
			Help: "Audit events accepted by the recorder, by action and category",
		}, []string{"action", "category"}),

		ChangesSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_audit_changes_suppressed_total",
			Help: "Updates dropped because the filtered change set was empty",
		}),

		RelayPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_audit_relay_published_total",
			Help: "Outbox entries published to Kafka by the relay",
		}),

		RelayErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_audit_relay_errors_total",
			Help: "Relay publish failures",
		}),

		EventsMaterialized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_audit_events_materialized_total",
			Help: "Events written to the query table by the consumer",
		}),
	}
}

// IncrementRecorded records an accepted event.
func (m *Metrics) IncrementRecorded(action, category string) {
	if m != nil {
		m.EventsRecorded.WithLabelValues(action, category).Inc()
	}
}

// IncrementSuppressed records a suppressed no-op update.
func (m *Metrics) IncrementSuppressed() {
	if m != nil {
		m.ChangesSuppressed.Inc()
	}
}

// IncrementRelayPublished records successfully published outbox entries.
func (m *Metrics) IncrementRelayPublished(n int) {
	if m != nil {
		m.RelayPublished.Add(float64(n))
	}
}

// IncrementRelayErrors records a relay failure.
func (m *Metrics) IncrementRelayErrors() {
	if m != nil {
		m.RelayErrors.Inc()
	}
}

// IncrementMaterialized records a materialized event.
func (m *Metrics) IncrementMaterialized() {
	if m != nil {
		m.EventsMaterialized.Inc()
	}
}
