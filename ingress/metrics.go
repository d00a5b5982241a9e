package ingress

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/signalbus/metric"
)

// Metrics holds the Prometheus metrics of the ingress server.
type Metrics struct {
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	messagesReceived  *prometheus.CounterVec
	responses         *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
}

// newMetrics creates and registers ingress metrics. A nil registry
// disables metrics.
func newMetrics(registry *metric.MetricsRegistry) *Metrics {
	if registry == nil {
		return nil
	}

	m := &Metrics{
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "signalbus",
			Subsystem: "ingress",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		}),

		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "signalbus",
			Subsystem: "ingress",
			Name:      "connections_total",
			Help:      "Total number of WebSocket connections accepted",
		}),

		messagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signalbus",
			Subsystem: "ingress",
			Name:      "messages_received_total",
			Help:      "Total inbound frames by envelope kind",
		}, []string{"kind"}),

		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signalbus",
			Subsystem: "ingress",
			Name:      "responses_total",
			Help:      "Total per-message responses by status",
		}, []string{"status"}),

		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signalbus",
			Subsystem: "ingress",
			Name:      "errors_total",
			Help:      "Total errors by type",
		}, []string{"type"}),
	}

	registry.RegisterGauge("ingress", "connections_active", m.connectionsActive)
	registry.RegisterCounter("ingress", "connections_total", m.connectionsTotal)
	registry.RegisterCounterVec("ingress", "messages_received", m.messagesReceived)
	registry.RegisterCounterVec("ingress", "responses", m.responses)
	registry.RegisterCounterVec("ingress", "errors_total", m.errorsTotal)

	return m
}
