package bridge

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/signalbus/metric"
)

// Metrics counts dispatch outcomes per sink. Like a DispatchLog, one
// instance is shared by every transport of a router.
type Metrics struct {
	dispatches *prometheus.CounterVec
}

// NewMetrics creates and registers bridge metrics. A nil registry
// disables metrics.
func NewMetrics(registry *metric.MetricsRegistry) *Metrics {
	if registry == nil {
		return nil
	}

	m := &Metrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signalbus",
			Subsystem: "bridge",
			Name:      "dispatches_total",
			Help:      "Total dispatch outcomes by sink and status",
		}, []string{"sink", "status"}),
	}

	registry.RegisterCounterVec("bridge", "dispatches", m.dispatches)

	return m
}

func (m *Metrics) recordDispatch(sink, status string) {
	m.dispatches.WithLabelValues(sink, status).Inc()
}
