package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics (not component-specific).
type Metrics struct {
	// Service metrics
	ServiceStatus      *prometheus.GaugeVec
	EnvelopesReceived  *prometheus.CounterVec
	EnvelopesValidated *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
	ErrorsTotal        *prometheus.CounterVec
	HealthCheckStatus  *prometheus.GaugeVec

	// Journal and replay metrics
	JournalAppends *prometheus.CounterVec
	ReplayFrames   *prometheus.CounterVec

	// NATS metrics
	NATSConnected  prometheus.Gauge
	NATSRTT        prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all platform metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ServiceStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "signalbus",
				Subsystem: "service",
				Name:      "status",
				Help:      "Service status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)",
			},
			[]string{"service"},
		),

		EnvelopesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signalbus",
				Subsystem: "envelopes",
				Name:      "received_total",
				Help:      "Total number of envelopes received",
			},
			[]string{"service", "kind"},
		),

		EnvelopesValidated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signalbus",
				Subsystem: "envelopes",
				Name:      "validated_total",
				Help:      "Total number of envelope validations by outcome",
			},
			[]string{"service", "kind", "status"},
		),

		ProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "signalbus",
				Subsystem: "processing",
				Name:      "duration_seconds",
				Help:      "Message processing duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signalbus",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"service", "type"},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "signalbus",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"service"},
		),

		JournalAppends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signalbus",
				Subsystem: "journal",
				Name:      "appends_total",
				Help:      "Total number of journal append attempts by outcome",
			},
			[]string{"service", "status"},
		),

		ReplayFrames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signalbus",
				Subsystem: "replay",
				Name:      "frames_total",
				Help:      "Total number of replay frames by direction",
			},
			[]string{"service", "direction"},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "signalbus",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSRTT: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "signalbus",
				Subsystem: "nats",
				Name:      "rtt_milliseconds",
				Help:      "NATS round-trip time in milliseconds",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "signalbus",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),
	}
}

// RecordServiceStatus updates service status metric.
func (c *Metrics) RecordServiceStatus(service string, status int) {
	c.ServiceStatus.WithLabelValues(service).Set(float64(status))
}

// RecordEnvelopeReceived increments the received envelope counter.
func (c *Metrics) RecordEnvelopeReceived(service, kind string) {
	c.EnvelopesReceived.WithLabelValues(service, kind).Inc()
}

// RecordEnvelopeValidated increments the validation outcome counter.
// Status is "ok" or "rejected".
func (c *Metrics) RecordEnvelopeValidated(service, kind, status string) {
	c.EnvelopesValidated.WithLabelValues(service, kind, status).Inc()
}

// RecordProcessingDuration records processing time.
func (c *Metrics) RecordProcessingDuration(service, operation string, duration time.Duration) {
	c.ProcessingDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordError increments error counter.
func (c *Metrics) RecordError(service, errorType string) {
	c.ErrorsTotal.WithLabelValues(service, errorType).Inc()
}

// RecordHealthStatus updates health check status.
func (c *Metrics) RecordHealthStatus(service string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthCheckStatus.WithLabelValues(service).Set(value)
}

// RecordJournalAppend increments the journal append counter.
// Status is "ok", "rejected" or "error".
func (c *Metrics) RecordJournalAppend(service, status string) {
	c.JournalAppends.WithLabelValues(service, status).Inc()
}

// RecordReplayFrame increments the replay frame counter.
// Direction is "sent" or "acked".
func (c *Metrics) RecordReplayFrame(service, direction string) {
	c.ReplayFrames.WithLabelValues(service, direction).Inc()
}

// RecordNATSStatus updates NATS connection status.
func (c *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}

// RecordNATSRTT updates NATS round-trip time.
func (c *Metrics) RecordNATSRTT(rtt time.Duration) {
	c.NATSRTT.Set(float64(rtt.Milliseconds()))
}

// RecordNATSReconnect increments reconnection counter.
func (c *Metrics) RecordNATSReconnect() {
	c.NATSReconnects.Inc()
}
