package metric

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.NotNil(t, registry.CoreMetrics())
}

func gatheredNames(t *testing.T, registry *MetricsRegistry) map[string]bool {
	t.Helper()

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestMetricsRegistry_RegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "A test counter",
	})

	err := registry.RegisterCounter("test-service", "test_counter", counter)
	require.NoError(t, err)

	counter.Inc()

	names := gatheredNames(t, registry)
	assert.True(t, names["test_counter"], "counter should be registered in Prometheus registry")
}

func TestMetricsRegistry_RegisterGauge(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_gauge",
		Help: "A test gauge",
	})

	err := registry.RegisterGauge("test-service", "test_gauge", gauge)
	require.NoError(t, err)

	gauge.Set(42.0)

	names := gatheredNames(t, registry)
	assert.True(t, names["test_gauge"], "gauge should be registered in Prometheus registry")
}

func TestMetricsRegistry_RegisterVectors(t *testing.T) {
	registry := NewMetricsRegistry()

	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_counter_vec",
		Help: "A test counter vector",
	}, []string{"kind"})
	require.NoError(t, registry.RegisterCounterVec("test-service", "test_counter_vec", counterVec))

	histogramVec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "test_histogram_vec",
		Help:    "A test histogram vector",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	require.NoError(t, registry.RegisterHistogramVec("test-service", "test_histogram_vec", histogramVec))

	counterVec.WithLabelValues("event.v1").Inc()
	histogramVec.WithLabelValues("validate").Observe(0.002)

	names := gatheredNames(t, registry)
	assert.True(t, names["test_counter_vec"])
	assert.True(t, names["test_histogram_vec"])
}

func TestMetricsRegistry_PreventDuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	counter1 := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_counter",
		Help: "First counter",
	})
	counter2 := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_counter_2",
		Help: "Second counter",
	})

	err := registry.RegisterCounter("svc", "my_counter", counter1)
	require.NoError(t, err)

	err = registry.RegisterCounter("svc", "my_counter", counter2)
	assert.Error(t, err, "duplicate service.metric key should be rejected")
}

func TestMetricsRegistry_Unregister(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "removable_gauge",
		Help: "A gauge to remove",
	})

	require.NoError(t, registry.RegisterGauge("svc", "removable", gauge))
	assert.True(t, registry.Unregister("svc", "removable"))
	assert.False(t, registry.Unregister("svc", "removable"), "second unregister should report false")

	// Re-registration after unregister is allowed
	require.NoError(t, registry.RegisterGauge("svc", "removable", gauge))
}

func TestMetricsRegistry_ThreadSafety(t *testing.T) {
	registry := NewMetricsRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			counter := prometheus.NewCounter(prometheus.CounterOpts{
				Name: fmt.Sprintf("concurrent_counter_%d", n),
				Help: "Concurrent registration test",
			})
			err := registry.RegisterCounter("svc", fmt.Sprintf("counter_%d", n), counter)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func TestMetricsRegistrar_Interface(t *testing.T) {
	var registrar MetricsRegistrar = NewMetricsRegistry()
	assert.NotNil(t, registrar)
}

func TestMetricsRegistry_CoreMetricsRegistered(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()

	core.RecordServiceStatus("ingress", 2)
	core.RecordEnvelopeReceived("ingress", "event.v1")
	core.RecordEnvelopeValidated("ingress", "event.v1", "ok")
	core.RecordEnvelopeValidated("ingress", "agent_frame.v1", "rejected")
	core.RecordJournalAppend("journal", "ok")
	core.RecordReplayFrame("replay", "sent")
	core.RecordReplayFrame("replay", "acked")
	core.RecordProcessingDuration("ingress", "validate", 3*time.Millisecond)
	core.RecordError("ingress", "parse_error")
	core.RecordHealthStatus("ingress", true)
	core.RecordNATSStatus(true)
	core.RecordNATSRTT(2 * time.Millisecond)
	core.RecordNATSReconnect()

	names := gatheredNames(t, registry)
	for _, name := range []string{
		"signalbus_service_status",
		"signalbus_envelopes_received_total",
		"signalbus_envelopes_validated_total",
		"signalbus_journal_appends_total",
		"signalbus_replay_frames_total",
		"signalbus_processing_duration_seconds",
		"signalbus_errors_total",
		"signalbus_health_status",
		"signalbus_nats_connected",
		"signalbus_nats_rtt_milliseconds",
		"signalbus_nats_reconnects_total",
	} {
		assert.True(t, names[name], "core metric %s should be gathered", name)
	}
}

func TestMetricsRegistry_RuntimeCollectors(t *testing.T) {
	registry := NewMetricsRegistry()

	names := gatheredNames(t, registry)
	assert.True(t, names["go_goroutines"], "Go runtime collector should be registered")
}
