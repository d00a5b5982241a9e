package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/signalbus/envelope"
	"github.com/c360/signalbus/errors"
	"github.com/c360/signalbus/metric"
)

// captureRecorder collects recorder hook calls.
type captureRecorder struct {
	mu    sync.Mutex
	sinks []string
	seen  []*Dispatch
}

func (r *captureRecorder) Record(sink string, d *Dispatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, sink)
	r.seen = append(r.seen, d)
}

func dispatchFixture(t *testing.T) *Dispatch {
	t.Helper()

	sink := NewMemorySink("fixture")
	router := NewRouter()
	require.NoError(t, router.AddSink(sink))
	require.NoError(t, router.Dispatch(context.Background(), envelope.KindEvent, eventPayload(), testSession()))
	require.Equal(t, 1, sink.Len())
	return sink.Received()[0]
}

func TestNewTransport_Transparent(t *testing.T) {
	memory := NewMemorySink("unity")
	transport := NewTransport(memory)

	assert.Equal(t, "unity", transport.Name())

	require.NoError(t, transport.Send(context.Background(), dispatchFixture(t)))
	assert.Equal(t, 1, memory.Len())
}

func TestTransport_RateLimitAccounting(t *testing.T) {
	memory := NewMemorySink("unity")
	monitor := NewMonitor()
	transport := NewTransport(memory,
		WithRateLimit(1, 1),
		WithMonitor(monitor),
	)

	d := dispatchFixture(t)

	// First send consumes the only token; the second is suppressed.
	require.NoError(t, transport.Send(context.Background(), d))
	require.NoError(t, transport.Send(context.Background(), d))

	assert.Equal(t, 1, memory.Len())

	stats, ok := monitor.SinkStats("unity")
	require.True(t, ok)
	assert.Equal(t, int64(1), stats.Dispatched)
	assert.Equal(t, int64(1), stats.RateLimited)
	assert.Equal(t, int64(0), stats.Errors)
	assert.False(t, stats.LastUpdated.IsZero())
}

func TestTransport_ErrorAccounting(t *testing.T) {
	sendErr := errors.WrapTransient(errors.ErrPublishFailed, "errorSink", "Send", "test failure")
	monitor := NewMonitor()
	transport := NewTransport(&errorSink{name: "engine", err: sendErr}, WithMonitor(monitor))

	err := transport.Send(context.Background(), dispatchFixture(t))
	require.ErrorIs(t, err, errors.ErrPublishFailed)

	stats, ok := monitor.SinkStats("engine")
	require.True(t, ok)
	assert.Equal(t, int64(0), stats.Dispatched)
	assert.Equal(t, int64(1), stats.Errors)

	pulse := monitor.Pulse()
	require.Len(t, pulse.Errors, 1)
	assert.Equal(t, "engine", pulse.Errors[0].Sink)
	assert.Contains(t, pulse.Errors[0].Error, "publish")
}

func TestTransport_DispatchLog(t *testing.T) {
	var buf bytes.Buffer
	memory := NewMemorySink("unity")
	transport := NewTransport(memory, WithDispatchLog(NewDispatchLog(&buf)))

	require.NoError(t, transport.Send(context.Background(), dispatchFixture(t)))

	line := strings.TrimSpace(buf.String())
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))

	assert.Equal(t, "unity", record["sink"])
	assert.Equal(t, "event.v1", record["kind"])
	assert.Equal(t, "session-1", record["session_id"])
	assert.Equal(t, "wearable", record["sdk_surface"])
	assert.Contains(t, record, "bridged_at")
	assert.NotContains(t, record, "status")

	derived, ok := record["derived"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.5, derived["pointer_norm"].(float64), 1e-9)

	minimal, ok := record["minimal"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, minimal, "ZOOM_DELTA")
}

func TestTransport_DispatchLog_RateLimited(t *testing.T) {
	var buf bytes.Buffer
	memory := NewMemorySink("unity")
	transport := NewTransport(memory,
		WithRateLimit(1, 1),
		WithDispatchLog(NewDispatchLog(&buf)),
	)

	d := dispatchFixture(t)
	require.NoError(t, transport.Send(context.Background(), d))
	require.NoError(t, transport.Send(context.Background(), d))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &record))
	assert.Equal(t, "rate_limited", record["status"])
	assert.Equal(t, "unity", record["sink"])
	assert.Contains(t, record, "minimal")
	assert.NotContains(t, record, "derived")
	assert.NotContains(t, record, "bridged_at")
}

func TestTransport_Recorder(t *testing.T) {
	memory := NewMemorySink("unity")
	recorder := &captureRecorder{}
	transport := NewTransport(memory, WithRecorder(recorder))

	d := dispatchFixture(t)
	require.NoError(t, transport.Send(context.Background(), d))

	require.Len(t, recorder.sinks, 1)
	assert.Equal(t, "unity", recorder.sinks[0])
	assert.Same(t, d, recorder.seen[0])
}

func TestTransport_Recorder_SkippedOnRateLimit(t *testing.T) {
	memory := NewMemorySink("unity")
	recorder := &captureRecorder{}
	transport := NewTransport(memory,
		WithRateLimit(1, 1),
		WithRecorder(recorder),
	)

	d := dispatchFixture(t)
	require.NoError(t, transport.Send(context.Background(), d))
	require.NoError(t, transport.Send(context.Background(), d))

	assert.Len(t, recorder.sinks, 1)
}

func TestTransport_InRouterFanout(t *testing.T) {
	monitor := NewMonitor()
	unity := NewMemorySink("unity")
	overlay := NewMemorySink("overlay")

	router := NewRouter()
	require.NoError(t, router.AddSink(NewTransport(unity, WithMonitor(monitor))))
	require.NoError(t, router.AddSink(NewTransport(overlay, WithMonitor(monitor), WithRateLimit(1, 1))))

	for i := 0; i < 3; i++ {
		err := router.Dispatch(context.Background(), envelope.KindEvent, eventPayload(), testSession())
		require.NoError(t, err)
	}

	assert.Equal(t, 3, unity.Len())
	assert.Equal(t, 1, overlay.Len())

	unityStats, _ := monitor.SinkStats("unity")
	overlayStats, _ := monitor.SinkStats("overlay")
	assert.Equal(t, int64(3), unityStats.Dispatched)
	assert.Equal(t, int64(1), overlayStats.Dispatched)
	assert.Equal(t, int64(2), overlayStats.RateLimited)
}

func TestNewMetrics_NilRegistry(t *testing.T) {
	assert.Nil(t, NewMetrics(nil))
}

func TestTransport_MetricsCountOutcomes(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	metrics := NewMetrics(registry)

	d := dispatchFixture(t)

	limited := NewTransport(NewMemorySink("unity"),
		WithRateLimit(1, 1),
		WithTransportMetrics(metrics),
	)
	require.NoError(t, limited.Send(context.Background(), d))
	require.NoError(t, limited.Send(context.Background(), d))

	sendErr := errors.WrapTransient(errors.ErrPublishFailed, "errorSink", "Send", "test failure")
	failing := NewTransport(&errorSink{name: "engine", err: sendErr}, WithTransportMetrics(metrics))
	require.Error(t, failing.Send(context.Background(), d))

	const name = "signalbus_bridge_dispatches_total"
	assert.Equal(t, 1.0, dispatchCount(t, registry, name, "unity", "dispatched"))
	assert.Equal(t, 1.0, dispatchCount(t, registry, name, "unity", "rate_limited"))
	assert.Equal(t, 1.0, dispatchCount(t, registry, name, "engine", "error"))
}

func dispatchCount(t *testing.T, registry *metric.MetricsRegistry, name, sink, status string) float64 {
	t.Helper()

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			labels := make(map[string]string)
			for _, pair := range m.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["sink"] == sink && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
