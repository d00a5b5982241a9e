package bridge

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/c360/signalbus/envelope"
	"github.com/c360/signalbus/errors"
	"github.com/c360/signalbus/pkg/timestamp"
)

// DefaultWindowSize is the sample window used when callers have no
// reason to pick another.
const DefaultWindowSize = 256

// TelemetrySample is one ingested envelope annotated with its latency
// and derived view. Timestamp, ReceivedAt, and Latency are seconds on
// the monitor's clock.
type TelemetrySample struct {
	Kind         string                  `json:"kind"`
	Timestamp    float64                 `json:"timestamp"`
	ReceivedAt   float64                 `json:"received_at"`
	Latency      float64                 `json:"latency"`
	Minimal      map[string]any          `json:"minimal"`
	Derived      envelope.DerivedMetrics `json:"derived"`
	Capabilities map[string]any          `json:"capabilities"`
}

// LatencyMetrics aggregates the sample window. Jitter is the standard
// deviation of the windowed latencies.
type LatencyMetrics struct {
	MeanMS   float64 `json:"mean_ms"`
	MaxMS    float64 `json:"max_ms"`
	JitterMS float64 `json:"jitter_ms"`
}

// PerformanceMonitor keeps a bounded window of recent telemetry
// samples and aggregates their ingest latencies. Once the window is
// full the oldest sample is evicted per ingest.
type PerformanceMonitor struct {
	mu       sync.Mutex
	items    []TelemetrySample
	capacity int
	size     int
	head     int
	tail     int

	now func() float64
}

// PerfOption configures a PerformanceMonitor.
type PerfOption func(*PerformanceMonitor)

// WithClock replaces the monitor's clock. The clock reports seconds
// and must share an epoch with the timestamps producers stamp into
// payloads, or latencies are meaningless.
func WithClock(now func() float64) PerfOption {
	return func(m *PerformanceMonitor) {
		if now != nil {
			m.now = now
		}
	}
}

// NewPerformanceMonitor creates a monitor holding at most windowSize
// samples. The default clock reports Unix seconds.
func NewPerformanceMonitor(windowSize int, opts ...PerfOption) (*PerformanceMonitor, error) {
	if windowSize <= 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: window size %d", errors.ErrInvalidConfig, windowSize),
			"PerformanceMonitor", "NewPerformanceMonitor", "validate window size")
	}
	m := &PerformanceMonitor{
		items:    make([]TelemetrySample, windowSize),
		capacity: windowSize,
		now:      timestamp.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Ingest validates payload against the schema for kind and records a
// sample. Latency is the clock reading minus the payload's capture
// timestamp, clamped at zero; payloads without a timestamp read as
// zero latency.
func (m *PerformanceMonitor) Ingest(kind string, payload any, session Session) (TelemetrySample, error) {
	if err := envelope.AssertValid(kind, payload); err != nil {
		return TelemetrySample{}, err
	}
	minimal, err := envelope.ExtractMinimal(kind, payload)
	if err != nil {
		return TelemetrySample{}, err
	}

	received := m.now()
	ts, ok := payloadTimestamp(payload)
	if !ok {
		ts = received
	}
	latency := received - ts
	if latency < 0 {
		latency = 0
	}

	sample := TelemetrySample{
		Kind:         kind,
		Timestamp:    ts,
		ReceivedAt:   received,
		Latency:      latency,
		Minimal:      minimal,
		Derived:      envelope.Derived(minimal),
		Capabilities: session.Capabilities,
	}

	m.mu.Lock()
	if m.size == m.capacity {
		m.items[m.tail] = TelemetrySample{}
		m.tail = (m.tail + 1) % m.capacity
		m.size--
	}
	m.items[m.head] = sample
	m.head = (m.head + 1) % m.capacity
	m.size++
	m.mu.Unlock()

	return sample, nil
}

// LatencyMetrics computes mean, max, and jitter over the current
// window, in milliseconds. An empty window reads as all zeros.
func (m *PerformanceMonitor) LatencyMetrics() LatencyMetrics {
	m.mu.Lock()
	latencies := make([]float64, m.size)
	for i := 0; i < m.size; i++ {
		latencies[i] = m.items[(m.tail+i)%m.capacity].Latency
	}
	m.mu.Unlock()

	if len(latencies) == 0 {
		return LatencyMetrics{}
	}

	var sum, maxLatency float64
	for _, l := range latencies {
		sum += l
		if l > maxLatency {
			maxLatency = l
		}
	}
	mean := sum / float64(len(latencies))

	var sumSq float64
	for _, l := range latencies {
		d := l - mean
		sumSq += d * d
	}
	jitter := math.Sqrt(sumSq / float64(len(latencies)))

	return LatencyMetrics{
		MeanMS:   mean * 1000,
		MaxMS:    maxLatency * 1000,
		JitterMS: jitter * 1000,
	}
}

// Samples returns a copy of the window in insertion order, oldest
// first.
func (m *PerformanceMonitor) Samples() []TelemetrySample {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]TelemetrySample, m.size)
	for i := 0; i < m.size; i++ {
		out[i] = m.items[(m.tail+i)%m.capacity]
	}
	return out
}

// Len returns the number of buffered samples.
func (m *PerformanceMonitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Capacity returns the fixed window size.
func (m *PerformanceMonitor) Capacity() int {
	return m.capacity
}

// payloadTimestamp reads the capture timestamp from any payload form
// the validator accepts. The second return is false when the payload
// has no usable timestamp field.
func payloadTimestamp(payload any) (float64, bool) {
	var m map[string]any
	switch p := payload.(type) {
	case map[string]any:
		m = p
	case json.RawMessage:
		if json.Unmarshal(p, &m) != nil {
			return 0, false
		}
	case []byte:
		if json.Unmarshal(p, &m) != nil {
			return 0, false
		}
	case string:
		if json.Unmarshal([]byte(p), &m) != nil {
			return 0, false
		}
	default:
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, false
		}
		if json.Unmarshal(raw, &m) != nil {
			return 0, false
		}
	}

	return timestamp.Parse(m["timestamp"])
}
