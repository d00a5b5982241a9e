package bridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/c360/signalbus/health"
)

// maxErrorRecords bounds the monitor's error log; the oldest records
// are discarded first.
const maxErrorRecords = 100

// SinkStats is the per-sink dispatch accounting kept by a Monitor.
type SinkStats struct {
	Dispatched  int64     `json:"dispatched"`
	RateLimited int64     `json:"rate_limited"`
	Errors      int64     `json:"errors"`
	LastUpdated time.Time `json:"last_updated"`
}

// ErrorRecord is one recorded transport failure.
type ErrorRecord struct {
	Sink       string    `json:"sink"`
	Error      string    `json:"error"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Pulse is a point-in-time snapshot of bridge activity across all
// sinks.
type Pulse struct {
	Timestamp time.Time            `json:"timestamp"`
	Sinks     map[string]SinkStats `json:"sinks"`
	Errors    []ErrorRecord        `json:"errors"`
}

// Monitor tracks per-sink dispatch outcomes for operational
// visibility. One monitor is shared by all transports of a router.
type Monitor struct {
	mu     sync.Mutex
	sinks  map[string]*SinkStats
	errors []ErrorRecord
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{sinks: make(map[string]*SinkStats)}
}

// RecordDispatched counts a successful send for sink.
func (m *Monitor) RecordDispatched(sink string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.stats(sink)
	stats.Dispatched++
	stats.LastUpdated = time.Now().UTC()
}

// RecordRateLimited counts a send suppressed by the sink's rate
// limiter.
func (m *Monitor) RecordRateLimited(sink string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.stats(sink)
	stats.RateLimited++
	stats.LastUpdated = time.Now().UTC()
}

// RecordError counts a transport failure for sink and appends it to
// the bounded error log.
func (m *Monitor) RecordError(sink string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.stats(sink)
	stats.Errors++
	stats.LastUpdated = time.Now().UTC()

	message := ""
	if err != nil {
		message = err.Error()
	}
	m.errors = append(m.errors, ErrorRecord{
		Sink:       sink,
		Error:      message,
		RecordedAt: time.Now().UTC(),
	})
	if len(m.errors) > maxErrorRecords {
		m.errors = m.errors[len(m.errors)-maxErrorRecords:]
	}
}

// stats returns the entry for sink, creating it on first use. Callers
// must hold mu.
func (m *Monitor) stats(sink string) *SinkStats {
	stats, ok := m.sinks[sink]
	if !ok {
		stats = &SinkStats{}
		m.sinks[sink] = stats
	}
	return stats
}

// SinkStats returns a copy of the accounting for one sink. The second
// return is false when the sink has never been recorded.
func (m *Monitor) SinkStats(sink string) (SinkStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.sinks[sink]
	if !ok {
		return SinkStats{}, false
	}
	return *stats, true
}

// Pulse returns a snapshot of all sink accounting and the recent error
// log. The snapshot is detached from the monitor.
func (m *Monitor) Pulse() Pulse {
	m.mu.Lock()
	defer m.mu.Unlock()

	sinks := make(map[string]SinkStats, len(m.sinks))
	for name, stats := range m.sinks {
		sinks[name] = *stats
	}
	return Pulse{
		Timestamp: time.Now().UTC(),
		Sinks:     sinks,
		Errors:    append([]ErrorRecord(nil), m.errors...),
	}
}

// Health summarizes the monitor as a component status: healthy while
// no sink has recorded a failure, degraded when failures mix with
// successful dispatches, unhealthy when nothing has gone through.
func (m *Monitor) Health() health.Status {
	m.mu.Lock()

	var dispatched, rateLimited, errorCount int64
	var lastActivity time.Time
	for _, stats := range m.sinks {
		dispatched += stats.Dispatched
		rateLimited += stats.RateLimited
		errorCount += stats.Errors
		if stats.LastUpdated.After(lastActivity) {
			lastActivity = stats.LastUpdated
		}
	}
	m.mu.Unlock()

	metrics := &health.Metrics{
		ErrorCount:         int(errorCount),
		EnvelopesProcessed: dispatched,
		LastActivity:       lastActivity,
	}

	switch {
	case errorCount == 0:
		message := fmt.Sprintf("%d dispatched, %d rate limited", dispatched, rateLimited)
		return health.NewHealthy("bridge", message).WithMetrics(metrics)
	case dispatched > 0:
		message := fmt.Sprintf("%d dispatched, %d errors", dispatched, errorCount)
		return health.NewDegraded("bridge", message).WithMetrics(metrics)
	default:
		message := fmt.Sprintf("%d errors, no successful dispatches", errorCount)
		return health.NewUnhealthy("bridge", message).WithMetrics(metrics)
	}
}
