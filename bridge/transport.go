package bridge

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/c360/signalbus/envelope"
	"github.com/c360/signalbus/errors"
)

// Recorder captures dispatched envelopes for deterministic replay.
// Record is called once per sink after a successful send.
type Recorder interface {
	Record(sink string, d *Dispatch)
}

// DispatchLog emits one JSON line per dispatch outcome. It serializes
// writes, so a single log can be shared by every transport of a
// router.
type DispatchLog struct {
	mu sync.Mutex
	w  io.Writer
}

// NewDispatchLog creates a dispatch log writing to w. The caller keeps
// ownership of w.
func NewDispatchLog(w io.Writer) *DispatchLog {
	return &DispatchLog{w: w}
}

// dispatchRecord is the wire form of a dispatch log line. Rate-limited
// records carry a status marker and omit the derived metrics and
// bridge timestamp.
type dispatchRecord struct {
	Timestamp    time.Time                `json:"timestamp"`
	Sink         string                   `json:"sink"`
	Kind         string                   `json:"kind"`
	SessionID    string                   `json:"session_id"`
	SDKSurface   string                   `json:"sdk_surface"`
	Capabilities map[string]any           `json:"capabilities"`
	Derived      *envelope.DerivedMetrics `json:"derived,omitempty"`
	Minimal      map[string]any           `json:"minimal"`
	BridgedAt    *time.Time               `json:"bridged_at,omitempty"`
	Status       string                   `json:"status,omitempty"`
}

// Log writes the record for a successful dispatch through sink.
func (l *DispatchLog) Log(sink string, d *Dispatch) error {
	derived := d.Derived
	bridgedAt := d.BridgedAt
	return l.write(dispatchRecord{
		Timestamp:    time.Now().UTC(),
		Sink:         sink,
		Kind:         d.Kind,
		SessionID:    d.Session.ID,
		SDKSurface:   d.Session.SDKSurface,
		Capabilities: d.Session.Capabilities,
		Derived:      &derived,
		Minimal:      d.Minimal,
		BridgedAt:    &bridgedAt,
	})
}

// LogRateLimited writes the record for a dispatch suppressed by a
// sink's rate limiter.
func (l *DispatchLog) LogRateLimited(sink string, d *Dispatch) error {
	return l.write(dispatchRecord{
		Timestamp:    time.Now().UTC(),
		Sink:         sink,
		Kind:         d.Kind,
		SessionID:    d.Session.ID,
		SDKSurface:   d.Session.SDKSurface,
		Capabilities: d.Session.Capabilities,
		Minimal:      d.Minimal,
		Status:       "rate_limited",
	})
}

func (l *DispatchLog) write(record dispatchRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return errors.WrapInvalid(err, "DispatchLog", "write", "marshal record")
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.w.Write(line); err != nil {
		return errors.Wrap(err, "DispatchLog", "write", "write record")
	}
	return nil
}

// Transport wraps a sink with rate limiting, dispatch accounting,
// structured logging, and an optional replay recorder. A rate-limited
// send is suppressed and accounted, not failed; a transport error is
// recorded and returned to the router.
type Transport struct {
	sink     Sink
	limiter  *rate.Limiter
	monitor  *Monitor
	metrics  *Metrics
	log      *DispatchLog
	recorder Recorder
	logger   *slog.Logger
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithRateLimit applies a token bucket of perSec sends per second with
// the given burst size.
func WithRateLimit(perSec float64, burst int) TransportOption {
	return func(t *Transport) {
		t.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithMonitor records dispatch outcomes into monitor.
func WithMonitor(monitor *Monitor) TransportOption {
	return func(t *Transport) {
		t.monitor = monitor
	}
}

// WithTransportMetrics counts dispatch outcomes in m.
func WithTransportMetrics(m *Metrics) TransportOption {
	return func(t *Transport) {
		t.metrics = m
	}
}

// WithDispatchLog writes a JSON line per outcome to log.
func WithDispatchLog(log *DispatchLog) TransportOption {
	return func(t *Transport) {
		t.log = log
	}
}

// WithRecorder captures successful dispatches into recorder.
func WithRecorder(recorder Recorder) TransportOption {
	return func(t *Transport) {
		t.recorder = recorder
	}
}

// WithTransportLogger sets the logger used for transport activity.
func WithTransportLogger(logger *slog.Logger) TransportOption {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTransport wraps sink. Without options the wrapper is transparent:
// no rate limit, no accounting, no logging.
func NewTransport(sink Sink, opts ...TransportOption) *Transport {
	t := &Transport{
		sink:   sink,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "bridge", "sink", sink.Name())
	return t
}

// Name returns the wrapped sink's name.
func (t *Transport) Name() string { return t.sink.Name() }

// Send forwards d to the wrapped sink, applying the rate limit first.
func (t *Transport) Send(ctx context.Context, d *Dispatch) error {
	name := t.sink.Name()

	if t.limiter != nil && !t.limiter.Allow() {
		if t.monitor != nil {
			t.monitor.RecordRateLimited(name)
		}
		if t.metrics != nil {
			t.metrics.recordDispatch(name, "rate_limited")
		}
		if t.log != nil {
			if err := t.log.LogRateLimited(name, d); err != nil {
				t.logger.Warn("Dispatch log write failed", "error", err)
			}
		}
		t.logger.Debug("Dispatch rate limited", "kind", d.Kind)
		return nil
	}

	if err := t.sink.Send(ctx, d); err != nil {
		if t.monitor != nil {
			t.monitor.RecordError(name, err)
		}
		if t.metrics != nil {
			t.metrics.recordDispatch(name, "error")
		}
		t.logger.Warn("Sink send failed", "kind", d.Kind, "error", err)
		return err
	}

	if t.monitor != nil {
		t.monitor.RecordDispatched(name)
	}
	if t.metrics != nil {
		t.metrics.recordDispatch(name, "dispatched")
	}
	if t.log != nil {
		if err := t.log.Log(name, d); err != nil {
			t.logger.Warn("Dispatch log write failed", "error", err)
		}
	}
	if t.recorder != nil {
		t.recorder.Record(name, d)
	}
	return nil
}
