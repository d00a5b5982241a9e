package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/signalbus/envelope"
	"github.com/c360/signalbus/errors"
)

// Router fans validated envelopes out to a set of named sinks. Sinks
// are tried in registration order and every sink sees every dispatch;
// the first send error is reported after all sends have finished.
type Router struct {
	logger *slog.Logger

	mu    sync.RWMutex
	order []string
	sinks map[string]Sink

	dispatches int64
	failures   int64
}

// RouterStats reports dispatch activity counters.
type RouterStats struct {
	Dispatches int64 `json:"dispatches"`
	Failures   int64 `json:"failures"`
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger sets the logger used for dispatch activity.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRouter creates a router with no sinks registered.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		logger: slog.Default(),
		sinks:  make(map[string]Sink),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "bridge")
	return r
}

// AddSink registers a sink. Sink names are unique per router; a second
// sink with the same name is rejected so dispatch accounting stays
// unambiguous.
func (r *Router) AddSink(sink Sink) error {
	name := sink.Name()
	if name == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: empty sink name", errors.ErrInvalidData),
			"Router", "AddSink", "validate sink name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sinks[name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrDuplicateSink, name),
			"Router", "AddSink", "register sink")
	}
	r.sinks[name] = sink
	r.order = append(r.order, name)

	r.logger.Debug("Sink registered", "sink", name, "sinks", len(r.order))
	return nil
}

// Sinks returns the registered sink names in registration order.
func (r *Router) Sinks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Dispatch validates payload against the schema for kind, extracts the
// minimal parameter set, computes derived metrics, and sends the
// resulting dispatch to every registered sink concurrently. Validation
// failures return before any sink is contacted.
func (r *Router) Dispatch(ctx context.Context, kind string, payload any, session Session) error {
	if err := envelope.AssertValid(kind, payload); err != nil {
		atomic.AddInt64(&r.failures, 1)
		return err
	}

	minimal, err := envelope.ExtractMinimal(kind, payload)
	if err != nil {
		atomic.AddInt64(&r.failures, 1)
		return err
	}

	raw, err := rawPayload(payload)
	if err != nil {
		atomic.AddInt64(&r.failures, 1)
		return err
	}

	d := &Dispatch{
		Kind:      kind,
		Payload:   raw,
		Minimal:   minimal,
		Derived:   envelope.Derived(minimal),
		Session:   session,
		BridgedAt: time.Now().UTC(),
	}

	r.mu.RLock()
	sinks := make([]Sink, 0, len(r.order))
	for _, name := range r.order {
		sinks = append(sinks, r.sinks[name])
	}
	r.mu.RUnlock()

	// Plain group, not WithContext: a failing sink must not cancel its
	// siblings mid-send.
	var g errgroup.Group
	for _, sink := range sinks {
		sink := sink
		g.Go(func() error {
			return sink.Send(ctx, d)
		})
	}

	if err := g.Wait(); err != nil {
		atomic.AddInt64(&r.failures, 1)
		r.logger.Warn("Dispatch failed",
			"kind", kind,
			"session_id", session.ID,
			"error", err)
		return err
	}

	atomic.AddInt64(&r.dispatches, 1)
	r.logger.Debug("Dispatch complete",
		"kind", kind,
		"session_id", session.ID,
		"sinks", len(sinks))
	return nil
}

// Stats returns a snapshot of the dispatch counters.
func (r *Router) Stats() RouterStats {
	return RouterStats{
		Dispatches: atomic.LoadInt64(&r.dispatches),
		Failures:   atomic.LoadInt64(&r.failures),
	}
}
