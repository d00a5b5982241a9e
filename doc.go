// Package signalbus provides a telemetry ingestion, validation, and
// replay core for structured motion and input signals.
//
// # Overview
//
// Signal Bus terminates WebSocket telemetry produced by wearable and
// holographic clients and validates every frame against versioned JSON
// schemas before anything else sees it. Validated envelopes are
// journaled to disk for deterministic replay, pose samples flow into a
// bounded ring buffer, and an optional bridge fans the stream out to
// downstream SDK sinks over UDP and NATS.
//
// # Architecture
//
//	┌──────────────┐    ws frames     ┌──────────────────┐
//	│   Producer   ├─────────────────►│  Ingress Server  │
//	│ (client SDK) │◄─────────────────┤ validate + reply │
//	└──────────────┘    ok / error    └────────┬─────────┘
//	                                           │ validated envelopes
//	                  ┌────────────────────────┼──────────────────┐
//	                  ↓                        ↓                  ↓
//	           ┌────────────┐          ┌─────────────┐     ┌────────────┐
//	           │  Journal   │          │  IMU Ring   │     │   Bridge   │
//	           │ append log │          │ pose window │     │  fan-out   │
//	           └─────┬──────┘          └─────────────┘     └─────┬──────┘
//	                 │ recorded frames                           │
//	                 ↓                                      UDP / NATS
//	           ┌────────────┐
//	           │   Replay   ├────► live ingress endpoint
//	           └────────────┘
//
// Replay reverses the flow: it reads a journal-shaped frame file,
// re-validates every record, and retransmits the sequence over a live
// WebSocket connection, counting acknowledgements until every frame is
// accounted for.
//
// # Wire Protocol
//
// Every frame is a JSON envelope carrying a kind and a payload:
//
//	{"kind": "event.v1", "payload": {"type": "input", "timestamp": 101.0, "payload": {...}}}
//
// The ingress server answers each frame in arrival order:
//
//	{"status": "ok", "kind": "event.v1", "minimal": {...}}
//	{"status": "error", "error": "event.v1 payload invalid: (root): timestamp is required"}
//
// A rejected frame never closes the connection; rejection is per
// message, not per client.
//
// # Packages
//
// Core:
//   - envelope: envelope parsing, schema validation, minimal parameter
//     extraction, derived metrics
//   - imu: bounded ring buffer for high-frequency pose samples
//   - journal: append-only validated envelope log
//   - ingress: WebSocket ingress server
//   - replay: frame file reader, session summary, ordered resender
//   - bridge: validated envelope fan-out (router, sinks, rate limiting,
//     latency monitoring)
//
// Infrastructure:
//   - config: YAML and environment configuration
//   - errors: classified error handling (transient, fatal, invalid)
//   - health: component health reporting
//   - metric: Prometheus metrics and the metrics endpoint
//   - natsclient: NATS connection management
//
// Utilities:
//   - pkg/buffer: generic bounded queue with overflow policies
//   - pkg/retry: exponential backoff for transient failures
//   - pkg/timestamp: float-seconds timestamp conventions
//
// # Usage
//
// Run the daemon:
//
//	signalbus --config config.yaml
//
// Replay a recorded session against it:
//
//	signalbus-replay -input session.jsonl -endpoint ws://localhost:8787/signal -summary
//
// Or embed the pieces directly:
//
//	j, _ := journal.New("data/journal.jsonl")
//	srv, _ := ingress.New(ingress.DefaultConfig(),
//	    ingress.WithHandler(func(ctx context.Context, env *envelope.Envelope) {
//	        _ = j.Append(journal.FromEnvelope(env))
//	    }))
//	_ = srv.Start(ctx)
//	defer srv.Stop(5 * time.Second)
//
// # Design Principles
//
// Validation at every trust boundary:
//   - Live ingress, journal append, and replay read all pass the same
//     schema gate. Nothing unvalidated crosses into storage or sinks.
//
// Bounded everything:
//   - The pose ring, dispatch queue, and latency window are fixed
//     size. Overflow drops the oldest entry instead of growing.
//
// Errors carry their class:
//   - Transient, fatal, and invalid failures wrap structured context
//     so callers can decide between retry and abort.
//
// Replay is honest:
//   - Recorded sessions replay through the same validator and wire
//     format as live traffic, so a replayed regression is a real
//     regression.
package signalbus
