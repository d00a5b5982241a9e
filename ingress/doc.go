// Package ingress provides the WebSocket entry point for live telemetry.
//
// # Overview
//
// The ingress server accepts WebSocket connections from telemetry
// producers (engine plugins, design-tool bridges, wearable SDKs) and
// validates every inbound frame against the schema registered for its
// kind. Each frame is answered immediately on the same connection, so
// producers get per-message feedback without a separate status channel.
//
// The server is intentionally stateless with respect to clients: it
// never persists frames itself, and a rejected frame affects neither
// the connection nor any other frame. Durability and downstream fan-out
// belong to the dispatch handler wired in with [WithHandler].
//
// # Message Protocol
//
// Producers send envelope frames as JSON text messages:
//
//	{"kind": "event.v1", "payload": {"type": "input", "timestamp": 101.0, "params": {...}}}
//
// A frame that parses and validates receives an ok response echoing the
// payload as received (validation only, no transformation):
//
//	{"status": "ok", "kind": "event.v1", "minimal": {"type": "input", "timestamp": 101.0, "params": {...}}}
//
// A frame that fails to parse or validate receives an error response,
// and the connection stays open for subsequent frames:
//
//	{"status": "error", "error": "event.v1: params: dx is required"}
//
// Responses are written in arrival order. Each connection is handled
// independently; one misbehaving producer cannot stall another.
//
// # Dispatch
//
// Validated envelopes are queued on an in-memory ring and handed to the
// configured [Handler] on a dedicated goroutine. The queue drops its
// oldest entry on overflow so acknowledgement latency stays flat under
// burst load. On shutdown the queue is drained to the handler before
// the server releases its goroutines.
//
// # Quick Start
//
//	srv, err := ingress.New(ingress.DefaultConfig(),
//	    ingress.WithLogger(logger),
//	    ingress.WithHandler(func(ctx context.Context, env *envelope.Envelope) {
//	        journal.Append(env)
//	    }),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Stop(5 * time.Second)
package ingress
