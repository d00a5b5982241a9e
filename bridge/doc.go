// Package bridge routes validated envelopes to downstream integration
// sinks while keeping the minimal parameter set and derived metrics
// visible at every hop.
//
// # Overview
//
// A Router fans each dispatch out to every registered sink
// concurrently. Dispatching validates the payload against its kind's
// schema, extracts the minimal parameters, and computes derived
// metrics once; sinks all see the same Dispatch value. Wrapping a sink
// in a Transport adds token-bucket rate limiting, per-sink accounting,
// a line-delimited dispatch log, and an optional replay recorder.
//
// # Quick Start
//
//	monitor := bridge.NewMonitor()
//	sink, err := bridge.NewUDPSink("engine", "127.0.0.1:9000")
//	if err != nil {
//	    return err
//	}
//
//	router := bridge.NewRouter()
//	err = router.AddSink(bridge.NewTransport(sink,
//	    bridge.WithRateLimit(5, 5),
//	    bridge.WithMonitor(monitor),
//	))
//	if err != nil {
//	    return err
//	}
//
//	session := bridge.NewSession("session-1", "wearable", map[string]any{
//	    "render.intent.apply": true,
//	})
//	err = router.Dispatch(ctx, envelope.KindEvent, payload, session)
//
// # Rate Limiting
//
// A Transport's limiter suppresses sends that exceed the configured
// rate; a suppressed send is accounted as rate_limited and is not an
// error. Transport failures are accounted and returned to the router,
// which reports the first failure after every sink has been tried.
//
// # Operational Visibility
//
// The shared Monitor aggregates per-sink outcomes. Pulse returns a
// point-in-time snapshot; Health summarizes it as a component status
// for the health endpoint. A PerformanceMonitor can additionally track
// ingest latencies over a bounded window and report mean, max, and
// jitter in milliseconds.
package bridge
