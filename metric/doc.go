// Package metric provides Prometheus-based metrics collection and an HTTP
// server for Signal Bus monitoring and observability.
//
// The package offers a centralized metrics registry managing both core
// platform metrics (service status, envelope validation outcomes, journal
// and replay activity, NATS health) and custom component-specific metrics.
// It includes an HTTP server exposing metrics in Prometheus format.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: platform-level metrics automatically registered (Metrics type)
//  2. Component Registry: extensible registration for component-specific metrics (MetricsRegistrar interface)
//  3. HTTP Server: metrics endpoint with health check (Server type)
//
// # Basic Usage
//
// Setting up metrics collection and the HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("metrics server error: %v", err)
//	    }
//	}()
//
//	// Record core platform metrics
//	core := registry.CoreMetrics()
//	core.RecordServiceStatus("ingress", 2)
//	core.RecordEnvelopeValidated("ingress", "event.v1", "ok")
//	core.RecordJournalAppend("journal", "ok")
//
// Prometheus-formatted metrics are served at http://localhost:9090/metrics
// and a health check at http://localhost:9090/health.
//
// # Component Metrics
//
// Components register their own metrics through the MetricsRegistrar
// interface. Registration is keyed by service and metric name; a duplicate
// registration returns an invalid-class error instead of panicking:
//
//	connections := prometheus.NewGauge(prometheus.GaugeOpts{
//	    Namespace: "signalbus",
//	    Subsystem: "ingress",
//	    Name:      "connections_active",
//	    Help:      "Number of active WebSocket connections",
//	})
//	if err := registry.RegisterGauge("ingress", "connections_active", connections); err != nil {
//	    return err
//	}
//
// All registered metrics share the single Prometheus registry exposed by
// the Server, so one scrape endpoint covers the whole process.
package metric
