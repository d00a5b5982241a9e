// Package health provides thread-safe health tracking and aggregation for
// signal bus components.
//
// Each component reports its own health as a Status; a Monitor collects the
// statuses and rolls them into a single service-level view.
//
// # Health States
//
// The package supports three health states:
//   - Healthy: component operating normally
//   - Degraded: component operating with reduced capacity
//   - Unhealthy: component not functioning
//
// The three-state model lets operators react proportionally: a degraded
// ingress (dispatch queue filling) warrants watching, an unhealthy journal
// (append failures) warrants intervention.
//
// # Basic Usage
//
// Creating and tracking component health:
//
//	monitor := health.NewMonitor()
//
//	monitor.UpdateHealthy("journal", "Appends flowing")
//	monitor.UpdateDegraded("ingress", "Dispatch queue above high-water mark")
//	monitor.UpdateUnhealthy("bridge", "All sinks failing")
//
//	if status, exists := monitor.Get("journal"); exists && status.IsHealthy() {
//	    log.Println("journal healthy")
//	}
//
// # Aggregation
//
// AggregateHealth combines every tracked component into one status:
//
//	system := monitor.AggregateHealth("signalbus")
//	if system.IsUnhealthy() {
//	    log.Printf("system unhealthy: %s", system.Message)
//	}
//
// Any unhealthy component makes the system unhealthy; otherwise any degraded
// component makes it degraded.
//
// # Component Reports
//
// Components that keep their own counters expose a Report and convert it
// with FromReport, which sanitizes error messages so URLs, file paths, IPs,
// ports, and credentials never appear in health output:
//
//	status := health.FromReport("ingress", health.Report{
//	    Healthy:            true,
//	    Uptime:             time.Since(started),
//	    EnvelopesProcessed: processed,
//	})
//	monitor.Update("ingress", status)
package health
