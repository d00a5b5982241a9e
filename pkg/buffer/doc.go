// Package buffer provides a thread-safe bounded FIFO queue with
// configurable overflow policies, built-in statistics, and optional
// Prometheus metrics integration.
//
// # Overview
//
// The queue decouples producers from consumers in concurrent pipelines:
// ingress connection handlers write validated envelopes, a dispatch loop
// reads them for persistence and fan-out. Queues are generic and collect
// statistics unconditionally; Prometheus export is opt-in.
//
// # Quick Start
//
// Basic queue creation:
//
//	q, err := buffer.New[int](1000)
//	if err != nil {
//		return err
//	}
//
//	// Write data
//	err = q.Write(42)
//
//	// Read data
//	value, ok := q.Read()
//
// With overflow policy and metrics:
//
//	q, err := buffer.New[[]byte](5000,
//		buffer.WithOverflowPolicy[[]byte](buffer.DropOldest),
//		buffer.WithMetrics[[]byte](registry, "ingress"),
//	)
//
// # Overflow Policies
//
// Three behaviors when capacity is reached:
//
//   - DropOldest: remove the oldest item to make room (default)
//   - DropNewest: reject new items when full
//   - Block: Write waits for available space
//
// Drops under either drop policy are not errors; they are reported through
// statistics and the optional drop callback. Only a closed queue returns a
// write error.
//
// # Shutdown
//
// Close wakes blocked writers and fails subsequent writes, while reads
// keep draining remaining items. This lets a consumer loop finish the
// backlog during shutdown before discarding the queue.
package buffer
