package imu

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestRingBuffer_WindowProperty verifies the bounded-window contract: after
// n ordered pushes into a buffer of capacity c, the snapshot holds exactly
// min(n, c) samples and they are the most recent n pushed, oldest first.
func TestRingBuffer_WindowProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("snapshot is the most recent min(n, c) samples", prop.ForAll(
		func(capacity, n int) bool {
			rb, err := NewRingBuffer(capacity)
			if err != nil {
				return false
			}

			for i := 0; i < n; i++ {
				if err := rb.Push(Sample{TS: float64(i)}); err != nil {
					return false
				}
			}

			snap := rb.Snapshot()
			want := n
			if capacity < n {
				want = capacity
			}
			if len(snap) != want {
				return false
			}
			for i, s := range snap {
				if s.TS != float64(n-want+i) {
					return false
				}
			}
			if n > 0 {
				latest, ok := rb.Latest()
				if !ok || latest.TS != float64(n-1) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 64),
		gen.IntRange(0, 256),
	))

	properties.TestingRun(t)
}

// TestRingBuffer_OrderProperty verifies that a push older than the most
// recent sample always fails and never mutates the window.
func TestRingBuffer_OrderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("stale pushes are rejected without mutation", prop.ForAll(
		func(capacity, n int) bool {
			rb, err := NewRingBuffer(capacity)
			if err != nil {
				return false
			}

			for i := 0; i < n; i++ {
				if err := rb.Push(Sample{TS: float64(i + 1)}); err != nil {
					return false
				}
			}

			before := rb.Snapshot()
			if err := rb.Push(Sample{TS: 0.5}); err == nil {
				return false
			}
			after := rb.Snapshot()

			if len(before) != len(after) {
				return false
			}
			for i := range before {
				if before[i].TS != after[i].TS {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 64),
		gen.IntRange(1, 256),
	))

	properties.TestingRun(t)
}
