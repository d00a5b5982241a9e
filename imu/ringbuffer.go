// Package imu keeps a bounded, time-ordered window of the most recent
// inertial samples for low-latency pose introspection.
package imu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/c360/signalbus/errors"
)

// Sample is one inertial measurement. TS is monotonic seconds within a
// session. Acceleration and gyro are optional three-axis readings; a pose
// frame carries only the quaternion.
type Sample struct {
	TS           float64    `json:"ts"`
	Quaternion   [4]float64 `json:"quaternion"`
	Acceleration []float64  `json:"acceleration,omitempty"`
	Gyro         []float64  `json:"gyro,omitempty"`
}

// clone returns a copy with its own backing arrays so callers can mutate
// snapshots freely.
func (s Sample) clone() Sample {
	out := s
	if s.Acceleration != nil {
		out.Acceleration = append([]float64(nil), s.Acceleration...)
	}
	if s.Gyro != nil {
		out.Gyro = append([]float64(nil), s.Gyro...)
	}
	return out
}

// RingBuffer holds the most recent samples in push order, evicting strictly
// oldest-first once capacity is reached. Samples must arrive in
// non-decreasing timestamp order within one buffer lifetime; the buffer
// assumes a single logical writer.
type RingBuffer struct {
	mu       sync.RWMutex
	items    []Sample
	capacity int
	size     int
	head     int // next write position
	tail     int // oldest sample position

	pushes     int64
	evictions  int64
	rejections int64
}

// Stats is a point-in-time snapshot of buffer activity.
type Stats struct {
	Pushes     int64 `json:"pushes"`
	Evictions  int64 `json:"evictions"`
	Rejections int64 `json:"rejections"`
	Size       int   `json:"size"`
	Capacity   int   `json:"capacity"`
}

// NewRingBuffer creates a buffer holding at most capacity samples.
// Capacity must be positive; sizing is fixed for the buffer's lifetime.
func NewRingBuffer(capacity int) (*RingBuffer, error) {
	if capacity <= 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: capacity %d", errors.ErrInvalidConfig, capacity),
			"RingBuffer", "NewRingBuffer", "validate capacity")
	}
	return &RingBuffer{
		items:    make([]Sample, capacity),
		capacity: capacity,
	}, nil
}

// Push appends sample at the tail. A timestamp strictly older than the
// most recent push is rejected with ErrOutOfOrder and leaves the buffer
// unchanged; equal timestamps are accepted. A successful push into a full
// buffer evicts the oldest sample first.
func (rb *RingBuffer) Push(sample Sample) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.size > 0 {
		last := rb.items[(rb.head-1+rb.capacity)%rb.capacity]
		if sample.TS < last.TS {
			atomic.AddInt64(&rb.rejections, 1)
			return errors.WrapInvalid(
				fmt.Errorf("%w: ts %v precedes tail ts %v", errors.ErrOutOfOrder, sample.TS, last.TS),
				"RingBuffer", "Push", "order check")
		}
	}

	if rb.size == rb.capacity {
		rb.items[rb.tail] = Sample{}
		rb.tail = (rb.tail + 1) % rb.capacity
		rb.size--
		atomic.AddInt64(&rb.evictions, 1)
	}

	rb.items[rb.head] = sample
	rb.head = (rb.head + 1) % rb.capacity
	rb.size++
	atomic.AddInt64(&rb.pushes, 1)
	return nil
}

// Snapshot returns a copy of the buffered samples in insertion order,
// oldest first. The copy is detached; mutating it never affects the
// buffer.
func (rb *RingBuffer) Snapshot() []Sample {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	out := make([]Sample, rb.size)
	for i := 0; i < rb.size; i++ {
		out[i] = rb.items[(rb.tail+i)%rb.capacity].clone()
	}
	return out
}

// Latest returns the most recently pushed sample. The second return is
// false when the buffer is empty.
func (rb *RingBuffer) Latest() (Sample, bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.size == 0 {
		return Sample{}, false
	}
	return rb.items[(rb.head-1+rb.capacity)%rb.capacity].clone(), true
}

// Len returns the number of buffered samples.
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size
}

// Capacity returns the fixed slot count.
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// Clear resets the buffer to empty. Ordering history is discarded, so the
// next push accepts any timestamp.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for i := range rb.items {
		rb.items[i] = Sample{}
	}
	rb.head = 0
	rb.tail = 0
	rb.size = 0
}

// Stats returns a snapshot of push activity counters.
func (rb *RingBuffer) Stats() Stats {
	rb.mu.RLock()
	size := rb.size
	rb.mu.RUnlock()

	return Stats{
		Pushes:     atomic.LoadInt64(&rb.pushes),
		Evictions:  atomic.LoadInt64(&rb.evictions),
		Rejections: atomic.LoadInt64(&rb.rejections),
		Size:       size,
		Capacity:   rb.capacity,
	}
}
