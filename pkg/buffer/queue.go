package buffer

import (
	"fmt"
	"sync"

	"github.com/c360/signalbus/errors"
)

// Queue is a thread-safe bounded FIFO queue with a configurable overflow
// policy. It decouples producers from consumers: connection handlers write,
// a dispatch loop reads. Statistics are always collected.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // next read position

	stats   *Statistics
	metrics *queueMetrics
	opts    *options[T]

	notFull *sync.Cond // Block policy writers wait here
	closed  bool
}

// New creates a bounded queue with the given capacity and options.
func New[T any](capacity int, opts ...Option[T]) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: capacity %d", errors.ErrInvalidConfig, capacity),
			"Queue", "New", "validate capacity")
	}

	o := applyOptions(opts...)

	var metrics *queueMetrics
	if o.metricsReg != nil {
		var err error
		metrics, err = newQueueMetrics(o.metricsReg, o.metricsPrefix)
		if err != nil {
			return nil, errors.WrapFatal(err, "Queue", "New", "metrics registration")
		}
	}

	q := &Queue[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		stats:    NewStatistics(),
		metrics:  metrics,
		opts:     o,
	}
	q.notFull = sync.NewCond(&q.mu)
	return q, nil
}

// Write adds an item according to the overflow policy. It returns an error
// only when the queue is closed; overflow under the drop policies is
// reported through statistics and the drop callback, not as an error.
func (q *Queue[T]) Write(item T) error {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		return errors.WrapInvalid(errors.ErrAlreadyStopped, "Queue", "Write", "queue closed")
	}

	var dropped *T
	if q.size == q.capacity {
		switch q.opts.overflowPolicy {
		case DropOldest:
			old := q.items[q.tail]
			dropped = &old
			q.tail = (q.tail + 1) % q.capacity
			q.size--
			q.recordDrop()

		case DropNewest:
			q.recordDrop()
			q.mu.Unlock()
			if q.opts.dropCallback != nil {
				q.opts.dropCallback(item)
			}
			return nil

		case Block:
			for q.size == q.capacity && !q.closed {
				q.notFull.Wait()
			}
			if q.closed {
				q.mu.Unlock()
				return errors.WrapInvalid(errors.ErrAlreadyStopped, "Queue", "Write",
					"queue closed during blocking wait")
			}
		}
	}

	q.items[q.head] = item
	q.head = (q.head + 1) % q.capacity
	q.size++

	q.stats.Write()
	q.stats.UpdateSize(int64(q.size))
	if q.metrics != nil {
		q.metrics.recordWrite(q.size, q.capacity)
	}

	cb := q.opts.dropCallback
	q.mu.Unlock()

	if dropped != nil && cb != nil {
		cb(*dropped)
	}
	return nil
}

// Read retrieves and removes the oldest item. It reports false when the
// queue is empty. Reads are permitted after Close to drain remaining items.
func (q *Queue[T]) Read() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.size == 0 {
		return zero, false
	}

	item := q.items[q.tail]
	q.items[q.tail] = zero
	q.tail = (q.tail + 1) % q.capacity
	q.size--

	q.stats.Read()
	q.stats.UpdateSize(int64(q.size))
	if q.metrics != nil {
		q.metrics.recordRead(q.size, q.capacity)
	}

	q.notFull.Signal()
	return item, true
}

// ReadBatch retrieves and removes up to max items in FIFO order. The
// returned slice may be shorter than max; it is nil when the queue is
// empty.
func (q *Queue[T]) ReadBatch(max int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 || max <= 0 {
		return nil
	}

	n := max
	if q.size < n {
		n = q.size
	}

	var zero T
	batch := make([]T, n)
	for i := 0; i < n; i++ {
		batch[i] = q.items[q.tail]
		q.items[q.tail] = zero
		q.tail = (q.tail + 1) % q.capacity
		q.size--
		q.stats.Read()
	}
	q.stats.UpdateSize(int64(q.size))
	if q.metrics != nil {
		q.metrics.recordRead(q.size, q.capacity)
	}

	q.notFull.Broadcast()
	return batch
}

// Size returns the current number of queued items.
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Capacity returns the maximum number of items the queue can hold.
func (q *Queue[T]) Capacity() int {
	return q.capacity
}

// Clear removes all items. Dropped items are reported to the drop
// callback.
func (q *Queue[T]) Clear() {
	q.mu.Lock()

	var cleared []T
	if q.opts.dropCallback != nil && q.size > 0 {
		cleared = make([]T, q.size)
		for i := 0; i < q.size; i++ {
			cleared[i] = q.items[(q.tail+i)%q.capacity]
		}
	}

	var zero T
	for i := range q.items {
		q.items[i] = zero
	}
	q.head = 0
	q.tail = 0
	q.size = 0

	q.stats.UpdateSize(0)
	if q.metrics != nil {
		q.metrics.updateSize(0, q.capacity)
	}

	cb := q.opts.dropCallback
	q.notFull.Broadcast()
	q.mu.Unlock()

	for _, item := range cleared {
		cb(item)
	}
}

// Stats returns the live statistics handle.
func (q *Queue[T]) Stats() *Statistics {
	return q.stats
}

// Close marks the queue closed and wakes blocked writers. Subsequent
// writes fail; reads continue to drain remaining items.
func (q *Queue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	q.notFull.Broadcast()
	return nil
}

// recordDrop tracks one overflow drop in stats and metrics. Caller holds
// the lock.
func (q *Queue[T]) recordDrop() {
	q.stats.Overflow()
	q.stats.Drop()
	if q.metrics != nil {
		q.metrics.recordOverflow()
		q.metrics.recordDrop()
	}
}
