package bridge

import (
	"context"
	"sync"
)

// MemorySink records every dispatch it receives. It exists for tests
// and local wiring checks.
type MemorySink struct {
	name string

	mu       sync.Mutex
	received []*Dispatch
}

// NewMemorySink creates an empty recording sink.
func NewMemorySink(name string) *MemorySink {
	return &MemorySink{name: name}
}

// Name returns the sink name.
func (s *MemorySink) Name() string { return s.name }

// Send records d and succeeds.
func (s *MemorySink) Send(_ context.Context, d *Dispatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, d)
	return nil
}

// Received returns the recorded dispatches in arrival order.
func (s *MemorySink) Received() []*Dispatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Dispatch(nil), s.received...)
}

// Len returns the number of recorded dispatches.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}
