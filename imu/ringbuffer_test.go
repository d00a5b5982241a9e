package imu

import (
	stderrors "errors"
	"testing"

	"github.com/c360/signalbus/errors"
)

func sample(ts float64) Sample {
	return Sample{
		TS:         ts,
		Quaternion: [4]float64{0, 0, 0, 1},
	}
}

func TestNewRingBuffer(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantErr  bool
	}{
		{"zero capacity", 0, true},
		{"negative capacity", -1, true},
		{"capacity one", 1, false},
		{"large capacity", 4096, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb, err := NewRingBuffer(tt.capacity)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !stderrors.Is(err, errors.ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				if !errors.IsInvalid(err) {
					t.Error("constructor error should classify as invalid")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rb.Capacity() != tt.capacity {
				t.Errorf("Capacity() = %d, want %d", rb.Capacity(), tt.capacity)
			}
			if rb.Len() != 0 {
				t.Errorf("Len() = %d, want 0", rb.Len())
			}
		})
	}
}

func TestPush_MonotonicOrder(t *testing.T) {
	rb, err := NewRingBuffer(8)
	if err != nil {
		t.Fatalf("NewRingBuffer failed: %v", err)
	}

	if err := rb.Push(sample(1.0)); err != nil {
		t.Fatalf("first push failed: %v", err)
	}
	if err := rb.Push(sample(2.0)); err != nil {
		t.Fatalf("ordered push failed: %v", err)
	}
	if err := rb.Push(sample(2.0)); err != nil {
		t.Errorf("equal timestamp should be accepted: %v", err)
	}

	err = rb.Push(sample(1.5))
	if err == nil {
		t.Fatal("expected out-of-order rejection")
	}
	if !stderrors.Is(err, errors.ErrOutOfOrder) {
		t.Errorf("expected ErrOutOfOrder, got %v", err)
	}
	if !errors.IsInvalid(err) {
		t.Error("out-of-order error should classify as invalid")
	}
}

func TestPush_RejectionLeavesBufferUnchanged(t *testing.T) {
	rb, err := NewRingBuffer(4)
	if err != nil {
		t.Fatalf("NewRingBuffer failed: %v", err)
	}

	for _, ts := range []float64{1, 2, 3} {
		if err := rb.Push(sample(ts)); err != nil {
			t.Fatalf("push ts=%v failed: %v", ts, err)
		}
	}
	before := rb.Snapshot()

	if err := rb.Push(sample(0.5)); err == nil {
		t.Fatal("expected out-of-order rejection")
	}

	after := rb.Snapshot()
	if len(after) != len(before) {
		t.Fatalf("rejection changed size: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if after[i].TS != before[i].TS {
			t.Errorf("slot %d changed: %v -> %v", i, before[i].TS, after[i].TS)
		}
	}

	stats := rb.Stats()
	if stats.Rejections != 1 {
		t.Errorf("Rejections = %d, want 1", stats.Rejections)
	}
	if stats.Pushes != 3 {
		t.Errorf("Pushes = %d, want 3", stats.Pushes)
	}
}

func TestPush_EvictsOldest(t *testing.T) {
	rb, err := NewRingBuffer(2)
	if err != nil {
		t.Fatalf("NewRingBuffer failed: %v", err)
	}

	rb.mustPush(t, Sample{TS: 1, Quaternion: [4]float64{1, 0, 0, 0}})
	rb.mustPush(t, Sample{TS: 2, Quaternion: [4]float64{0, 1, 0, 0}})
	rb.mustPush(t, Sample{TS: 3, Quaternion: [4]float64{0, 0, 1, 0}})

	snap := rb.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot length = %d, want 2", len(snap))
	}
	if snap[0].TS != 2 || snap[1].TS != 3 {
		t.Errorf("snapshot order = [%v, %v], want [2, 3]", snap[0].TS, snap[1].TS)
	}
	for _, s := range snap {
		if s.TS == 1 {
			t.Error("evicted ts=1 sample still present in snapshot")
		}
	}

	latest, ok := rb.Latest()
	if !ok {
		t.Fatal("Latest() reported empty buffer")
	}
	if latest.Quaternion != [4]float64{0, 0, 1, 0} {
		t.Errorf("Latest().Quaternion = %v, want ts=3 quaternion", latest.Quaternion)
	}

	if got := rb.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestPush_WrapAround(t *testing.T) {
	rb, err := NewRingBuffer(3)
	if err != nil {
		t.Fatalf("NewRingBuffer failed: %v", err)
	}

	for ts := 1.0; ts <= 7.0; ts++ {
		rb.mustPush(t, sample(ts))
	}

	snap := rb.Snapshot()
	want := []float64{5, 6, 7}
	if len(snap) != len(want) {
		t.Fatalf("snapshot length = %d, want %d", len(snap), len(want))
	}
	for i, ts := range want {
		if snap[i].TS != ts {
			t.Errorf("snapshot[%d].TS = %v, want %v", i, snap[i].TS, ts)
		}
	}
}

func TestSnapshot_Detached(t *testing.T) {
	rb, err := NewRingBuffer(4)
	if err != nil {
		t.Fatalf("NewRingBuffer failed: %v", err)
	}
	rb.mustPush(t, Sample{TS: 1, Quaternion: [4]float64{0, 0, 0, 1}, Acceleration: []float64{1, 2, 3}})

	snap := rb.Snapshot()
	snap[0].TS = 99
	snap[0].Acceleration[0] = 99

	latest, ok := rb.Latest()
	if !ok {
		t.Fatal("Latest() reported empty buffer")
	}
	if latest.TS != 1 {
		t.Errorf("internal TS mutated through snapshot: %v", latest.TS)
	}
	if latest.Acceleration[0] != 1 {
		t.Errorf("internal acceleration mutated through snapshot: %v", latest.Acceleration)
	}
}

func TestLatest_Empty(t *testing.T) {
	rb, err := NewRingBuffer(2)
	if err != nil {
		t.Fatalf("NewRingBuffer failed: %v", err)
	}

	if _, ok := rb.Latest(); ok {
		t.Error("Latest() on empty buffer should report false")
	}
}

func TestClear(t *testing.T) {
	rb, err := NewRingBuffer(4)
	if err != nil {
		t.Fatalf("NewRingBuffer failed: %v", err)
	}

	for _, ts := range []float64{5, 6, 7} {
		rb.mustPush(t, sample(ts))
	}

	rb.Clear()

	if rb.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", rb.Len())
	}
	if len(rb.Snapshot()) != 0 {
		t.Error("Snapshot() after Clear should be empty")
	}
	if _, ok := rb.Latest(); ok {
		t.Error("Latest() after Clear should report false")
	}

	// Ordering history resets: timestamps older than pre-clear pushes are
	// accepted again.
	if err := rb.Push(sample(1)); err != nil {
		t.Errorf("push after Clear rejected: %v", err)
	}
}

func TestStats(t *testing.T) {
	rb, err := NewRingBuffer(2)
	if err != nil {
		t.Fatalf("NewRingBuffer failed: %v", err)
	}

	for _, ts := range []float64{1, 2, 3} {
		rb.mustPush(t, sample(ts))
	}
	_ = rb.Push(sample(0)) // rejected

	stats := rb.Stats()
	if stats.Pushes != 3 {
		t.Errorf("Pushes = %d, want 3", stats.Pushes)
	}
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
	if stats.Rejections != 1 {
		t.Errorf("Rejections = %d, want 1", stats.Rejections)
	}
	if stats.Size != 2 {
		t.Errorf("Size = %d, want 2", stats.Size)
	}
	if stats.Capacity != 2 {
		t.Errorf("Capacity = %d, want 2", stats.Capacity)
	}
}

// mustPush fails the test on a push error.
func (rb *RingBuffer) mustPush(t *testing.T, s Sample) {
	t.Helper()
	if err := rb.Push(s); err != nil {
		t.Fatalf("push ts=%v failed: %v", s.TS, err)
	}
}

func BenchmarkPush(b *testing.B) {
	rb, err := NewRingBuffer(1024)
	if err != nil {
		b.Fatalf("NewRingBuffer failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = rb.Push(Sample{TS: float64(i), Quaternion: [4]float64{0, 0, 0, 1}})
	}
}

func BenchmarkSnapshot(b *testing.B) {
	rb, err := NewRingBuffer(256)
	if err != nil {
		b.Fatalf("NewRingBuffer failed: %v", err)
	}
	for i := 0; i < 256; i++ {
		_ = rb.Push(sample(float64(i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = rb.Snapshot()
	}
}
