package replay

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/c360/signalbus/bridge"
	"github.com/c360/signalbus/errors"
)

// Record is one captured dispatch with its receipt timestamp.
type Record struct {
	Sink       string           `json:"sink"`
	Envelope   *bridge.Dispatch `json:"envelope"`
	ReceivedAt time.Time        `json:"received_at"`
}

// Recorder captures dispatched envelopes in receipt order. It plugs
// into a bridge transport as its dispatch recorder, turning any live
// session into a replayable capture.
type Recorder struct {
	mu     sync.Mutex
	now    func() time.Time
	frames []Record
}

var _ bridge.Recorder = (*Recorder)(nil)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock overrides the receipt timestamp source.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder creates an empty Recorder.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends a dispatch under the current receipt timestamp.
func (r *Recorder) Record(sink string, d *bridge.Dispatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, Record{
		Sink:       sink,
		Envelope:   d,
		ReceivedAt: r.now(),
	})
}

// Frames returns the captured records in receipt order.
func (r *Recorder) Frames() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.frames))
	copy(out, r.frames)
	return out
}

// Len reports the number of captured records.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Export writes the capture as line-delimited JSON ordered by receipt
// time. Records sharing a timestamp keep their capture order.
func Export(recorder *Recorder, w io.Writer) error {
	records := recorder.Frames()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ReceivedAt.Before(records[j].ReceivedAt)
	})

	for i, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return errors.WrapInvalid(
				fmt.Errorf("record %d: %w", i+1, err),
				"Replay", "Export", "encode record")
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return errors.Wrap(err, "Replay", "Export", "write record")
		}
	}
	return nil
}
