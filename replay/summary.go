package replay

import (
	"encoding/json"
	"sort"
)

// Summary describes a frame sequence: how many frames, which kinds,
// and how the capture timestamps are spread.
type Summary struct {
	// Frames is the total frame count.
	Frames int `json:"frames"`
	// Kinds counts frames per envelope kind.
	Kinds map[string]int `json:"kinds"`
	// Duration is the spread between the earliest and latest capture
	// timestamp, in seconds.
	Duration float64 `json:"duration"`
	// MaxGap is the largest gap between consecutive capture
	// timestamps, in seconds.
	MaxGap float64 `json:"max_gap"`
}

// Summarize computes a Summary over the frames' payload timestamps.
// Frames without a numeric timestamp still count toward Frames and
// Kinds but are excluded from the spread.
func Summarize(frames []Frame) Summary {
	summary := Summary{
		Frames: len(frames),
		Kinds:  make(map[string]int, 4),
	}

	var timestamps []float64
	for _, frame := range frames {
		kind := frame.Kind
		if kind == "" {
			kind = "unknown"
		}
		summary.Kinds[kind]++

		if ts, ok := frameTimestamp(frame); ok {
			timestamps = append(timestamps, ts)
		}
	}

	if len(timestamps) == 0 {
		return summary
	}

	sort.Float64s(timestamps)
	summary.Duration = timestamps[len(timestamps)-1] - timestamps[0]
	for i := 1; i < len(timestamps); i++ {
		if gap := timestamps[i] - timestamps[i-1]; gap > summary.MaxGap {
			summary.MaxGap = gap
		}
	}
	return summary
}

// frameTimestamp extracts the capture timestamp from a frame payload.
func frameTimestamp(frame Frame) (float64, bool) {
	if len(frame.Payload) == 0 {
		return 0, false
	}
	var payload struct {
		Timestamp *float64 `json:"timestamp"`
	}
	if err := json.Unmarshal(frame.Payload, &payload); err != nil || payload.Timestamp == nil {
		return 0, false
	}
	return *payload.Timestamp, true
}
