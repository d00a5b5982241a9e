// Package timestamp provides helpers for the float-seconds timestamp
// convention used across the wire formats.
//
// Producers stamp payloads with seconds since the Unix epoch as a
// float, and every latency or gap computed from them stays in that
// unit. These helpers keep the conversions in one place so clock
// handling stays consistent across packages.
//
// The zero time.Time converts to 0 and back.
package timestamp

import (
	"encoding/json"
	"strconv"
	"time"
)

// Now returns the current time as Unix seconds.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// ToSeconds converts a time.Time to Unix seconds.
func ToSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromSeconds converts Unix seconds to a time.Time. Sub-microsecond
// precision is lost to the float representation.
func FromSeconds(ts float64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(ts*float64(time.Second)))
}

// Parse coerces the timestamp forms that appear in decoded JSON into
// Unix seconds. The second return is false when the input carries no
// usable timestamp.
func Parse(input any) (float64, bool) {
	switch v := input.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		if v == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return ToSeconds(t), true
		}
		return 0, false
	case time.Time:
		if v.IsZero() {
			return 0, false
		}
		return ToSeconds(v), true
	default:
		return 0, false
	}
}
