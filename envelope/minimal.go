package envelope

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/c360/signalbus/errors"
)

// ExtractMinimal returns the minimal parameter set embedded in a payload.
// Each kind stores it in a different location:
//
//	event.v1         payload.payload
//	agent_frame.v1   payload.inputs
//	render_config.v1 payload.inputs
//	holo_intent      payload.render_config.inputs
//	holo_frame.v1    payload.inputs
//
// A missing location yields an empty map, matching the permissive read
// side of the bridge; an unregistered kind is a caller error.
func ExtractMinimal(kind string, payload any) (map[string]any, error) {
	m, err := toMap(payload)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindEvent:
		return childMap(m, "payload"), nil
	case KindAgentFrame, KindRenderConfig, KindHoloFrame:
		return childMap(m, "inputs"), nil
	case KindHoloIntent:
		return childMap(childMap(m, "render_config"), "inputs"), nil
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownKind, kind),
			"Envelope", "ExtractMinimal", "resolve kind")
	}
}

// DerivedMetrics is the derived view of a minimal parameter set kept
// visible to downstream operators.
type DerivedMetrics struct {
	PointerNorm   float64 `json:"pointer_norm"`
	ZoomDelta     float64 `json:"zoom_delta"`
	RotationDelta float64 `json:"rotation_delta"`
	Triggered     bool    `json:"triggered"`
}

// Derived computes derived metrics from a minimal parameter set. Absent or
// mistyped fields contribute zero values rather than errors; validation
// happens before extraction, not here.
func Derived(minimal map[string]any) DerivedMetrics {
	pointer, _ := minimal["POINTER_DELTA"].(map[string]any)
	dx := asFloat(pointer["dx"])
	dy := asFloat(pointer["dy"])

	return DerivedMetrics{
		PointerNorm:   math.Hypot(dx, dy),
		ZoomDelta:     asFloat(minimal["ZOOM_DELTA"]),
		RotationDelta: asFloat(minimal["ROT_DELTA"]),
		Triggered:     asBool(minimal["INPUT_TRIGGER"]),
	}
}

// toMap normalizes the payload forms accepted at trust boundaries into a
// generic map view.
func toMap(payload any) (map[string]any, error) {
	switch p := payload.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return p, nil
	case json.RawMessage:
		return unmarshalMap(p)
	case []byte:
		return unmarshalMap(p)
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
				"Envelope", "toMap", "encode payload")
		}
		return unmarshalMap(raw)
	}
}

func unmarshalMap(raw []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
			"Envelope", "toMap", "decode payload")
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

func childMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	child, ok := m[key].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return child
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
