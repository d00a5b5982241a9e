package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/c360/signalbus/errors"
)

// Registered envelope kinds. Kinds are versioned by name; a new schema
// version is a new kind string with explicit caller opt-in, never an
// implicit migration.
const (
	KindEvent        = "event.v1"
	KindAgentFrame   = "agent_frame.v1"
	KindRenderConfig = "render_config.v1"
	KindHoloIntent   = "holo_intent"
	KindHoloFrame    = "holo_frame.v1"
)

// Envelope is the wire unit: a kind naming the schema and the raw payload
// validated against it.
type Envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// ParseEnvelope decodes a raw wire frame into an Envelope. The payload is
// left raw; callers validate it with AssertValid.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
			"Envelope", "ParseEnvelope", "decode frame")
	}
	if env.Kind == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: missing kind", errors.ErrParsingFailed),
			"Envelope", "ParseEnvelope", "decode frame")
	}
	return &env, nil
}

// PointerDelta is a 2D pointer movement delta.
type PointerDelta struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// HoloFrame is the optional pose payload shared between wearable and
// holographic telemetry paths.
type HoloFrame struct {
	Quaternion  [4]float64     `json:"quaternion"`
	Translation [3]float64     `json:"translation"`
	Surface     string         `json:"surface"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// MinimalParameters is the canonical payload unit carried by every
// input-type envelope.
type MinimalParameters struct {
	PointerDelta PointerDelta `json:"POINTER_DELTA"`
	ZoomDelta    float64      `json:"ZOOM_DELTA"`
	RotDelta     float64      `json:"ROT_DELTA"`
	InputTrigger bool         `json:"INPUT_TRIGGER"`
	HoloFrame    *HoloFrame   `json:"HOLO_FRAME,omitempty"`
}

// EventEnvelope is the event.v1 payload. Type is conventionally one of
// "input", "holo_frame" or "agent" but any non-empty string validates;
// replay hydration emits synthetic types like "observed".
type EventEnvelope struct {
	Type      string            `json:"type"`
	Timestamp float64           `json:"timestamp"`
	Payload   MinimalParameters `json:"payload"`
}

// Bounds is a spatial extent for agent frames.
type Bounds struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Focus names the scene path an agent frame is anchored to.
type Focus struct {
	Path  string `json:"path"`
	Hoist bool   `json:"hoist,omitempty"`
}

// Safety carries the safety envelope for agent frames. RejectionReason is
// empty when no rejection occurred.
type Safety struct {
	SpawnBounds     float64 `json:"spawn_bounds"`
	RateLimit       float64 `json:"rate_limit"`
	RejectionReason string  `json:"rejection_reason"`
}

// AgentFrame is the agent_frame.v1 payload.
type AgentFrame struct {
	Role       string            `json:"role"`
	Goal       string            `json:"goal"`
	SDKSurface string            `json:"sdk_surface"`
	Bounds     Bounds            `json:"bounds"`
	Focus      Focus             `json:"focus"`
	Inputs     MinimalParameters `json:"inputs"`
	Outputs    []string          `json:"outputs"`
	Safety     Safety            `json:"safety"`
	Telemetry  map[string]any    `json:"telemetry,omitempty"`
}

// RenderConfig is the render_config.v1 payload.
type RenderConfig struct {
	Surface  string            `json:"surface"`
	Schema   string            `json:"schema"`
	Inputs   MinimalParameters `json:"inputs"`
	Overlays Overlays          `json:"overlays"`
}

// Overlays carries capability flags for render configs.
type Overlays struct {
	Capability bool `json:"capability"`
}

// Alignment is the pose alignment block of a holo_intent payload.
type Alignment struct {
	Quaternion  [4]float64 `json:"quaternion"`
	Translation [3]float64 `json:"translation"`
}

// HoloIntent is the holo_intent payload binding a render config to a
// holographic alignment.
type HoloIntent struct {
	HoloFrame    string       `json:"holo_frame"`
	SDKSurface   string       `json:"sdk_surface"`
	RenderConfig RenderConfig `json:"render_config"`
	Alignment    Alignment    `json:"alignment"`
}

// HoloFramePayload is the holo_frame.v1 payload: minimal parameters plus a
// full pose frame.
type HoloFramePayload struct {
	Inputs MinimalParameters `json:"inputs"`
	Frame  HoloFrame         `json:"frame"`
}
