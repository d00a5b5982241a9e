// Package bridge routes validated envelopes to downstream integration
// sinks (engine plugins, design-tool overlays, holographic clients)
// while keeping the minimal parameter set and derived metrics visible
// at every hop.
package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/c360/signalbus/envelope"
	"github.com/c360/signalbus/errors"
)

// Session identifies one bridge session: whose signals are flowing and
// which SDK surface and capability overlay they carry. Sessions are
// immutable once handed to a router.
type Session struct {
	ID           string         `json:"session_id"`
	SDKSurface   string         `json:"sdk_surface"`
	Capabilities map[string]any `json:"capabilities"`
	StartedAt    time.Time      `json:"-"`
}

// NewSession creates a session stamped with the current time.
func NewSession(id, sdkSurface string, capabilities map[string]any) Session {
	return Session{
		ID:           id,
		SDKSurface:   sdkSurface,
		Capabilities: capabilities,
		StartedAt:    time.Now().UTC(),
	}
}

// Metadata returns the session fields that accompany every dispatch,
// keyed the way they appear on the wire.
func (s Session) Metadata() map[string]any {
	return map[string]any{
		"session_id":   s.ID,
		"sdk_surface":  s.SDKSurface,
		"capabilities": s.Capabilities,
	}
}

// Dispatch is one routed envelope: the validated payload plus the
// minimal parameters, derived metrics, and session context extracted
// at dispatch time. Sinks receive the same Dispatch value and must not
// mutate it.
type Dispatch struct {
	Kind      string                  `json:"kind"`
	Payload   json.RawMessage         `json:"payload"`
	Minimal   map[string]any          `json:"minimal"`
	Derived   envelope.DerivedMetrics `json:"derived"`
	Session   Session                 `json:"context"`
	BridgedAt time.Time               `json:"bridged_at"`
}

// Sink is a downstream destination for dispatched envelopes. Send
// blocks until the dispatch is handed to the transport or ctx is done;
// implementations must be safe for concurrent use.
type Sink interface {
	Name() string
	Send(ctx context.Context, d *Dispatch) error
}

// rawPayload normalizes the payload forms accepted by Dispatch into
// raw JSON, mirroring what the validator accepts.
func rawPayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case json.RawMessage:
		return p, nil
	case []byte:
		return json.RawMessage(p), nil
	case string:
		return json.RawMessage(p), nil
	default:
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Dispatch", "rawPayload", "marshal payload")
		}
		return raw, nil
	}
}
