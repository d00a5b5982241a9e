package bridge

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/signalbus/envelope"
	"github.com/c360/signalbus/errors"
)

func minimalParams() map[string]any {
	return map[string]any{
		"POINTER_DELTA": map[string]any{"dx": 0.3, "dy": 0.4},
		"ZOOM_DELTA":    1.5,
		"ROT_DELTA":     -0.25,
		"INPUT_TRIGGER": true,
	}
}

func eventPayload() map[string]any {
	return map[string]any{
		"type":      "input",
		"timestamp": 101.0,
		"payload":   minimalParams(),
	}
}

func agentFramePayload() map[string]any {
	return map[string]any{
		"role":        "navigator",
		"goal":        "align holographic anchor",
		"sdk_surface": "holographic",
		"bounds":      map[string]any{"x": 1, "y": 1, "z": 1},
		"focus":       map[string]any{"path": "holographic.scene:anchor/base"},
		"inputs":      minimalParams(),
		"outputs":     []any{"render.intent.apply"},
		"safety": map[string]any{
			"spawn_bounds":     10,
			"rate_limit":       5,
			"rejection_reason": "",
		},
	}
}

func holoIntentPayload() map[string]any {
	return map[string]any{
		"holo_frame":  "frame-1",
		"sdk_surface": "holographic",
		"render_config": map[string]any{
			"surface": "web",
			"schema":  "render_config.v1",
			"inputs":  minimalParams(),
			"overlays": map[string]any{
				"capability": true,
			},
		},
		"alignment": map[string]any{
			"quaternion":  []any{0.0, 0.0, 0.0, 1.0},
			"translation": []any{0.0, 0.0, 0.0},
		},
	}
}

func testSession() Session {
	return NewSession("session-1", "wearable", map[string]any{
		"backend": "cpu",
		"schema":  "event.v1",
	})
}

// errorSink fails every send with a fixed error.
type errorSink struct {
	name string
	err  error
}

func (s *errorSink) Name() string { return s.name }

func (s *errorSink) Send(context.Context, *Dispatch) error { return s.err }

func TestNewRouter(t *testing.T) {
	router := NewRouter()

	assert.Empty(t, router.Sinks())
	assert.Equal(t, RouterStats{}, router.Stats())
}

func TestRouter_AddSink(t *testing.T) {
	router := NewRouter()

	require.NoError(t, router.AddSink(NewMemorySink("unity")))
	require.NoError(t, router.AddSink(NewMemorySink("overlay")))
	require.NoError(t, router.AddSink(NewMemorySink("holo")))

	assert.Equal(t, []string{"unity", "overlay", "holo"}, router.Sinks())
}

func TestRouter_AddSink_DuplicateName(t *testing.T) {
	router := NewRouter()
	require.NoError(t, router.AddSink(NewMemorySink("unity")))

	err := router.AddSink(NewMemorySink("unity"))
	if !stderrors.Is(err, errors.ErrDuplicateSink) {
		t.Errorf("expected ErrDuplicateSink, got %v", err)
	}
	assert.True(t, errors.IsInvalid(err))
	assert.Equal(t, []string{"unity"}, router.Sinks())
}

func TestRouter_AddSink_EmptyName(t *testing.T) {
	router := NewRouter()

	err := router.AddSink(NewMemorySink(""))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Empty(t, router.Sinks())
}

func TestRouter_Dispatch_RoutesToAllSinks(t *testing.T) {
	unity := NewMemorySink("unity")
	overlay := NewMemorySink("overlay")
	router := NewRouter()
	require.NoError(t, router.AddSink(unity))
	require.NoError(t, router.AddSink(overlay))

	session := testSession()
	err := router.Dispatch(context.Background(), envelope.KindEvent, eventPayload(), session)
	require.NoError(t, err)

	require.Equal(t, 1, unity.Len())
	require.Equal(t, 1, overlay.Len())

	d := unity.Received()[0]
	assert.Equal(t, envelope.KindEvent, d.Kind)
	assert.Equal(t, session, d.Session)
	assert.False(t, d.BridgedAt.IsZero())
	assert.InDelta(t, 0.5, d.Derived.PointerNorm, 1e-9)
	assert.InDelta(t, 1.5, d.Derived.ZoomDelta, 1e-9)
	assert.True(t, d.Derived.Triggered)
	assert.Contains(t, d.Minimal, "ZOOM_DELTA")

	var payload map[string]any
	require.NoError(t, json.Unmarshal(d.Payload, &payload))
	assert.Equal(t, 101.0, payload["timestamp"])

	// Both sinks see the same dispatch value.
	assert.Same(t, d, overlay.Received()[0])

	assert.Equal(t, RouterStats{Dispatches: 1}, router.Stats())
}

func TestRouter_Dispatch_PayloadForms(t *testing.T) {
	raw, err := json.Marshal(eventPayload())
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload any
	}{
		{"map", eventPayload()},
		{"raw message", json.RawMessage(raw)},
		{"bytes", raw},
		{"string", string(raw)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := NewMemorySink("unity")
			router := NewRouter()
			require.NoError(t, router.AddSink(sink))

			err := router.Dispatch(context.Background(), envelope.KindEvent, tt.payload, testSession())
			require.NoError(t, err)
			require.Equal(t, 1, sink.Len())
			assert.Equal(t, envelope.KindEvent, sink.Received()[0].Kind)
		})
	}
}

func TestRouter_Dispatch_InvalidPayloadRejected(t *testing.T) {
	sink := NewMemorySink("unity")
	router := NewRouter()
	require.NoError(t, router.AddSink(sink))

	payload := eventPayload()
	delete(payload, "timestamp")

	err := router.Dispatch(context.Background(), envelope.KindEvent, payload, testSession())
	require.Error(t, err)

	var verr *envelope.ValidationError
	if !stderrors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	assert.Equal(t, 0, sink.Len())
	assert.Equal(t, RouterStats{Failures: 1}, router.Stats())
}

func TestRouter_Dispatch_UnknownKind(t *testing.T) {
	router := NewRouter()
	require.NoError(t, router.AddSink(NewMemorySink("unity")))

	err := router.Dispatch(context.Background(), "telemetry.v9", eventPayload(), testSession())
	if !stderrors.Is(err, errors.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestRouter_Dispatch_HoloIntentNestedInputs(t *testing.T) {
	sink := NewMemorySink("holo")
	router := NewRouter()
	require.NoError(t, router.AddSink(sink))

	err := router.Dispatch(context.Background(), envelope.KindHoloIntent, holoIntentPayload(), testSession())
	require.NoError(t, err)

	require.Equal(t, 1, sink.Len())
	d := sink.Received()[0]
	assert.InDelta(t, 0.5, d.Derived.PointerNorm, 1e-9)
	assert.Contains(t, d.Minimal, "POINTER_DELTA")
}

func TestRouter_Dispatch_AgentFrameCarriesCapabilities(t *testing.T) {
	sink := NewMemorySink("agent")
	router := NewRouter()
	require.NoError(t, router.AddSink(sink))

	session := testSession()
	err := router.Dispatch(context.Background(), envelope.KindAgentFrame, agentFramePayload(), session)
	require.NoError(t, err)

	require.Equal(t, 1, sink.Len())
	assert.Equal(t, session.Capabilities, sink.Received()[0].Session.Capabilities)
}

func TestRouter_Dispatch_SinkErrorSurfaced(t *testing.T) {
	sendErr := errors.WrapTransient(errors.ErrPublishFailed, "errorSink", "Send", "test failure")
	failing := &errorSink{name: "failing", err: sendErr}
	memory := NewMemorySink("memory")

	router := NewRouter()
	require.NoError(t, router.AddSink(failing))
	require.NoError(t, router.AddSink(memory))

	err := router.Dispatch(context.Background(), envelope.KindEvent, eventPayload(), testSession())
	if !stderrors.Is(err, errors.ErrPublishFailed) {
		t.Errorf("expected ErrPublishFailed, got %v", err)
	}

	// A failing sink never blocks delivery to its siblings.
	assert.Equal(t, 1, memory.Len())
	assert.Equal(t, RouterStats{Failures: 1}, router.Stats())
}

func TestRouter_Dispatch_NoSinks(t *testing.T) {
	router := NewRouter()

	err := router.Dispatch(context.Background(), envelope.KindEvent, eventPayload(), testSession())
	require.NoError(t, err)
	assert.Equal(t, RouterStats{Dispatches: 1}, router.Stats())
}

func TestSessionJSONShape(t *testing.T) {
	session := testSession()

	data, err := json.Marshal(session)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "session-1", decoded["session_id"])
	assert.Equal(t, "wearable", decoded["sdk_surface"])
	assert.NotContains(t, decoded, "started_at")
	assert.NotContains(t, decoded, "StartedAt")
}

func TestSessionMetadata(t *testing.T) {
	session := testSession()

	meta := session.Metadata()
	assert.Equal(t, "session-1", meta["session_id"])
	assert.Equal(t, "wearable", meta["sdk_surface"])
	assert.Equal(t, session.Capabilities, meta["capabilities"])
	assert.NotContains(t, meta, "started_at")
}
