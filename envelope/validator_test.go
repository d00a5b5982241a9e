package envelope

import (
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360/signalbus/errors"
)

func minimalParams() map[string]any {
	return map[string]any{
		"POINTER_DELTA": map[string]any{"dx": 0.1, "dy": -0.2},
		"ZOOM_DELTA":    1.0,
		"ROT_DELTA":     0.0,
		"INPUT_TRIGGER": true,
	}
}

func eventPayload() map[string]any {
	return map[string]any{
		"type":      "input",
		"timestamp": 123.4,
		"payload":   minimalParams(),
	}
}

func agentFramePayload() map[string]any {
	return map[string]any{
		"role":        "navigator",
		"goal":        "stabilize overlay",
		"sdk_surface": "wearable",
		"bounds":      map[string]any{"x": 1, "y": 1, "z": 1},
		"focus":       map[string]any{"path": "holographic.scene:anchor/base"},
		"inputs":      minimalParams(),
		"outputs":     []any{"render.intent.apply", "safety.log"},
		"safety": map[string]any{
			"spawn_bounds":     10,
			"rate_limit":       5,
			"rejection_reason": "",
		},
	}
}

func renderConfigPayload() map[string]any {
	return map[string]any{
		"surface":  "web",
		"schema":   "render_config.v1",
		"inputs":   minimalParams(),
		"overlays": map[string]any{"capability": true},
	}
}

func holoIntentPayload() map[string]any {
	return map[string]any{
		"holo_frame":    "frame-1",
		"sdk_surface":   "holographic",
		"render_config": renderConfigPayload(),
		"alignment": map[string]any{
			"quaternion":  []any{0, 0, 0, 1},
			"translation": []any{0, 0, 0},
		},
	}
}

func holoFramePayload() map[string]any {
	return map[string]any{
		"inputs": minimalParams(),
		"frame": map[string]any{
			"quaternion":  []any{0, 0, 0, 1},
			"translation": []any{0.5, 1.0, 1.5},
			"surface":     "holographic",
		},
	}
}

func TestValidate_AllKinds(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		payload map[string]any
	}{
		{"event", KindEvent, eventPayload()},
		{"agent frame", KindAgentFrame, agentFramePayload()},
		{"render config", KindRenderConfig, renderConfigPayload()},
		{"holo intent", KindHoloIntent, holoIntentPayload()},
		{"holo frame", KindHoloFrame, holoFramePayload()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate(tt.kind, tt.payload)
			require.NoError(t, err)
			if !result.Valid {
				t.Errorf("expected valid payload, got violations: %v", result.Errors)
			}
		})
	}
}

func TestValidate_RawPayload(t *testing.T) {
	raw, err := json.Marshal(eventPayload())
	require.NoError(t, err)

	result, err := Validate(KindEvent, json.RawMessage(raw))
	require.NoError(t, err)
	if !result.Valid {
		t.Errorf("expected valid raw payload, got violations: %v", result.Errors)
	}
}

func TestValidate_MissingMinimalField(t *testing.T) {
	tests := []struct {
		name    string
		missing string
	}{
		{"missing pointer delta", "POINTER_DELTA"},
		{"missing zoom delta", "ZOOM_DELTA"},
		{"missing rot delta", "ROT_DELTA"},
		{"missing input trigger", "INPUT_TRIGGER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := eventPayload()
			params := payload["payload"].(map[string]any)
			delete(params, tt.missing)

			result, err := Validate(KindEvent, payload)
			require.NoError(t, err)
			if result.Valid {
				t.Fatal("expected validation failure")
			}
			if !strings.Contains(strings.Join(result.Errors, "; "), tt.missing) {
				t.Errorf("violations %v do not name missing field %s", result.Errors, tt.missing)
			}
		})
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	payload := agentFramePayload()
	delete(payload, "role")
	delete(payload, "goal")
	params := payload["inputs"].(map[string]any)
	delete(params, "INPUT_TRIGGER")

	result, err := Validate(KindAgentFrame, payload)
	require.NoError(t, err)
	if result.Valid {
		t.Fatal("expected validation failure")
	}
	if len(result.Errors) < 3 {
		t.Errorf("expected at least 3 violations, got %d: %v", len(result.Errors), result.Errors)
	}

	joined := strings.Join(result.Errors, "; ")
	for _, field := range []string{"role", "goal", "INPUT_TRIGGER"} {
		if !strings.Contains(joined, field) {
			t.Errorf("violations missing field %s: %v", field, result.Errors)
		}
	}
}

func TestValidate_WhitespaceStrings(t *testing.T) {
	payload := agentFramePayload()
	payload["role"] = "   "

	result, err := Validate(KindAgentFrame, payload)
	require.NoError(t, err)
	if result.Valid {
		t.Fatal("whitespace-only role should not validate")
	}
}

func TestValidate_QuaternionLength(t *testing.T) {
	payload := holoIntentPayload()
	payload["alignment"] = map[string]any{
		"quaternion":  []any{0, 0, 0},
		"translation": []any{0, 0, 0},
	}

	result, err := Validate(KindHoloIntent, payload)
	require.NoError(t, err)
	if result.Valid {
		t.Fatal("3-element quaternion should not validate")
	}
	if !strings.Contains(strings.Join(result.Errors, "; "), "quaternion") {
		t.Errorf("violations do not name quaternion: %v", result.Errors)
	}
}

func TestValidate_OptionalFields(t *testing.T) {
	t.Run("holo frame optional in minimal parameters", func(t *testing.T) {
		payload := eventPayload()
		params := payload["payload"].(map[string]any)
		params["HOLO_FRAME"] = map[string]any{
			"quaternion":  []any{0, 0, 0, 1},
			"translation": []any{1, 2, 3},
			"surface":     "wearable",
		}

		result, err := Validate(KindEvent, payload)
		require.NoError(t, err)
		if !result.Valid {
			t.Errorf("HOLO_FRAME should be accepted: %v", result.Errors)
		}
	})

	t.Run("empty rejection reason accepted", func(t *testing.T) {
		result, err := Validate(KindAgentFrame, agentFramePayload())
		require.NoError(t, err)
		if !result.Valid {
			t.Errorf("empty rejection_reason should be accepted: %v", result.Errors)
		}
	})

	t.Run("missing rejection reason accepted", func(t *testing.T) {
		payload := agentFramePayload()
		safety := payload["safety"].(map[string]any)
		delete(safety, "rejection_reason")

		result, err := Validate(KindAgentFrame, payload)
		require.NoError(t, err)
		if !result.Valid {
			t.Errorf("absent rejection_reason should be accepted: %v", result.Errors)
		}
	})
}

func TestValidate_UnknownKind(t *testing.T) {
	_, err := Validate("unsupported", map[string]any{})
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if !stderrors.Is(err, errors.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}

	var verr *ValidationError
	if stderrors.As(err, &verr) {
		t.Error("unknown kind must not surface as a validation error")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("error should name the kind: %v", err)
	}
}

func TestAssertValid(t *testing.T) {
	if err := AssertValid(KindEvent, eventPayload()); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}

	payload := eventPayload()
	params := payload["payload"].(map[string]any)
	delete(params, "ZOOM_DELTA")

	err := AssertValid(KindEvent, payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr *ValidationError
	require.True(t, stderrors.As(err, &verr))
	if verr.Kind != KindEvent {
		t.Errorf("Kind = %s, want %s", verr.Kind, KindEvent)
	}
	if !strings.Contains(err.Error(), "ZOOM_DELTA") {
		t.Errorf("error should name the missing field: %v", err)
	}
	if !stderrors.Is(err, errors.ErrInvalidData) {
		t.Error("validation errors should classify as invalid data")
	}
	if !errors.IsInvalid(err) {
		t.Error("IsInvalid should report true for validation errors")
	}
}

func TestKinds(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 5 {
		t.Fatalf("expected 5 registered kinds, got %d: %v", len(kinds), kinds)
	}

	for _, kind := range []string{KindEvent, KindAgentFrame, KindRenderConfig, KindHoloIntent, KindHoloFrame} {
		if !Known(kind) {
			t.Errorf("Known(%s) = false", kind)
		}
	}
	if Known("unsupported") {
		t.Error("Known(unsupported) = true")
	}
}

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		kind    string
	}{
		{
			name: "valid frame",
			data: `{"kind":"event.v1","payload":{"type":"input","timestamp":1.0,"payload":{}}}`,
			kind: "event.v1",
		},
		{
			name:    "malformed json",
			data:    `{"kind":`,
			wantErr: true,
		},
		{
			name:    "missing kind",
			data:    `{"payload":{}}`,
			wantErr: true,
		},
		{
			name:    "empty frame",
			data:    `{}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected parse error")
				}
				if !stderrors.Is(err, errors.ErrParsingFailed) {
					t.Errorf("expected ErrParsingFailed, got %v", err)
				}
				return
			}
			require.NoError(t, err)
			if env.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", env.Kind, tt.kind)
			}
		})
	}
}

func BenchmarkValidate_Event(b *testing.B) {
	raw, _ := json.Marshal(eventPayload())
	payload := json.RawMessage(raw)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Validate(KindEvent, payload)
	}
}

func BenchmarkValidate_AgentFrame(b *testing.B) {
	raw, _ := json.Marshal(agentFramePayload())
	payload := json.RawMessage(raw)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Validate(KindAgentFrame, payload)
	}
}
