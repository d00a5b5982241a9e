// Package envelope defines the telemetry envelope kinds accepted by Signal Bus
// and validates their payloads against embedded JSON Schemas.
//
// # Overview
//
// Every message entering the bus is an envelope: a kind string paired with a
// JSON payload. The package knows a closed set of kinds (event.v1,
// agent_frame.v1, render_config.v1, holo_intent, holo_frame.v1), validates
// payloads structurally, extracts the minimal parameter block each kind
// carries, and derives scalar motion metrics from it.
//
// # Quick Start
//
// Parsing and validating an incoming frame:
//
//	env, err := envelope.ParseEnvelope(data)
//	if err != nil {
//		return err
//	}
//	if err := envelope.AssertValid(env.Kind, env.Payload); err != nil {
//		var verr *envelope.ValidationError
//		if errors.As(err, &verr) {
//			log.Printf("rejected %s: %v", env.Kind, verr.Errors)
//		}
//		return err
//	}
//
// Extracting minimal parameters and deriving metrics:
//
//	minimal, err := envelope.ExtractMinimal(env.Kind, env.Payload)
//	if err != nil {
//		return err
//	}
//	derived := envelope.Derived(minimal)
//	log.Printf("pointer_norm=%.2f triggered=%v", derived.PointerNorm, derived.Triggered)
//
// # Validation
//
// Validation is schema-driven. Each kind has a draft-07 JSON Schema embedded
// in the binary; schemas are compiled once on first use. Validate collects
// every violation in a payload rather than stopping at the first, so a caller
// sees all missing fields in one pass:
//
//	result, err := envelope.Validate(envelope.KindAgentFrame, payload)
//	if err != nil {
//		return err // unknown kind or unparseable payload
//	}
//	if !result.Valid {
//		for _, v := range result.Errors {
//			log.Println(v)
//		}
//	}
//
// Unknown kinds are reported through errors.ErrUnknownKind and are distinct
// from payload validation failures, which surface as *ValidationError.
//
// # Minimal Parameters
//
// Each kind stores its minimal parameter block at a different path. The
// extraction dispatch mirrors the envelope registry:
//
//	event.v1         payload.payload
//	agent_frame.v1   inputs
//	render_config.v1 inputs
//	holo_intent      render_config.inputs
//	holo_frame.v1    inputs
//
// Missing blocks extract as an empty map, never an error, so downstream
// consumers always receive a usable value.
package envelope
