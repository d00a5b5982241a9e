package envelope

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/signalbus/errors"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// schemaFiles maps registered kinds to their embedded schema documents.
// The registry is closed: validation of any kind outside this map is a
// caller error, not a validation failure.
var schemaFiles = map[string]string{
	KindEvent:        "schemas/event.v1.json",
	KindAgentFrame:   "schemas/agent_frame.v1.json",
	KindRenderConfig: "schemas/render_config.v1.json",
	KindHoloIntent:   "schemas/holo_intent.json",
	KindHoloFrame:    "schemas/holo_frame.v1.json",
}

var (
	schemasOnce sync.Once
	schemas     map[string]*gojsonschema.Schema
	schemasErr  error
)

// compiledSchemas compiles the embedded schema documents exactly once.
// A compile failure is a build defect, so it classifies fatal.
func compiledSchemas() (map[string]*gojsonschema.Schema, error) {
	schemasOnce.Do(func() {
		compiled := make(map[string]*gojsonschema.Schema, len(schemaFiles))
		for kind, path := range schemaFiles {
			raw, err := schemaFS.ReadFile(path)
			if err != nil {
				schemasErr = errors.WrapFatal(err, "Validator", "compiledSchemas",
					fmt.Sprintf("read embedded schema %s", path))
				return
			}
			schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
			if err != nil {
				schemasErr = errors.WrapFatal(err, "Validator", "compiledSchemas",
					fmt.Sprintf("compile schema for kind %s", kind))
				return
			}
			compiled[kind] = schema
		}
		schemas = compiled
	})
	return schemas, schemasErr
}

// Kinds returns the registered envelope kinds in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(schemaFiles))
	for kind := range schemaFiles {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Known reports whether kind has a registered schema.
func Known(kind string) bool {
	_, ok := schemaFiles[kind]
	return ok
}

// Result is the outcome of validating a payload against a kind's schema.
// Errors holds one field-path plus message string per violation; all
// violations are collected, not just the first.
type Result struct {
	Valid  bool
	Errors []string
}

// ValidationError reports every schema violation found in a payload.
type ValidationError struct {
	Kind   string
	Errors []string
}

// Error returns the concatenated field-path and message pairs.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s payload invalid: %s", e.Kind, strings.Join(e.Errors, "; "))
}

// Unwrap ties validation failures into the invalid error class.
func (e *ValidationError) Unwrap() error {
	return errors.ErrInvalidData
}

// Validate checks payload against the schema registered for kind. An
// unregistered kind is a distinct caller error (wrapping ErrUnknownKind),
// never reported as a validation failure.
func Validate(kind string, payload any) (Result, error) {
	compiled, err := compiledSchemas()
	if err != nil {
		return Result{}, err
	}

	schema, ok := compiled[kind]
	if !ok {
		return Result{}, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownKind, kind),
			"Validator", "Validate", "resolve schema")
	}

	result, err := schema.Validate(loaderFor(payload))
	if err != nil {
		// gojsonschema only errors here when the payload itself cannot
		// be loaded as JSON.
		return Result{}, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
			"Validator", "Validate", "load payload")
	}

	if result.Valid() {
		return Result{Valid: true}, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return Result{Valid: false, Errors: violations}, nil
}

// AssertValid validates like Validate but returns a descriptive error on
// failure instead of a result. Used at every trust boundary: ingress,
// journal append, replay read, bridge dispatch.
func AssertValid(kind string, payload any) error {
	result, err := Validate(kind, payload)
	if err != nil {
		return err
	}
	if result.Valid {
		return nil
	}
	return &ValidationError{Kind: kind, Errors: result.Errors}
}

// loaderFor picks the cheapest gojsonschema loader for the payload form.
func loaderFor(payload any) gojsonschema.JSONLoader {
	switch p := payload.(type) {
	case json.RawMessage:
		return gojsonschema.NewBytesLoader(p)
	case []byte:
		return gojsonschema.NewBytesLoader(p)
	case string:
		return gojsonschema.NewStringLoader(p)
	default:
		return gojsonschema.NewGoLoader(p)
	}
}
