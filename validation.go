package toolloop

import (
	"bytes"
	"encoding/json"
)

// Validatable is implemented by argument structs that need custom business validation.
// Called after coercion, schema validation and unmarshaling.
type Validatable interface {
	Validate() error
}

// schemaValidator validates a JSON-like value (e.g. map[string]any from json.Unmarshal).
// *jsonschema.Resolved implements it.
type schemaValidator interface {
	Validate(v any) error
}

// decodeArgs parses the raw argument payload. An empty payload is an empty object.
// Numbers are kept as json.Number so that large integers survive coercion.
func decodeArgs(argsJSON []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(argsJSON)) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(argsJSON))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ArgumentError{Reason: "json parse error: " + err.Error()}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &ArgumentError{Reason: "expected a JSON object, got " + describe(v)}
	}
	return m, nil
}

// validateAgainstSchema runs Layer 1 validation on the coerced record. The record is
// round-tripped through JSON so the validator sees plain JSON values.
func validateAgainstSchema(validate schemaValidator, args Args) error {
	data, err := json.Marshal(args)
	if err != nil {
		return &ArgumentError{Reason: err.Error()}
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return &ArgumentError{Reason: err.Error()}
	}
	if err := validate.Validate(v); err != nil {
		return &ArgumentError{Reason: err.Error()}
	}
	return nil
}

// validateCustom runs Layer 2 (Validatable) if args implements it.
func validateCustom(args any) error {
	if v, ok := args.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// asArgumentError keeps tool-level errors and wraps anything else returned by a
// custom validator as an ArgumentError.
func asArgumentError(err error) error {
	if err == nil || IsToolError(err) {
		return err
	}
	return &ArgumentError{Reason: err.Error()}
}
