package toolloop

import (
	"encoding/json"
	"maps"
	"reflect"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
)

// Extractor provides JSON Schema generation and layered validation (coercion, schema,
// Validatable) for argument type T without binding to the Tool interface. Use it in
// custom orchestrators that need schema export and validated parsing only.
type Extractor[T any] struct {
	schemaMap map[string]any
	resolved  *jsonschema.Resolved
	params    []Param
}

// NewExtractor creates an Extractor for struct type T. When strict is true, the generated
// schema has additionalProperties: false for all objects.
func NewExtractor[T any](strict bool) (*Extractor[T], error) {
	schemaMap, resolved, params, err := generateSchema[T](strict)
	if err != nil {
		return nil, err
	}
	return &Extractor[T]{
		schemaMap: schemaMap,
		resolved:  resolved,
		params:    params,
	}, nil
}

// Schema returns a shallow copy of the JSON Schema (top-level keys only).
// Nested maps are shared; callers must not mutate them.
func (e *Extractor[T]) Schema() map[string]any {
	return maps.Clone(e.schemaMap)
}

// Params returns the params derived from T in field order.
func (e *Extractor[T]) Params() []Param {
	return slices.Clone(e.params)
}

// ParseAndValidate coerces argsJSON against the params of T, runs schema validation,
// deserializes into T and finally runs Validatable.Validate() if T implements it.
// All failures are ArgumentError (or a tool-level error returned by Validate) so the
// caller can pass the message back to the model for self-correction.
func (e *Extractor[T]) ParseAndValidate(argsJSON []byte) (T, error) {
	var zero T
	raw, err := decodeArgs(argsJSON)
	if err != nil {
		return zero, err
	}
	args, err := Coerce(e.params, raw)
	if err != nil {
		return zero, err
	}
	return e.fromArgs(args)
}

func (e *Extractor[T]) fromArgs(args Args) (T, error) {
	var zero T
	if err := validateAgainstSchema(e.resolved, args); err != nil {
		return zero, err
	}
	data, err := json.Marshal(args)
	if err != nil {
		return zero, &ArgumentError{Reason: err.Error()}
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, &ArgumentError{Reason: "json parse error: " + err.Error()}
	}
	if err := runLayer2Validation(out); err != nil {
		return zero, asArgumentError(err)
	}
	return out, nil
}

// runLayer2Validation runs Validatable.Validate() on args; if args does not implement Validatable,
// it tries &args for value types (pointer receiver). Never calls Validate twice for the same receiver.
func runLayer2Validation[T any](args T) error {
	if _, ok := any(args).(Validatable); ok {
		return validateCustom(any(args))
	}
	typ := reflect.TypeOf(args)
	if typ == nil || typ.Kind() == reflect.Pointer {
		return nil
	}
	return validateCustom(any(&args))
}
