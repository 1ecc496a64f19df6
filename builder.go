package toolloop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolSpec is the explicit declaration of a tool, built once at startup.
type ToolSpec struct {
	Name        string
	Description string
	// Params is the ordered parameter schema shown to the model and enforced by Coerce.
	Params []Param
	// Invoke is called with validated arguments. Returning a string or []byte uses it
	// verbatim as the observation; any other value is marshaled to JSON.
	Invoke func(ctx context.Context, args Args) (any, error)
	// Validate optionally runs business checks after coercion and schema validation.
	Validate func(args Args) error
}

// tool is the internal implementation of Tool built by NewTool or NewTypedTool.
type tool struct {
	name        string
	description string
	params      []Param
	schema      map[string]any
	execute     func(context.Context, []byte) ([]byte, error)
	opts        toolOptions
}

// NewTool builds a Tool from an explicit ToolSpec. Execute decodes the payload, coerces
// it with Coerce, validates it against the declared schema, runs spec.Validate and
// finally calls spec.Invoke exactly once.
func NewTool(spec ToolSpec, opts ...ToolOption) (Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	if spec.Name == "" {
		return nil, errors.New("tool name must not be empty")
	}
	if spec.Invoke == nil {
		return nil, fmt.Errorf("tool %q: invoke function must not be nil", spec.Name)
	}
	if err := validateParams(spec.Params); err != nil {
		return nil, fmt.Errorf("tool %q: %w", spec.Name, err)
	}
	params := slices.Clone(spec.Params)
	schemaMap := declaredSchema(params, o.strict)
	resolved, err := compileRawSchema(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("tool %q: compile schema: %w", spec.Name, err)
	}
	execute := func(ctx context.Context, argsJSON []byte) ([]byte, error) {
		args, err := parseArgs(params, resolved, argsJSON)
		if err != nil {
			return nil, err
		}
		if spec.Validate != nil {
			if err := spec.Validate(args); err != nil {
				return nil, asArgumentError(err)
			}
		}
		res, err := spec.Invoke(ctx, args)
		if err != nil {
			return nil, wrapHandlerError(err)
		}
		return renderResult(res)
	}
	return &tool{
		name:        spec.Name,
		description: spec.Description,
		params:      params,
		schema:      schemaMap,
		execute:     execute,
		opts:        o,
	}, nil
}

// NewTypedTool builds a Tool from a typed function. Params and schema are reflected
// from struct T (see Extractor). Execute runs ParseAndValidate, fn, then renders the result.
// Returns an error if schema generation fails (e.g. unsupported field type).
func NewTypedTool[T any, R any](
	name, description string,
	fn func(ctx context.Context, args T) (R, error),
	opts ...ToolOption,
) (Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	if name == "" {
		return nil, errors.New("tool name must not be empty")
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %q: handler must not be nil", name)
	}
	ext, err := NewExtractor[T](o.strict)
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", name, err)
	}
	execute := func(ctx context.Context, argsJSON []byte) ([]byte, error) {
		args, err := ext.ParseAndValidate(argsJSON)
		if err != nil {
			return nil, err
		}
		res, err := fn(ctx, args)
		if err != nil {
			return nil, wrapHandlerError(err)
		}
		return renderResult(res)
	}
	return &tool{
		name:        name,
		description: description,
		params:      ext.Params(),
		schema:      ext.Schema(),
		execute:     execute,
		opts:        o,
	}, nil
}

// ParseArgs decodes argsJSON and coerces it against params. It is the validation
// adapter without schema enforcement, for callers that hold only a parameter list.
func ParseArgs(params []Param, argsJSON []byte) (Args, error) {
	raw, err := decodeArgs(argsJSON)
	if err != nil {
		return nil, err
	}
	return Coerce(params, raw)
}

func parseArgs(params []Param, resolved *jsonschema.Resolved, argsJSON []byte) (Args, error) {
	args, err := ParseArgs(params, argsJSON)
	if err != nil {
		return nil, err
	}
	if err := validateAgainstSchema(resolved, args); err != nil {
		return nil, err
	}
	return args, nil
}

// renderResult turns a handler result into observation bytes.
func renderResult(res any) ([]byte, error) {
	switch v := res.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return nil, &SystemError{Err: err}
	}
	return b, nil
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }
func (t *tool) Params() []Param     { return slices.Clone(t.params) }

// Parameters returns a shallow copy of the JSON Schema (top-level keys only).
// Nested maps (e.g. under "properties") are shared; callers must not mutate them.
func (t *tool) Parameters() map[string]any { return maps.Clone(t.schema) }

func (t *tool) Execute(ctx context.Context, argsJSON []byte) ([]byte, error) {
	return t.execute(ctx, argsJSON)
}

func (t *tool) Timeout() time.Duration { return t.opts.timeout }
func (t *tool) Tags() []string         { return append([]string(nil), t.opts.tags...) }

var (
	_ Tool         = (*tool)(nil)
	_ ToolMetadata = (*tool)(nil)
)
