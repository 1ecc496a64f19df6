package toolloop

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

var errNilSchema = errors.New("schema reflection returned nil")

// declaredSchema builds the object schema shown to the Model Endpoint for params.
// The required list follows declaration order.
func declaredSchema(params []Param, strict bool) map[string]any {
	props := make(map[string]any, len(params))
	required := make([]any, 0, len(params))
	for _, p := range params {
		props[p.Name] = p.schema()
		if !p.Optional {
			required = append(required, p.Name)
		}
	}
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	if strict {
		applyStrictMode(s)
	}
	return s
}

// generateSchema produces a JSON Schema map, a resolved validator and the declared
// params for type T. It is called once when building a typed Tool. strict sets
// additionalProperties: false for all objects (OpenAI Structured Outputs).
func generateSchema[T any](strict bool) (map[string]any, *jsonschema.Resolved, []Param, error) {
	typ := reflect.TypeFor[T]()
	params, err := paramsFromStruct(typ)
	if err != nil {
		return nil, nil, nil, err
	}
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, nil, nil, err
	}
	if schema == nil {
		return nil, nil, nil, errNilSchema
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, nil, nil, err
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(data, &schemaMap); err != nil {
		return nil, nil, nil, err
	}
	enrichSchemaFromStructTags(schemaMap, typ)
	if strict {
		applyStrictMode(schemaMap)
	} else {
		relaxObjects(schemaMap)
	}
	stripSchemaIDs(schemaMap)
	resolved, err := compileRawSchema(schemaMap)
	if err != nil {
		return nil, nil, nil, err
	}
	return schemaMap, resolved, params, nil
}

// paramsFromStruct derives declared params from the exported, json-tagged fields of
// a struct type, in field order. Fields tagged omitempty are optional.
func paramsFromStruct(typ reflect.Type) ([]Param, error) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("argument type %s is not a struct", typ)
	}
	var params []Param
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		kind, err := kindOf(field.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		desc := field.Tag.Get("description")
		if desc == "" {
			desc = field.Tag.Get("jsonschema")
		}
		params = append(params, Param{
			Name:        name,
			Kind:        kind,
			Description: desc,
			Optional:    slices.Contains(strings.Split(opts, ","), "omitempty"),
		})
	}
	return params, nil
}

func kindOf(t reflect.Type) (Kind, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return KindString, nil
	case reflect.Bool:
		return KindBoolean, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInteger, nil
	case reflect.Float32, reflect.Float64:
		return KindFloat, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.String {
			return KindStringList, nil
		}
	}
	return 0, fmt.Errorf("unsupported parameter type %s", t)
}

// enrichSchemaFromStructTags adds description and enum from struct tags to root-level properties.
// typ may be a pointer; json tag (first part before comma) is used to match property keys.
func enrichSchemaFromStructTags(schemaMap map[string]any, typ reflect.Type) {
	if schemaMap == nil || typ == nil {
		return
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return
	}
	props, ok := schemaMap["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return
	}
	for i := range typ.NumField() {
		field := typ.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		if enumStr := field.Tag.Get("enum"); enumStr != "" {
			parts := strings.Split(enumStr, ",")
			enum := make([]any, len(parts))
			for i, p := range parts {
				enum[i] = strings.TrimSpace(p)
			}
			prop["enum"] = enum
		}
	}
}

// walkSchema recursively visits every map node in the schema tree (including $defs and definitions).
func walkSchema(schemaMap map[string]any, visit func(map[string]any)) {
	if schemaMap == nil {
		return
	}
	visit(schemaMap)
	for _, val := range schemaMap {
		switch v := val.(type) {
		case map[string]any:
			walkSchema(v, visit)
		case []any:
			for _, item := range v {
				if m2, ok := item.(map[string]any); ok {
					walkSchema(m2, visit)
				}
			}
		}
	}
}

// applyStrictMode sets additionalProperties: false for every object in the schema.
func applyStrictMode(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		if _, isObj := n["properties"]; isObj {
			n["additionalProperties"] = false
		}
	})
}

// relaxObjects drops the additionalProperties: false that reflection adds to structs,
// so typed tools ignore undeclared arguments unless they are strict.
func relaxObjects(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		if ap, ok := n["additionalProperties"].(bool); ok && !ap {
			delete(n, "additionalProperties")
		}
	})
}

// compileRawSchema compiles a raw JSON Schema map into a resolved validator. The map is not mutated.
func compileRawSchema(schemaMap map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}

// stripSchemaIDs removes id and $id from schema so resolution does not depend on them.
func stripSchemaIDs(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		delete(n, "id")
		delete(n, "$id")
	})
}
