package toolloop

import (
	"fmt"
	"slices"
)

// Kind is the declared type of a tool parameter.
type Kind int

const (
	KindString Kind = iota + 1
	KindInteger
	KindFloat
	KindStringList
	KindBoolean
)

// String returns the JSON Schema flavoured name of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "number"
	case KindStringList:
		return "array of string"
	case KindBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Param declares one tool parameter. Parameters are required unless Optional is set.
type Param struct {
	Name        string
	Kind        Kind
	Description string
	Optional    bool
}

// schema returns the JSON Schema property for the parameter.
func (p Param) schema() map[string]any {
	var s map[string]any
	switch p.Kind {
	case KindString:
		s = map[string]any{"type": "string"}
	case KindInteger:
		s = map[string]any{"type": "integer"}
	case KindFloat:
		s = map[string]any{"type": "number"}
	case KindBoolean:
		s = map[string]any{"type": "boolean"}
	case KindStringList:
		s = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	}
	if p.Description != "" {
		s["description"] = p.Description
	}
	return s
}

func validateParams(params []Param) error {
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if p.Name == "" {
			return fmt.Errorf("parameter name must not be empty")
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.Kind < KindString || p.Kind > KindBoolean {
			return fmt.Errorf("parameter %q: unsupported %s", p.Name, p.Kind)
		}
	}
	return nil
}

// Args is a typed argument record produced by Coerce. Values are string, int64,
// float64, []string or bool according to the declared Kind; optional parameters
// that were not supplied are absent.
type Args map[string]any

// Has reports whether the argument was supplied.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns a KindString argument or "".
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns a KindInteger argument or 0.
func (a Args) Int(name string) int64 {
	n, _ := a[name].(int64)
	return n
}

// Float returns a KindFloat argument or 0.
func (a Args) Float(name string) float64 {
	f, _ := a[name].(float64)
	return f
}

// Strings returns a copy of a KindStringList argument or nil.
func (a Args) Strings(name string) []string {
	s, _ := a[name].([]string)
	return slices.Clone(s)
}

// Bool returns a KindBoolean argument or false.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}
