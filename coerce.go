package toolloop

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coerce converts raw (untyped JSON data as sent by the Model Endpoint) into Args
// according to params. Numeric strings become numbers, numbers become strings when
// a string is declared, and so on; values of an incompatible shape (objects into
// primitives, arrays into scalars) are rejected with an ArgumentError naming the
// field, the expected kind and what was received.
//
// Fields not declared in params are carried over untouched so that schema
// validation can reject them in strict mode. Coerce is idempotent: coercing an
// Args value it produced returns an equal record.
func Coerce(params []Param, raw map[string]any) (Args, error) {
	out := make(Args, len(raw))
	declared := make(map[string]struct{}, len(params))
	for _, p := range params {
		declared[p.Name] = struct{}{}
		v, ok := raw[p.Name]
		if !ok || v == nil {
			if p.Optional {
				continue
			}
			received := "missing"
			if ok {
				received = "null"
			}
			return nil, &ArgumentError{Field: p.Name, Expected: p.Kind.String(), Received: received}
		}
		c, err := coerceValue(p.Name, p.Kind, v)
		if err != nil {
			return nil, err
		}
		out[p.Name] = c
	}
	for k, v := range raw {
		if _, ok := declared[k]; !ok {
			out[k] = v
		}
	}
	return out, nil
}

func coerceValue(field string, kind Kind, v any) (any, error) {
	var (
		c  any
		ok bool
	)
	switch kind {
	case KindString:
		c, ok = toString(v)
	case KindInteger:
		c, ok = toInt(v)
	case KindFloat:
		c, ok = toFloat(v)
	case KindBoolean:
		c, ok = toBool(v)
	case KindStringList:
		return toStringList(field, v)
	}
	if !ok {
		return nil, &ArgumentError{Field: field, Expected: kind.String(), Received: describe(v)}
	}
	return c, nil
}

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case json.Number:
		return x.String(), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	}
	return "", false
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		return integralFloat(x)
	case float32:
		return integralFloat(float64(x))
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return integralFloat(f)
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return integralFloat(f)
	}
	return 0, false
}

func integralFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	}
	return false, false
}

// toStringList accepts string arrays, arrays of primitives and a single bare string.
func toStringList(field string, v any) ([]string, error) {
	switch x := v.(type) {
	case []string:
		return append([]string{}, x...), nil
	case string:
		return []string{x}, nil
	case []any:
		out := make([]string, len(x))
		for i, item := range x {
			s, ok := toString(item)
			if !ok {
				return nil, &ArgumentError{
					Field:    fmt.Sprintf("%s[%d]", field, i),
					Expected: KindString.String(),
					Received: describe(item),
				}
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, &ArgumentError{Field: field, Expected: KindStringList.String(), Received: describe(v)}
}

// describe names the JSON shape of v for error messages.
func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		if len(x) > 32 {
			x = x[:32] + "..."
		}
		return fmt.Sprintf("string %q", x)
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64, uint32, uint64, json.Number:
		return fmt.Sprintf("number %v", x)
	case []any, []string:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
