package toolloop

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce_Kinds(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		in   any
		want any
	}{
		{"string from string", KindString, "AAPL", "AAPL"},
		{"string from number", KindString, 42.5, "42.5"},
		{"string from json number", KindString, json.Number("7"), "7"},
		{"string from bool", KindString, true, "true"},
		{"int from float", KindInteger, 42.0, int64(42)},
		{"int from json number", KindInteger, json.Number("9007199254740993"), int64(9007199254740993)},
		{"int from numeric string", KindInteger, " 17 ", int64(17)},
		{"int from float string", KindInteger, "17.0", int64(17)},
		{"int from int", KindInteger, 5, int64(5)},
		{"float from number", KindFloat, 247.77, 247.77},
		{"float from string", KindFloat, "247.77", 247.77},
		{"float from json number", KindFloat, json.Number("1e3"), 1000.0},
		{"float from int", KindFloat, int64(3), 3.0},
		{"bool from bool", KindBoolean, false, false},
		{"bool from string", KindBoolean, "TRUE", true},
		{"list from any slice", KindStringList, []any{"a", 1.0, true}, []string{"a", "1", "true"}},
		{"list from string slice", KindStringList, []string{"x"}, []string{"x"}},
		{"list from bare string", KindStringList, "solo", []string{"solo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := []Param{{Name: "v", Kind: tt.kind}}
			args, err := Coerce(params, map[string]any{"v": tt.in})
			require.NoError(t, err)
			assert.Equal(t, tt.want, args["v"])
		})
	}
}

func TestCoerce_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		in       any
		field    string
		received string
	}{
		{"object to string", KindString, map[string]any{"a": 1.0}, "v", "object"},
		{"array to string", KindString, []any{"a"}, "v", "array"},
		{"fractional to int", KindInteger, 1.5, "v", "number 1.5"},
		{"word to int", KindInteger, "abc", "v", `string "abc"`},
		{"bool to int", KindInteger, true, "v", "boolean"},
		{"word to float", KindFloat, "twelve", "v", `string "twelve"`},
		{"nan string to float", KindFloat, "NaN", "v", `string "NaN"`},
		{"object to float", KindFloat, map[string]any{}, "v", "object"},
		{"number to bool", KindBoolean, 1.0, "v", "number 1"},
		{"object to list", KindStringList, map[string]any{}, "v", "object"},
		{"nested object in list", KindStringList, []any{"a", map[string]any{}}, "v[1]", "object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Coerce([]Param{{Name: "v", Kind: tt.kind}}, map[string]any{"v": tt.in})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			var ae *ArgumentError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.field, ae.Field)
			assert.Equal(t, tt.received, ae.Received)
			assert.NotEmpty(t, ae.Expected)
		})
	}
}

func TestCoerce_MissingAndOptional(t *testing.T) {
	params := []Param{
		{Name: "ticker", Kind: KindString},
		{Name: "adjusted", Kind: KindBoolean, Optional: true},
	}
	_, err := Coerce(params, map[string]any{})
	var ae *ArgumentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "ticker", ae.Field)
	assert.Equal(t, "missing", ae.Received)

	_, err = Coerce(params, map[string]any{"ticker": nil})
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "null", ae.Received)

	args, err := Coerce(params, map[string]any{"ticker": "AAPL", "adjusted": nil})
	require.NoError(t, err)
	assert.False(t, args.Has("adjusted"))
	assert.Equal(t, "AAPL", args.String("ticker"))
}

func TestCoerce_KeepsUndeclaredFields(t *testing.T) {
	args, err := Coerce([]Param{{Name: "a", Kind: KindString}}, map[string]any{"a": "x", "extra": 1.0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, args["extra"])
}

func TestCoerce_Idempotent(t *testing.T) {
	params := []Param{
		{Name: "s", Kind: KindString},
		{Name: "i", Kind: KindInteger},
		{Name: "f", Kind: KindFloat},
		{Name: "l", Kind: KindStringList},
		{Name: "b", Kind: KindBoolean},
	}
	raw := map[string]any{"s": 12.0, "i": "7", "f": "0.5", "l": []any{"x", 2.0}, "b": "false"}
	first, err := Coerce(params, raw)
	require.NoError(t, err)
	second, err := Coerce(params, map[string]any(first))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCoerce_IntegerBounds(t *testing.T) {
	_, err := Coerce([]Param{{Name: "n", Kind: KindInteger}}, map[string]any{"n": math.Inf(1)})
	require.Error(t, err)
	_, err = Coerce([]Param{{Name: "n", Kind: KindInteger}}, map[string]any{"n": 1e300})
	require.Error(t, err)
}

func TestArgs_Getters(t *testing.T) {
	a := Args{"s": "x", "i": int64(3), "f": 1.5, "l": []string{"a"}, "b": true}
	assert.Equal(t, "x", a.String("s"))
	assert.Equal(t, int64(3), a.Int("i"))
	assert.InDelta(t, 1.5, a.Float("f"), 1e-9)
	assert.Equal(t, []string{"a"}, a.Strings("l"))
	assert.True(t, a.Bool("b"))
	assert.Empty(t, a.String("missing"))
	assert.Zero(t, a.Int("s"))

	l := a.Strings("l")
	l[0] = "changed"
	assert.Equal(t, []string{"a"}, a.Strings("l"))
}

func TestParseArgs(t *testing.T) {
	params := []Param{{Name: "n", Kind: KindInteger}}
	args, err := ParseArgs(params, []byte(`{"n": "12"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(12), args.Int("n"))

	_, err = ParseArgs(params, []byte(`{invalid`))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseArgs(params, []byte(`[1,2]`))
	var ae *ArgumentError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Error(), "expected a JSON object")

	_, err = ParseArgs(nil, nil)
	require.NoError(t, err)
}
