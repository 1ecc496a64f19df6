package toolloop

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclaredSchema(t *testing.T) {
	params := []Param{
		{Name: "ticker", Kind: KindString, Description: "Stock symbol"},
		{Name: "date", Kind: KindString},
		{Name: "fields", Kind: KindStringList, Optional: true},
		{Name: "limit", Kind: KindInteger, Optional: true},
	}
	s := declaredSchema(params, false)
	assert.Equal(t, "object", s["type"])
	assert.Equal(t, []any{"ticker", "date"}, s["required"])
	props, ok := s["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"type": "string", "description": "Stock symbol"}, props["ticker"])
	assert.Equal(t, map[string]any{"type": "array", "items": map[string]any{"type": "string"}}, props["fields"])
	assert.Equal(t, map[string]any{"type": "integer"}, props["limit"])
	assert.NotContains(t, s, "additionalProperties")

	strict := declaredSchema(params, true)
	assert.Equal(t, false, strict["additionalProperties"])
}

func TestDeclaredSchema_NoRequired(t *testing.T) {
	s := declaredSchema([]Param{{Name: "x", Kind: KindFloat, Optional: true}}, false)
	assert.NotContains(t, s, "required")
	_, err := compileRawSchema(s)
	require.NoError(t, err)
}

func TestValidateParams(t *testing.T) {
	require.NoError(t, validateParams([]Param{{Name: "a", Kind: KindString}}))
	require.Error(t, validateParams([]Param{{Name: "", Kind: KindString}}))
	require.Error(t, validateParams([]Param{{Name: "a", Kind: KindString}, {Name: "a", Kind: KindFloat}}))
	require.Error(t, validateParams([]Param{{Name: "a"}}))
}

func TestGenerateSchema_Struct(t *testing.T) {
	type Args struct {
		Ticker   string   `json:"ticker" jsonschema:"Stock symbol"`
		Date     string   `json:"date" description:"Trading day, YYYY-MM-DD"`
		Adjusted *bool    `json:"adjusted,omitempty"`
		Fields   []string `json:"fields,omitempty"`
		Unit     string   `json:"unit,omitempty" enum:"usd,eur"`
		internal int
	}
	m, resolved, params, err := generateSchema[Args](false)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	require.Len(t, params, 5)
	assert.Equal(t, Param{Name: "ticker", Kind: KindString, Description: "Stock symbol"}, params[0])
	assert.Equal(t, Param{Name: "date", Kind: KindString, Description: "Trading day, YYYY-MM-DD"}, params[1])
	assert.Equal(t, Param{Name: "adjusted", Kind: KindBoolean, Optional: true}, params[2])
	assert.Equal(t, KindStringList, params[3].Kind)

	props, ok := m["properties"].(map[string]any)
	require.True(t, ok)
	unit, ok := props["unit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"usd", "eur"}, unit["enum"])
	date, ok := props["date"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Trading day, YYYY-MM-DD", date["description"])
}

func TestGenerateSchema_StrictMode(t *testing.T) {
	type Root struct {
		X string `json:"x"`
	}
	m, _, _, err := generateSchema[Root](true)
	require.NoError(t, err)
	assert.Equal(t, false, m["additionalProperties"])

	loose, _, _, err := generateSchema[Root](false)
	require.NoError(t, err)
	assert.NotContains(t, loose, "additionalProperties")
}

func TestParamsFromStruct_Unsupported(t *testing.T) {
	type Bad struct {
		Nested map[string]int `json:"nested"`
	}
	_, err := paramsFromStruct(reflect.TypeFor[Bad]())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported parameter type")

	_, err = paramsFromStruct(reflect.TypeFor[int]())
	require.Error(t, err)
}

func TestStripSchemaIDs(t *testing.T) {
	m := map[string]any{
		"$id": "root",
		"properties": map[string]any{
			"a": map[string]any{"id": "a", "type": "string"},
		},
	}
	stripSchemaIDs(m)
	assert.NotContains(t, m, "$id")
	props := m["properties"].(map[string]any)
	assert.NotContains(t, props["a"].(map[string]any), "id")
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "string", KindString.String())
	assert.Equal(t, "integer", KindInteger.String())
	assert.Equal(t, "number", KindFloat.String())
	assert.Equal(t, "array of string", KindStringList.String())
	assert.Equal(t, "boolean", KindBoolean.String())
	assert.Equal(t, "kind(0)", Kind(0).String())
}
