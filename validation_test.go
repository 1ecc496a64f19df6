package toolloop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatable_NotImplemented(t *testing.T) {
	type Args struct {
		Low  int `json:"low"`
		High int `json:"high"`
	}
	args := &Args{Low: 10, High: 5}
	// Args does not implement Validatable; validateCustom should no-op
	err := validateCustom(args)
	assert.NoError(t, err)
}

// validatableArgs implements Validatable for tests.
type validatableArgs struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

func (a validatableArgs) Validate() error {
	if a.Low > a.High {
		return errors.New("low must be <= high")
	}
	return nil
}

func TestValidatable_Implemented(t *testing.T) {
	tool, err := NewTypedTool("validatable_tool", "desc", func(_ context.Context, _ validatableArgs) (struct{ Ok bool }, error) {
		return struct{ Ok bool }{Ok: true}, nil
	})
	require.NoError(t, err)
	res, err := tool.Execute(context.Background(), []byte(`{"low":1,"high":10}`))
	require.NoError(t, err)
	require.NotNil(t, res)
	// Invalid: low > high; Validatable.Validate returns error
	_, err = tool.Execute(context.Background(), []byte(`{"low":10,"high":5}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "low must be <= high")
}

// pointerValidatableArgs implements Validatable with pointer receiver only.
type pointerValidatableArgs struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (a *pointerValidatableArgs) Validate() error {
	if a.Min > a.Max {
		return &ClientError{Reason: "min must be <= max"}
	}
	return nil
}

func TestValidatable_PointerReceiver(t *testing.T) {
	tool, err := NewTypedTool("ptr_validatable", "desc", func(_ context.Context, _ pointerValidatableArgs) (struct{ Ok bool }, error) {
		return struct{ Ok bool }{Ok: true}, nil
	})
	require.NoError(t, err)
	_, err = tool.Execute(context.Background(), []byte(`{"min":1,"max":10}`))
	require.NoError(t, err)
	_, err = tool.Execute(context.Background(), []byte(`{"min":10,"max":5}`))
	require.Error(t, err)
	// ClientError from Validate is passed through unchanged.
	assert.True(t, IsClientError(err))
}

func TestExtractor_ParseAndValidate(t *testing.T) {
	type Args struct {
		Tickers []string `json:"tickers"`
		Limit   int      `json:"limit,omitempty"`
	}
	ext, err := NewExtractor[Args](false)
	require.NoError(t, err)
	assert.Len(t, ext.Params(), 2)
	assert.Equal(t, "object", ext.Schema()["type"])

	got, err := ext.ParseAndValidate([]byte(`{"tickers": "AAPL", "limit": "5"}`))
	require.NoError(t, err)
	assert.Equal(t, Args{Tickers: []string{"AAPL"}, Limit: 5}, got)

	_, err = ext.ParseAndValidate([]byte(`{"tickers": {"a": 1}}`))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateAgainstSchema(t *testing.T) {
	resolved, err := compileRawSchema(declaredSchema([]Param{{Name: "n", Kind: KindInteger}}, true))
	require.NoError(t, err)
	require.NoError(t, validateAgainstSchema(resolved, Args{"n": int64(3)}))
	err = validateAgainstSchema(resolved, Args{"n": int64(3), "x": "y"})
	assert.ErrorIs(t, err, ErrValidation)
	err = validateAgainstSchema(resolved, Args{"n": 1.5})
	assert.ErrorIs(t, err, ErrValidation)
}
