package toolloop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientError(t *testing.T) {
	tests := []struct {
		name   string
		err    *ClientError
		expect string
	}{
		{"with reason", &ClientError{Reason: "bad date"}, "invalid tool input: bad date"},
		{"empty reason", &ClientError{Reason: ""}, "invalid tool input: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.err.Error())
		})
	}
}

func TestSystemError(t *testing.T) {
	inner := errors.New("db connection refused")
	err := &SystemError{Err: inner}
	assert.Equal(t, "internal system error during tool execution", err.Error())
	assert.Same(t, inner, err.Unwrap())
}

func TestArgumentError_Message(t *testing.T) {
	tests := []struct {
		name   string
		err    *ArgumentError
		expect string
	}{
		{"type mismatch", &ArgumentError{Field: "n", Expected: "integer", Received: `string "abc"`}, `invalid argument "n": expected integer, got string "abc"`},
		{"field reason", &ArgumentError{Field: "date", Reason: "want YYYY-MM-DD"}, `invalid argument "date": want YYYY-MM-DD`},
		{"payload", &ArgumentError{Reason: "expected a JSON object"}, "invalid arguments: expected a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.err.Error())
			assert.ErrorIs(t, tt.err, ErrValidation)
		})
	}
}

func TestExternalCallError(t *testing.T) {
	err := &ExternalCallError{Service: "market data", StatusCode: 404, Message: "not found for ticker P"}
	assert.Equal(t, "market data: not found for ticker P (status 404)", err.Error())
	assert.ErrorIs(t, err, ErrExternalCall)

	transport := &ExternalCallError{Service: "model", Err: context.DeadlineExceeded}
	assert.Equal(t, "model: context deadline exceeded", transport.Error())
	assert.ErrorIs(t, transport, ErrExternalCall)
	assert.ErrorIs(t, transport, context.DeadlineExceeded)
}

func TestErrorsIs_As(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		target   error
		is       bool
		asClient bool
		asSystem bool
	}{
		{"ClientError direct", &ClientError{Reason: "x"}, ErrValidation, false, true, false},
		{"ClientError timeout", &ClientError{Reason: "x", Err: ErrTimeout}, ErrTimeout, true, true, false},
		{"SystemError direct", &SystemError{Err: ErrTimeout}, ErrTimeout, true, false, true},
		{"wrapped ClientError", wrapErr{err: &ClientError{Reason: "y"}}, nil, false, true, false},
		{"wrapped SystemError", wrapErr{err: &SystemError{Err: ErrTimeout}}, ErrTimeout, true, false, true},
		{"unknown tool", &UnknownToolError{Name: "x"}, ErrUnknownTool, true, false, false},
		{"duplicate tool", &DuplicateToolError{Name: "x"}, ErrDuplicateTool, true, false, false},
		{"iteration limit", &IterationLimitError{Limit: 3}, ErrIterationLimit, true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.target != nil {
				assert.Equal(t, tt.is, errors.Is(tt.err, tt.target), "errors.Is")
			}
			assert.Equal(t, tt.asClient, IsClientError(tt.err), "IsClientError")
			var se *SystemError
			assert.Equal(t, tt.asSystem, errors.As(tt.err, &se))
		})
	}
}

func TestIsToolError(t *testing.T) {
	require.True(t, IsToolError(&UnknownToolError{Name: "x"}))
	require.True(t, IsToolError(&ArgumentError{Field: "x"}))
	require.True(t, IsToolError(&ExternalCallError{Service: "s"}))
	require.True(t, IsToolError(&ClientError{Reason: "x"}))
	require.False(t, IsToolError(&SystemError{Err: errors.New("x")}))
	require.False(t, IsToolError(&IterationLimitError{Limit: 1}))
	require.False(t, IsToolError(errors.New("plain")))
}

func TestWrapHandlerError(t *testing.T) {
	assert.NoError(t, wrapHandlerError(nil))
	ext := &ExternalCallError{Service: "s", StatusCode: 500}
	assert.Same(t, ext, wrapHandlerError(ext))
	err := wrapHandlerError(errors.New("boom"))
	assert.True(t, IsSystemError(err))
}

type wrapErr struct {
	err error
}

func (e wrapErr) Error() string {
	if e.err == nil {
		return ""
	}
	return "wrap: " + e.err.Error()
}
func (e wrapErr) Unwrap() error { return e.err }
