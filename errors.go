package toolloop

import (
	"errors"
	"fmt"
)

// Sentinel errors for toolloop. Use errors.Is to check.
var (
	ErrUnknownTool    = errors.New("unknown tool")
	ErrDuplicateTool  = errors.New("duplicate tool name")
	ErrValidation     = errors.New("validation failed")
	ErrExternalCall   = errors.New("external call failed")
	ErrIterationLimit = errors.New("iteration limit exceeded")
	ErrTimeout        = errors.New("tool execution timeout")
	ErrShutdown       = errors.New("registry is shutting down")
)

// UnknownToolError reports a tool name the Model Endpoint asked for that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

func (e *UnknownToolError) Unwrap() error { return ErrUnknownTool }

// DuplicateToolError is returned by Registry.Register when the name is taken.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

func (e *DuplicateToolError) Unwrap() error { return ErrDuplicateTool }

// ArgumentError reports an argument payload that cannot be coerced to the declared schema.
// Field is empty when the failure is not tied to one field (e.g. the payload is not an object).
type ArgumentError struct {
	Field    string
	Expected string
	Received string
	Reason   string
}

func (e *ArgumentError) Error() string {
	switch {
	case e.Field == "":
		return "invalid arguments: " + e.Reason
	case e.Reason != "":
		return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
	default:
		return fmt.Sprintf("invalid argument %q: expected %s, got %s", e.Field, e.Expected, e.Received)
	}
}

func (e *ArgumentError) Unwrap() error { return ErrValidation }

// ExternalCallError is a non-success response from the HTTP Data Source or the Model Endpoint.
type ExternalCallError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *ExternalCallError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Service, msg, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Service, msg)
}

// Unwrap exposes both ErrExternalCall and the transport error, if any.
func (e *ExternalCallError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExternalCall}
	}
	return []error{ErrExternalCall, e.Err}
}

// IterationLimitError is returned by the Mediator when the model keeps requesting tools.
type IterationLimitError struct {
	Limit int
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("no final answer after %d model turns", e.Limit)
}

func (e *IterationLimitError) Unwrap() error { return ErrIterationLimit }

// ClientError is an error that should be sent back to the LLM for self-correction
// (e.g. a date in the wrong format, a ticker the tool refuses).
// Do not expose stack traces or internal details to the LLM.
// Err optionally wraps a sentinel (e.g. ErrValidation) for errors.Is/errors.As.
type ClientError struct {
	Reason string
	// Retryable is set by the application. When true, the model
	// may retry the same call without changing arguments (e.g. transient rate limit).
	Retryable bool
	Err       error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

func (e *ClientError) Unwrap() error { return e.Err }

// SystemError represents an internal failure (panic, marshal failure, etc.).
// The LLM should not see the underlying error message or stack.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// IsClientError returns true if err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// IsToolError reports whether err belongs to the recoverable tool-level taxonomy:
// unknown tool, argument validation, external call, client error or timeout.
func IsToolError(err error) bool {
	return errors.Is(err, ErrUnknownTool) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrExternalCall) ||
		errors.Is(err, ErrTimeout) ||
		IsClientError(err)
}

// wrapHandlerError passes through errors of the tool-level taxonomy; wraps others as SystemError.
func wrapHandlerError(err error) error {
	if err == nil {
		return nil
	}
	if IsToolError(err) || IsSystemError(err) {
		return err
	}
	return &SystemError{Err: err}
}

// panicError wraps a recovered panic value for SystemError.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
