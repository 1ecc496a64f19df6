package toolloop

import (
	"context"
	"log/slog"
	"time"
)

// toolOptions hold optional tool settings (timeout, strict, tags).
type toolOptions struct {
	strict  bool
	timeout time.Duration
	tags    []string
}

// ToolOption configures a tool (e.g. WithStrict, WithTimeout).
type ToolOption func(*toolOptions)

// WithStrict sets strict mode for schema: additionalProperties: false for all objects,
// so undeclared arguments are rejected instead of ignored.
func WithStrict() ToolOption {
	return func(o *toolOptions) {
		o.strict = true
	}
}

// WithTimeout sets a per-tool timeout that overrides the registry default.
func WithTimeout(d time.Duration) ToolOption {
	return func(o *toolOptions) {
		o.timeout = d
	}
}

// WithTags sets tool tags (metadata for discovery).
func WithTags(tags ...string) ToolOption {
	return func(o *toolOptions) {
		o.tags = tags
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	timeout        time.Duration
	maxConcurrency int
	recoverPanics  bool
	onBefore       func(context.Context, ToolCall)
	onAfter        func(context.Context, ToolCall, ExecutionSummary, time.Duration)
}

// WithDefaultTimeout sets the default execution timeout for tools. Zero disables it.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.timeout = d
	}
}

// WithMaxConcurrency limits concurrent tool executions (semaphore).
// Pass 0 or negative to disable the semaphore (unlimited concurrency).
func WithMaxConcurrency(n int) RegistryOption {
	return func(o *registryOptions) {
		o.maxConcurrency = n
	}
}

// WithRecoverPanics enables panic recovery in Execute (reported as SystemError).
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.recoverPanics = enable
	}
}

// WithOnBeforeExecute sets a hook called before each tool execution.
func WithOnBeforeExecute(fn func(context.Context, ToolCall)) RegistryOption {
	return func(o *registryOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterExecute sets a hook called after each tool execution, including failed lookups.
func WithOnAfterExecute(fn func(context.Context, ToolCall, ExecutionSummary, time.Duration)) RegistryOption {
	return func(o *registryOptions) {
		o.onAfter = fn
	}
}

// DefaultMaxIterations bounds the number of model turns of one Mediator run.
const DefaultMaxIterations = 8

// MediatorOption configures a Mediator.
type MediatorOption func(*mediatorOptions)

type mediatorOptions struct {
	maxIterations int
	fatal         func(error) bool
	parallel      bool
	systemPrompt  string
	logger        *slog.Logger
	onTransition  func(from, to State)
}

// WithMaxIterations sets the maximum number of model turns. Values below 1 are ignored.
func WithMaxIterations(n int) MediatorOption {
	return func(o *mediatorOptions) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithFailFast makes every tool failure fatal for the run.
func WithFailFast() MediatorOption {
	return WithFatalErrors(func(error) bool { return true })
}

// WithFatalErrors selects the tool failures that end the run in StateFailed.
// All other tool failures are fed back to the model as observations.
func WithFatalErrors(pred func(error) bool) MediatorOption {
	return func(o *mediatorOptions) {
		o.fatal = pred
	}
}

// WithParallelTools executes the tool calls of one turn concurrently.
// Observations are still appended in the order the model declared the calls.
func WithParallelTools() MediatorOption {
	return func(o *mediatorOptions) {
		o.parallel = true
	}
}

// WithSystemPrompt sets the system message prepended by Ask.
func WithSystemPrompt(prompt string) MediatorOption {
	return func(o *mediatorOptions) {
		o.systemPrompt = prompt
	}
}

// WithLogger sets the logger used by the Mediator. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) MediatorOption {
	return func(o *mediatorOptions) {
		o.logger = logger
	}
}

// WithOnTransition sets a hook called on every state change of a run.
func WithOnTransition(fn func(from, to State)) MediatorOption {
	return func(o *mediatorOptions) {
		o.onTransition = fn
	}
}
