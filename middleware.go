package toolloop

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps a Tool. Registry.Use applies middlewares to every registered tool.
type Middleware func(Tool) Tool

// WithLogging returns a middleware that logs each invocation with its payload size,
// duration and outcome. Recoverable failures (the ones fed back to the model) are
// logged at warn level, internal failures at error level.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Tool) Tool {
		return &loggedTool{wrapped: wrapped{next: next}, logger: logger}
	}
}

// wrapped forwards the descriptive side of Tool and ToolMetadata to the inner tool,
// so per-tool timeouts and tags survive wrapping.
type wrapped struct{ next Tool }

func (w *wrapped) Name() string               { return w.next.Name() }
func (w *wrapped) Description() string        { return w.next.Description() }
func (w *wrapped) Params() []Param            { return w.next.Params() }
func (w *wrapped) Parameters() map[string]any { return w.next.Parameters() }

func (w *wrapped) Timeout() time.Duration {
	if tm, ok := w.next.(ToolMetadata); ok {
		return tm.Timeout()
	}
	return 0
}

func (w *wrapped) Tags() []string {
	if tm, ok := w.next.(ToolMetadata); ok {
		return tm.Tags()
	}
	return nil
}

type loggedTool struct {
	wrapped
	logger *slog.Logger
}

func (l *loggedTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	name := l.next.Name()
	l.logger.DebugContext(ctx, "tool invoke", "tool", name, "args_bytes", len(args))
	start := time.Now()
	res, err := l.next.Execute(ctx, args)
	elapsed := time.Since(start)
	switch {
	case err == nil:
		l.logger.InfoContext(ctx, "tool result", "tool", name, "duration", elapsed, "bytes", len(res))
	case IsToolError(err):
		l.logger.WarnContext(ctx, "tool rejected call", "tool", name, "duration", elapsed, "error", err)
	default:
		l.logger.ErrorContext(ctx, "tool failed", "tool", name, "duration", elapsed, "error", err)
	}
	return res, err
}

// Use replaces the middleware chain and rewraps every registered tool from its raw
// form. The first middleware is the outermost. Tools registered later are wrapped too.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = middlewares
	for name, t := range r.rawTools {
		r.tools[name] = r.wrap(t)
	}
}

// wrap applies the middleware chain to t. Caller holds r.mu.
func (r *Registry) wrap(t Tool) Tool {
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		t = r.middlewares[i](t)
	}
	return t
}
