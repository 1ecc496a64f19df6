package toolloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Registry maps tool names to tools and executes them with timeout, semaphore and
// optional panic recovery. It is built at startup and read-mostly afterwards; lookups
// are safe for concurrent use by independent Mediator runs.
type Registry struct {
	tools       map[string]Tool // wrapped with middlewares, used by Execute
	rawTools    map[string]Tool // unwrapped, used by Use() to re-apply middlewares from scratch
	order       []string
	sem         chan struct{}
	opts        registryOptions
	done        chan struct{}
	running     sync.WaitGroup
	mu          sync.RWMutex
	middlewares []Middleware
}

// NewRegistry creates a Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{
		timeout:        5 * time.Second,
		maxConcurrency: 10,
		recoverPanics:  true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	var sem chan struct{}
	if o.maxConcurrency > 0 {
		sem = make(chan struct{}, o.maxConcurrency)
	}
	return &Registry{
		tools:    make(map[string]Tool),
		rawTools: make(map[string]Tool),
		sem:      sem,
		opts:     o,
		done:     make(chan struct{}),
	}
}

// Register adds a tool. Stored middlewares (see Use) are applied before registration.
// Returns DuplicateToolError if a tool with the same name already exists.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return errors.New("tool must not be nil")
	}
	name := t.Name()
	if name == "" {
		return errors.New("tool name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rawTools[name]; exists {
		return &DuplicateToolError{Name: name}
	}
	r.rawTools[name] = t
	r.order = append(r.order, name)
	r.tools[name] = r.wrap(t)
	return nil
}

// MustRegister registers tools and panics on the first error. Intended for startup wiring.
func (r *Registry) MustRegister(tools ...Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(fmt.Sprintf("toolloop: %v", err))
		}
	}
}

// Resolve returns the tool registered under name (after middlewares are applied).
// Returns UnknownToolError if absent.
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	return t, nil
}

// Tools returns all registered tools in registration order.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Declarations describes every registered tool for the Model Endpoint, in registration order.
func (r *Registry) Declarations() []Declaration {
	tools := r.Tools()
	out := make([]Declaration, len(tools))
	for i, t := range tools {
		out[i] = Declaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
		if tm, ok := t.(ToolMetadata); ok {
			out[i].Tags = tm.Tags()
		}
	}
	return out
}

// Execute is the tool-execution step: it resolves call.ToolName, validates and invokes the
// tool once and captures the outcome. It never returns a Go error; failures (unknown tool,
// validation, external call, timeout, recovered panic) are reported in Observation.Err.
// The after-execution hook (WithOnAfterExecute) is always invoked.
func (r *Registry) Execute(ctx context.Context, call ToolCall) (obs Observation) {
	obs = Observation{CallID: call.ID, ToolName: call.ToolName}
	start := time.Now()
	defer func() {
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, call, ExecutionSummary{
				CallID:   call.ID,
				ToolName: call.ToolName,
				Bytes:    len(obs.Result),
				Error:    obs.Err,
			}, time.Since(start))
		}
	}()

	r.mu.RLock()
	select {
	case <-r.done:
		r.mu.RUnlock()
		obs.Err = ErrShutdown
		return obs
	default:
	}
	t, ok := r.tools[call.ToolName]
	if !ok {
		r.mu.RUnlock()
		obs.Err = &UnknownToolError{Name: call.ToolName}
		return obs
	}
	r.running.Add(1)
	r.mu.RUnlock()
	defer r.running.Done()

	timeout := r.opts.timeout
	if tm, ok := t.(ToolMetadata); ok && tm.Timeout() > 0 {
		timeout = tm.Timeout()
	}
	execCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := r.acquireSemaphore(execCtx); err != nil {
		obs.Err = timeoutOr(ctx, call.ToolName, timeout)
		return obs
	}
	defer r.releaseSemaphore()

	// Recover defer is registered after onAfter so it runs first on panic and sets obs.Err before the hook runs.
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				obs.Result = nil
				obs.Err = &SystemError{Err: &panicError{p: p}}
			}
		}()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, call)
	}

	res, err := t.Execute(execCtx, call.Args)
	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			err = timeoutOr(ctx, call.ToolName, timeout)
		}
		obs.Err = err
		return obs
	}
	obs.Result = res
	return obs
}

// timeoutOr reports a per-tool deadline as a retryable ErrTimeout; cancellation of the
// parent context is passed through unchanged.
func timeoutOr(parent context.Context, name string, timeout time.Duration) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return &ClientError{
		Reason:    fmt.Sprintf("tool %q timed out after %s", name, timeout),
		Retryable: true,
		Err:       ErrTimeout,
	}
}

func (r *Registry) acquireSemaphore(ctx context.Context) error {
	if r.sem == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) releaseSemaphore() {
	if r.sem != nil {
		<-r.sem
	}
}

// ExecuteBatch runs all calls concurrently and returns their observations in call order.
// One failure does not cancel the others.
func (r *Registry) ExecuteBatch(ctx context.Context, calls []ToolCall) []Observation {
	out := make([]Observation, len(calls))
	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			out[i] = r.Execute(ctx, call)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Shutdown closes the registry for new calls and waits for in-flight executions or ctx to cancel.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		return nil
	default:
		close(r.done)
	}
	r.mu.Unlock()
	done := make(chan struct{})
	go func() {
		r.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
