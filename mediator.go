package toolloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// State is the position of a Mediator run in its interaction loop.
type State int

const (
	StateAwaitingModel State = iota
	StateExecutingTool
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "AWAITING_MODEL"
	case StateExecutingTool:
		return "EXECUTING_TOOL"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the outcome of one Mediator run. It is returned for both DONE and FAILED runs.
type Result struct {
	// Content is the final answer of the model (empty when the run failed).
	Content string
	State   State
	// Iterations counts model turns.
	Iterations   int
	Messages     []Message
	Observations []Observation
}

// Mediator runs the interaction loop between a Model Endpoint and a Registry.
// It holds no per-run state, so one Mediator may serve concurrent runs.
type Mediator struct {
	model    Model
	registry *Registry
	opts     mediatorOptions
}

// NewMediator creates a Mediator. A nil registry means no tools are declared.
func NewMediator(model Model, registry *Registry, opts ...MediatorOption) *Mediator {
	o := mediatorOptions{maxIterations: DefaultMaxIterations}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Mediator{model: model, registry: registry, opts: o}
}

// Ask runs the loop for a single user query, prefixed by the configured system prompt.
func (m *Mediator) Ask(ctx context.Context, query string) (*Result, error) {
	var msgs []Message
	if m.opts.systemPrompt != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: m.opts.systemPrompt})
	}
	msgs = append(msgs, Message{Role: RoleHuman, Content: query})
	return m.Run(ctx, msgs)
}

// Run drives messages through the loop until the model answers without tool calls
// (StateDone) or the run fails (StateFailed). Tool failures are fed back to the model
// as error observations unless the fatal-error policy selects them. Exceeding the
// iteration limit returns an IterationLimitError.
func (m *Mediator) Run(ctx context.Context, messages []Message) (*Result, error) {
	if m.model == nil {
		return nil, errors.New("toolloop: mediator has no model")
	}
	r := &run{
		m:    m,
		conv: NewConversation(messages...),
		res:  &Result{State: StateAwaitingModel},
	}
	err := r.loop(ctx)
	r.res.Messages = r.conv.Messages()
	if err != nil {
		r.transition(StateFailed)
		m.opts.logger.WarnContext(ctx, "run failed", "iterations", r.res.Iterations, "error", err)
		return r.res, err
	}
	r.transition(StateDone)
	return r.res, nil
}

// run holds the state of one Mediator.Run invocation.
type run struct {
	m    *Mediator
	conv *Conversation
	res  *Result
}

func (r *run) transition(to State) {
	from := r.res.State
	r.res.State = to
	if r.m.opts.onTransition != nil {
		r.m.opts.onTransition(from, to)
	}
}

func (r *run) loop(ctx context.Context) error {
	logger := r.m.opts.logger
	decls := r.m.registry.Declarations()
	for {
		if r.res.Iterations >= r.m.opts.maxIterations {
			return &IterationLimitError{Limit: r.m.opts.maxIterations}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		r.res.Iterations++
		logger.DebugContext(ctx, "model turn", "iteration", r.res.Iterations, "messages", r.conv.Len())
		reply, err := r.m.model.Chat(ctx, r.conv.Messages(), decls)
		if err != nil {
			return fmt.Errorf("model endpoint: %w", err)
		}
		if !reply.HasToolCalls() {
			r.conv.Append(Message{Role: RoleAssistant, Content: reply.Content})
			r.res.Content = reply.Content
			return nil
		}

		calls := make([]ToolCall, len(reply.ToolCalls))
		for i, call := range reply.ToolCalls {
			if call.ID == "" {
				call.ID = fmt.Sprintf("call_%d_%d", r.res.Iterations, i)
			}
			calls[i] = call
		}
		r.conv.Append(Message{Role: RoleAssistant, Content: reply.Content, ToolCalls: calls})

		r.transition(StateExecutingTool)
		if err := r.executeTools(ctx, calls); err != nil {
			return err
		}
		r.transition(StateAwaitingModel)
	}
}

// executeTools runs the calls of one turn and appends their observations in call order.
func (r *run) executeTools(ctx context.Context, calls []ToolCall) error {
	if r.m.opts.parallel && len(calls) > 1 {
		for _, obs := range r.m.registry.ExecuteBatch(ctx, calls) {
			if err := r.observe(ctx, obs); err != nil {
				return err
			}
		}
		return nil
	}
	for _, call := range calls {
		if err := r.observe(ctx, r.m.registry.Execute(ctx, call)); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) observe(ctx context.Context, obs Observation) error {
	logger := r.m.opts.logger
	r.res.Observations = append(r.res.Observations, obs)
	if obs.Err != nil {
		if err := r.fatal(ctx, obs.Err); err != nil {
			return fmt.Errorf("tool %q: %w", obs.ToolName, err)
		}
		logger.WarnContext(ctx, "tool failed", "tool", obs.ToolName, "call_id", obs.CallID, "error", obs.Err)
	} else {
		logger.InfoContext(ctx, "tool call", "tool", obs.ToolName, "call_id", obs.CallID, "bytes", len(obs.Result))
	}
	r.conv.Append(obs.Message())
	return nil
}

// fatal returns the error that ends the run, or nil if err should become an observation.
// Cancellation and registry shutdown are always fatal.
func (r *run) fatal(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, ErrShutdown) {
		return err
	}
	if r.m.opts.fatal != nil && r.m.opts.fatal(err) {
		return err
	}
	return nil
}
