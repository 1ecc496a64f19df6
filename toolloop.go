package toolloop

import (
	"context"
	"encoding/json"
	"time"
)

// Role tags a Message with its author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool" // tool observation
)

// Tool is the contract for an LLM-callable instrument.
// It is provider-agnostic (no knowledge of OpenAI, Anthropic, etc.).
type Tool interface {
	Name() string
	Description() string
	// Params returns the declared parameters in declaration order.
	Params() []Param
	// Parameters returns a valid JSON Schema as map (compatible with LLM tool definitions).
	Parameters() map[string]any
	// Execute validates argsJSON, invokes the tool once and returns the rendered result.
	Execute(ctx context.Context, argsJSON []byte) ([]byte, error)
}

// ToolMetadata is implemented by tools created with NewTool and NewTypedTool.
// Registry uses Timeout() to override the default execution timeout when set.
type ToolMetadata interface {
	Timeout() time.Duration
	Tags() []string
}

// ToolCall is a single execution request (as produced by the Model Endpoint).
type ToolCall struct {
	ID       string
	ToolName string
	Args     json.RawMessage // JSON payload of arguments
}

// Message is one entry of a Conversation.
type Message struct {
	Role    Role
	Content string
	// ToolCalls is set on assistant messages that request tool invocations.
	ToolCalls []ToolCall
	// ToolCallID and ToolName are set on RoleTool messages.
	ToolCallID string
	ToolName   string
	IsError    bool
}

// Declaration describes a tool to the Model Endpoint. Tags are for discovery and
// listing only; providers do not send them to the model.
type Declaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Tags        []string       `json:"tags,omitempty"`
}

// Reply is the Model Endpoint answer for one turn: either final text or tool calls.
type Reply struct {
	Content   string
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the reply requests at least one tool invocation.
func (r Reply) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// Model is the Model Endpoint collaborator. Implementations live in providers/.
type Model interface {
	Chat(ctx context.Context, messages []Message, tools []Declaration) (Reply, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, messages []Message, tools []Declaration) (Reply, error)

func (f ModelFunc) Chat(ctx context.Context, messages []Message, tools []Declaration) (Reply, error) {
	return f(ctx, messages, tools)
}

// Observation is the outcome of one tool execution. Exactly one of Result and Err is meaningful.
type Observation struct {
	CallID   string
	ToolName string
	Result   []byte
	Err      error
}

// Content renders the observation as text for the Model Endpoint.
// SystemError details are hidden; every other error is shown so the model can self-correct.
func (o Observation) Content() string {
	if o.Err == nil {
		return string(o.Result)
	}
	return "error: " + o.Err.Error()
}

// Message converts the observation to a RoleTool message.
func (o Observation) Message() Message {
	return Message{
		Role:       RoleTool,
		Content:    o.Content(),
		ToolCallID: o.CallID,
		ToolName:   o.ToolName,
		IsError:    o.Err != nil,
	}
}

// ExecutionSummary is passed to the after-execution hook (WithOnAfterExecute).
type ExecutionSummary struct {
	CallID   string
	ToolName string
	Bytes    int
	Error    error
}
