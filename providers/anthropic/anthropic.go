// Package anthropic adapts the Anthropic Messages API to toolloop.Model.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/skosovsky/toolloop"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

// DefaultMaxTokens bounds a single reply when no limit is configured.
const DefaultMaxTokens = 1024

// Model is a Model Endpoint backed by Anthropic tool use.
type Model struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

type options struct {
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// Option configures a Model.
type Option func(*options)

// WithBaseURL points the client at a compatible endpoint (e.g. a test server).
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithModel sets the model name.
func WithModel(name string) Option {
	return func(o *options) { o.model = name }
}

// WithMaxTokens sets max_tokens. Values below 1 keep DefaultMaxTokens.
func WithMaxTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New creates a Model authenticated with apiKey. SDK retries are disabled;
// the Mediator treats a failed model turn as fatal.
func New(apiKey string, opts ...Option) *Model {
	o := options{model: DefaultModel, maxTokens: DefaultMaxTokens}
	for _, opt := range opts {
		opt(&o)
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}
	cl := anthropic.NewClient(reqOpts...)
	return &Model{client: &cl, model: o.model, maxTokens: o.maxTokens}
}

// Chat sends the conversation and tool declarations as one Messages request.
func (m *Model) Chat(ctx context.Context, messages []toolloop.Message, tools []toolloop.Declaration) (toolloop.Reply, error) {
	system, msgs := toMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: int64(m.maxTokens),
		Messages:  msgs,
		Tools:     toTools(tools),
	}
	if len(system) > 0 {
		params.System = system
	}
	msg, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return toolloop.Reply{}, mapError(err)
	}
	return fromContent(msg.Content), nil
}

// toMessages splits out system prompts and groups consecutive tool results into a
// single user turn, as the Messages API requires.
func toMessages(msgs []toolloop.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(msgs))
	var results []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}
	for _, msg := range msgs {
		if msg.Role != toolloop.RoleTool {
			flush()
		}
		switch msg.Role {
		case toolloop.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case toolloop.RoleHuman:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case toolloop.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, inputOrEmpty(call.Args), call.ToolName))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		case toolloop.RoleTool:
			results = append(results, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, msg.IsError))
		}
	}
	flush()
	return system, out
}

func toTools(decls []toolloop.Declaration) []anthropic.ToolUnionParam {
	if len(decls) == 0 {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, len(decls))
	for i, d := range decls {
		out[i] = anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: inputSchema(d.Parameters),
		}}
	}
	return out
}

func inputSchema(params map[string]any) anthropic.ToolInputSchemaParam {
	schema := anthropic.ToolInputSchemaParam{Properties: params["properties"]}
	switch req := params["required"].(type) {
	case []string:
		schema.Required = req
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if ap, ok := params["additionalProperties"]; ok {
		schema.ExtraFields = map[string]any{"additionalProperties": ap}
	}
	return schema
}

func fromContent(blocks []anthropic.ContentBlockUnion) toolloop.Reply {
	var reply toolloop.Reply
	var text strings.Builder
	for _, block := range blocks {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			reply.ToolCalls = append(reply.ToolCalls, toolloop.ToolCall{
				ID:       b.ID,
				ToolName: b.Name,
				Args:     inputOrEmpty(b.Input),
			})
		}
	}
	reply.Content = text.String()
	return reply
}

func inputOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage("{}")
	}
	return raw
}

func mapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &toolloop.ExternalCallError{
			Service:    "anthropic",
			StatusCode: apiErr.StatusCode,
			Message:    fmt.Sprintf("messages request failed: %s", http.StatusText(apiErr.StatusCode)),
			Err:        err,
		}
	}
	return err
}

var _ toolloop.Model = (*Model)(nil)
