// Package openai adapts the OpenAI Chat Completions API to toolloop.Model.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	oai "github.com/sashabaranov/go-openai"

	"github.com/skosovsky/toolloop"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Model is a Model Endpoint backed by OpenAI function calling.
type Model struct {
	client    *oai.Client
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

// WithBaseURL points the client at a compatible endpoint (e.g. a proxy or a test server).
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithModel sets the model name.
func WithModel(name string) Option {
	return func(o *options) { o.model = name }
}

// WithMaxTokens bounds the completion length. Zero leaves it to the API.
func WithMaxTokens(n int) Option {
	return func(o *options) { o.maxTokens = n }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New creates a Model authenticated with apiKey.
func New(apiKey string, opts ...Option) *Model {
	o := options{model: DefaultModel}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := oai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.httpClient != nil {
		cfg.HTTPClient = o.httpClient
	}
	return &Model{client: oai.NewClientWithConfig(cfg), model: o.model, maxTokens: o.maxTokens}
}

// Chat sends the conversation and tool declarations and returns the first choice.
func (m *Model) Chat(ctx context.Context, messages []toolloop.Message, tools []toolloop.Declaration) (toolloop.Reply, error) {
	req := oai.ChatCompletionRequest{
		Model:     m.model,
		Messages:  toMessages(messages),
		Tools:     toTools(tools),
		MaxTokens: m.maxTokens,
	}
	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return toolloop.Reply{}, mapError(err)
	}
	if len(resp.Choices) == 0 {
		return toolloop.Reply{}, &toolloop.ExternalCallError{Service: "openai", Message: "response has no choices"}
	}
	return fromMessage(resp.Choices[0].Message), nil
}

func toMessages(msgs []toolloop.Message) []oai.ChatCompletionMessage {
	out := make([]oai.ChatCompletionMessage, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case toolloop.RoleSystem:
			out = append(out, oai.ChatCompletionMessage{Role: oai.ChatMessageRoleSystem, Content: msg.Content})
		case toolloop.RoleHuman:
			out = append(out, oai.ChatCompletionMessage{Role: oai.ChatMessageRoleUser, Content: msg.Content})
		case toolloop.RoleAssistant:
			m := oai.ChatCompletionMessage{Role: oai.ChatMessageRoleAssistant, Content: msg.Content}
			for _, call := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, oai.ToolCall{
					ID:   call.ID,
					Type: oai.ToolTypeFunction,
					Function: oai.FunctionCall{
						Name:      call.ToolName,
						Arguments: argsOrEmpty(call.Args),
					},
				})
			}
			out = append(out, m)
		case toolloop.RoleTool:
			out = append(out, oai.ChatCompletionMessage{
				Role:       oai.ChatMessageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		}
	}
	return out
}

func toTools(decls []toolloop.Declaration) []oai.Tool {
	if len(decls) == 0 {
		return nil
	}
	out := make([]oai.Tool, len(decls))
	for i, d := range decls {
		out[i] = oai.Tool{
			Type: oai.ToolTypeFunction,
			Function: &oai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		}
	}
	return out
}

func fromMessage(msg oai.ChatCompletionMessage) toolloop.Reply {
	reply := toolloop.Reply{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, toolloop.ToolCall{
			ID:       tc.ID,
			ToolName: tc.Function.Name,
			Args:     json.RawMessage(argsOrEmpty(json.RawMessage(tc.Function.Arguments))),
		})
	}
	return reply
}

func argsOrEmpty(args json.RawMessage) string {
	if len(args) == 0 {
		return "{}"
	}
	return string(args)
}

func mapError(err error) error {
	var apiErr *oai.APIError
	if errors.As(err, &apiErr) {
		return &toolloop.ExternalCallError{
			Service:    "openai",
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Err:        err,
		}
	}
	var reqErr *oai.RequestError
	if errors.As(err, &reqErr) {
		return &toolloop.ExternalCallError{
			Service:    "openai",
			StatusCode: reqErr.HTTPStatusCode,
			Message:    http.StatusText(reqErr.HTTPStatusCode),
			Err:        err,
		}
	}
	return err
}

var _ toolloop.Model = (*Model)(nil)
