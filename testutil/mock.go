// Package testutil provides test helpers for toolloop (MockTool, ScriptedModel).
package testutil

import (
	"context"
	"sync"

	"github.com/skosovsky/toolloop"
)

// MockTool is a configurable Tool implementation for tests. It counts executions.
type MockTool struct {
	NameVal   string
	DescVal   string
	ParamsVal []toolloop.Param
	ExecuteFn func(ctx context.Context, args []byte) ([]byte, error)

	mu    sync.Mutex
	calls [][]byte
}

// Name returns the tool name.
func (m *MockTool) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

// Description returns the tool description.
func (m *MockTool) Description() string {
	return m.DescVal
}

// Params returns the declared params.
func (m *MockTool) Params() []toolloop.Param {
	return m.ParamsVal
}

// Parameters returns a minimal object schema.
func (m *MockTool) Parameters() map[string]any {
	return map[string]any{"type": "object"}
}

// Execute records args and runs ExecuteFn if set, otherwise returns nil.
func (m *MockTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]byte(nil), args...))
	m.mu.Unlock()
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, args)
	}
	return nil, nil
}

// Calls returns the argument payloads Execute was called with.
func (m *MockTool) Calls() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.calls...)
}

// Ensure MockTool implements Tool.
var _ toolloop.Tool = (*MockTool)(nil)
