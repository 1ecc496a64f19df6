package testutil

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/skosovsky/toolloop"
)

// ErrScriptExhausted is returned by ScriptedModel when it has no reply left.
var ErrScriptExhausted = errors.New("scripted model: no more replies")

// ScriptedModel is a Model Endpoint that returns queued replies in order and records
// the conversation it was given on every turn. When Repeat is set, it is used for
// every turn after the queue runs out.
type ScriptedModel struct {
	Replies []toolloop.Reply
	Repeat  func(turn int) toolloop.Reply
	Err     error

	mu    sync.Mutex
	turns [][]toolloop.Message
	decls []toolloop.Declaration
}

// Chat implements toolloop.Model.
func (s *ScriptedModel) Chat(_ context.Context, messages []toolloop.Message, tools []toolloop.Declaration) (toolloop.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn := len(s.turns)
	s.turns = append(s.turns, slices.Clone(messages))
	s.decls = tools
	if s.Err != nil {
		return toolloop.Reply{}, s.Err
	}
	if turn < len(s.Replies) {
		return s.Replies[turn], nil
	}
	if s.Repeat != nil {
		return s.Repeat(turn), nil
	}
	return toolloop.Reply{}, ErrScriptExhausted
}

// Turns returns the number of Chat calls.
func (s *ScriptedModel) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Conversation returns the messages sent on the given turn (0-based).
func (s *ScriptedModel) Conversation(turn int) []toolloop.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn < 0 || turn >= len(s.turns) {
		return nil
	}
	return s.turns[turn]
}

// Declarations returns the tool declarations sent on the last turn.
func (s *ScriptedModel) Declarations() []toolloop.Declaration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decls
}

var _ toolloop.Model = (*ScriptedModel)(nil)
