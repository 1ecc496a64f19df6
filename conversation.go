package toolloop

import "slices"

// Conversation is the ordered, append-only message list of one Mediator run.
// It is not safe for concurrent use; a run owns its Conversation exclusively.
type Conversation struct {
	messages []Message
}

// NewConversation returns a Conversation seeded with a copy of msgs.
func NewConversation(msgs ...Message) *Conversation {
	c := &Conversation{messages: make([]Message, 0, len(msgs)+4)}
	c.Append(msgs...)
	return c
}

// Append adds msgs at the end. Tool call slices are copied so later mutation by the
// caller does not leak into the conversation.
func (c *Conversation) Append(msgs ...Message) {
	for _, m := range msgs {
		m.ToolCalls = slices.Clone(m.ToolCalls)
		c.messages = append(c.messages, m)
	}
}

// Messages returns a snapshot of the conversation.
func (c *Conversation) Messages() []Message {
	return slices.Clone(c.messages)
}

// Len returns the number of messages.
func (c *Conversation) Len() int { return len(c.messages) }
