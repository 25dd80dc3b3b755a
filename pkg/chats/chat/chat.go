// Package chat holds the conversation an agent builds while working on one
// task.
package chat

import (
	"github.com/germanamz/softhouse/pkg/chats/message"
	"github.com/germanamz/softhouse/pkg/chats/role"
)

// Chat is an append-only list of messages. The zero value is an empty
// conversation. It is not safe for concurrent use.
type Chat struct {
	messages []message.Message
}

// New returns a Chat seeded with msgs.
func New(msgs ...message.Message) *Chat {
	return &Chat{messages: msgs}
}

// Append adds msgs to the end of the conversation.
func (c *Chat) Append(msgs ...message.Message) {
	c.messages = append(c.messages, msgs...)
}

// Len returns the number of messages.
func (c *Chat) Len() int { return len(c.messages) }

// At returns the i-th message. It panics when i is out of range.
func (c *Chat) At(i int) message.Message { return c.messages[i] }

// Last returns the newest message, or false when the conversation is empty.
func (c *Chat) Last() (message.Message, bool) {
	if len(c.messages) == 0 {
		return message.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Messages returns a copy of the conversation.
func (c *Chat) Messages() []message.Message {
	return append([]message.Message(nil), c.messages...)
}

// SystemPrompt returns the text of the first system message.
func (c *Chat) SystemPrompt() string {
	for _, m := range c.messages {
		if m.Role == role.System {
			return m.TextContent()
		}
	}
	return ""
}

// Conversation returns the messages that are not system messages, for
// vendors that take the system prompt separately.
func (c *Chat) Conversation() []message.Message {
	out := make([]message.Message, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Role != role.System {
			out = append(out, m)
		}
	}
	return out
}

// Stats summarizes how a conversation went.
type Stats struct {
	Turns      int // Assistant replies.
	ToolCalls  int // Tool calls requested by the model.
	ToolErrors int // Tool results flagged as errors.
}

// Stats counts turns and tool activity.
func (c *Chat) Stats() Stats {
	var s Stats
	for _, m := range c.messages {
		switch m.Role {
		case role.Assistant:
			s.Turns++
			s.ToolCalls += len(m.ToolCalls())
		case role.Tool:
			for _, tr := range m.ToolResults() {
				if tr.IsError {
					s.ToolErrors++
				}
			}
		}
	}
	return s
}
