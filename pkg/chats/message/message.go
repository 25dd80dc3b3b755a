// Package message defines a single turn of a conversation.
package message

import (
	"strings"

	"github.com/germanamz/softhouse/pkg/chats/content"
	"github.com/germanamz/softhouse/pkg/chats/role"
)

// Message is one turn: who sent it, in which role, and its parts in order.
// Messages are values; copying one is cheap.
type Message struct {
	Sender string // Agent or participant name, for logs.
	Role   role.Role
	Parts  []content.Part
}

// New builds a message from parts.
func New(sender string, r role.Role, parts ...content.Part) Message {
	return Message{Sender: sender, Role: r, Parts: parts}
}

// NewText builds a message holding a single text part.
func NewText(sender string, r role.Role, text string) Message {
	return New(sender, r, content.Text{Text: text})
}

// TextContent joins the message's text parts.
func (m Message) TextContent() string {
	var b strings.Builder
	for _, t := range partsOf[content.Text](m) {
		b.WriteString(t.Text)
	}
	return b.String()
}

// ToolCalls returns the tool calls in the message, in order.
func (m Message) ToolCalls() []content.ToolCall {
	return partsOf[content.ToolCall](m)
}

// ToolResults returns the tool results in the message, in order.
func (m Message) ToolResults() []content.ToolResult {
	return partsOf[content.ToolResult](m)
}

func partsOf[T content.Part](m Message) []T {
	var out []T
	for _, p := range m.Parts {
		if v, ok := p.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
