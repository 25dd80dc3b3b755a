// Package content defines what a message carries: text, a tool call the model
// asked for, or the result of running one.
package content

// Kind identifies a Part variant.
type Kind string

const (
	KindText       Kind = "text"
	KindToolCall   Kind = "tool_call"
	KindToolResult Kind = "tool_result"
)

// Part is one piece of a message. The variants are Text, ToolCall and
// ToolResult; the set is closed.
type Part interface {
	Kind() Kind
	sealed()
}

// Text is prose written by a participant.
type Text struct {
	Text string
}

// ToolCall is the model's request to run a tool. Arguments is the raw JSON
// object the model produced, possibly empty.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolResult answers the ToolCall with the same ID. IsError marks output that
// describes a failure.
type ToolResult struct {
	ToolCallID string
	Name       string
	Content    string
	IsError    bool
}

func (Text) Kind() Kind       { return KindText }
func (ToolCall) Kind() Kind   { return KindToolCall }
func (ToolResult) Kind() Kind { return KindToolResult }

func (Text) sealed()       {}
func (ToolCall) sealed()   {}
func (ToolResult) sealed() {}
