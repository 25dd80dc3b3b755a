package message

import (
	"testing"

	"github.com/germanamz/softhouse/pkg/chats/content"
	"github.com/germanamz/softhouse/pkg/chats/role"
	"github.com/stretchr/testify/assert"
)

func TestNewText(t *testing.T) {
	msg := NewText("product_manager", role.Assistant, "PRD ready")

	assert.Equal(t, Message{
		Sender: "product_manager",
		Role:   role.Assistant,
		Parts:  []content.Part{content.Text{Text: "PRD ready"}},
	}, msg)
}

func TestMessage_Accessors(t *testing.T) {
	mkdir := content.ToolCall{ID: "1", Name: "create_folder", Arguments: `{"path":"out/app"}`}
	write := content.ToolCall{ID: "2", Name: "write_file", Arguments: `{"path":"out/run.py"}`}

	reply := New("tech_lead", role.Assistant,
		content.Text{Text: "Setting up "},
		mkdir,
		content.Text{Text: "the skeleton."},
		write,
	)

	assert.Equal(t, "Setting up the skeleton.", reply.TextContent())
	assert.Equal(t, []content.ToolCall{mkdir, write}, reply.ToolCalls())
	assert.Empty(t, reply.ToolResults())

	done := content.ToolResult{ToolCallID: "1", Name: "create_folder", Content: "ok"}
	results := New("tech_lead", role.Tool, done)

	assert.Equal(t, []content.ToolResult{done}, results.ToolResults())
	assert.Empty(t, results.TextContent())
	assert.Nil(t, results.ToolCalls())
}

func TestMessage_Empty(t *testing.T) {
	msg := New("user", role.User)

	assert.Empty(t, msg.TextContent())
	assert.Empty(t, msg.ToolCalls())
	assert.Empty(t, msg.ToolResults())
}
