// Package anthropic provides a Completer implementation for the Anthropic
// Messages API, built on the official anthropic-sdk-go SDK.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/germanamz/softhouse/pkg/chats/chat"
	"github.com/germanamz/softhouse/pkg/chats/content"
	"github.com/germanamz/softhouse/pkg/chats/message"
	"github.com/germanamz/softhouse/pkg/chats/role"
	"github.com/germanamz/softhouse/pkg/modeladapter"
	"github.com/germanamz/softhouse/pkg/tools/toolbox"
)

var _ modeladapter.Completer = (*Adapter)(nil)

// Adapter implements modeladapter.Completer for the Anthropic Messages API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter. An empty baseURL uses the SDK default
// (https://api.anthropic.com).
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{}
	a.Init(baseURL, apiKey, model, 4096)

	return a
}

// Complete sends a conversation to the Messages API and returns the
// assistant's reply. System messages are sent as top-level system blocks.
func (a *Adapter) Complete(ctx context.Context, c *chat.Chat, tools []toolbox.Tool) (message.Message, error) {
	client := a.client()

	resp, err := client.Messages.New(ctx, a.buildParams(c, tools))
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return message.Message{}, fmt.Errorf("anthropic: status %d: %w", apiErr.StatusCode, err)
		}
		return message.Message{}, fmt.Errorf("anthropic: %w", err)
	}

	a.Record(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	return parseResponse(resp), nil
}

func (a *Adapter) client() anthropic.Client {
	opts := []option.RequestOption{
		option.WithHTTPClient(a.HTTPClient()),
		option.WithMaxRetries(0),
	}
	if a.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(a.BaseURL))
	}
	if a.APIKey != "" {
		opts = append(opts, option.WithAPIKey(a.APIKey))
	}

	return anthropic.NewClient(opts...)
}

func (a *Adapter) buildParams(c *chat.Chat, tools []toolbox.Tool) anthropic.MessageNewParams {
	maxTokens := int64(a.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Name),
		MaxTokens: maxTokens,
	}

	if a.Temperature != 0 {
		params.Temperature = anthropic.Float(a.Temperature)
	}

	for _, m := range c.Messages() {
		if m.Role == role.System {
			if text := m.TextContent(); text != "" {
				params.System = append(params.System, anthropic.TextBlockParam{Text: text})
			}
			continue
		}
		if mp, ok := convertMessage(m); ok {
			params.Messages = append(params.Messages, mp)
		}
	}

	for _, t := range tools {
		params.Tools = append(params.Tools, convertTool(t))
	}

	return params
}

func convertMessage(m message.Message) (anthropic.MessageParam, bool) {
	var blocks []anthropic.ContentBlockParamUnion

	switch m.Role {
	case role.User:
		blocks = append(blocks, anthropic.NewTextBlock(m.TextContent()))
		return anthropic.NewUserMessage(blocks...), true

	case role.Assistant:
		if text := m.TextContent(); text != "" {
			blocks = append(blocks, anthropic.NewTextBlock(text))
		}
		for _, tc := range m.ToolCalls() {
			args := json.RawMessage(tc.Arguments)
			if !json.Valid(args) {
				args = json.RawMessage("{}")
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, args, tc.Name))
		}
		if len(blocks) == 0 {
			return anthropic.MessageParam{}, false
		}
		return anthropic.NewAssistantMessage(blocks...), true

	case role.Tool:
		for _, tr := range m.ToolResults() {
			blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
		}
		if len(blocks) == 0 {
			return anthropic.MessageParam{}, false
		}
		return anthropic.NewUserMessage(blocks...), true
	}

	return anthropic.MessageParam{}, false
}

func convertTool(t toolbox.Tool) anthropic.ToolUnionParam {
	schema := t.Schema()

	tool := anthropic.ToolParam{
		Name: t.Name,
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: schema["properties"],
		},
	}
	if t.Description != "" {
		tool.Description = anthropic.String(t.Description)
	}
	if req, ok := schema["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				tool.InputSchema.Required = append(tool.InputSchema.Required, s)
			}
		}
	}

	return anthropic.ToolUnionParam{OfTool: &tool}
}

func parseResponse(resp *anthropic.Message) message.Message {
	var parts []content.Part

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			if text := block.AsText().Text; text != "" {
				parts = append(parts, content.Text{Text: text})
			}
		case "tool_use":
			tu := block.AsToolUse()
			args := string(tu.Input)
			if strings.TrimSpace(args) == "" {
				args = "{}"
			}
			parts = append(parts, content.ToolCall{
				ID:        tu.ID,
				Name:      tu.Name,
				Arguments: args,
			})
		}
	}

	return message.New("", role.Assistant, parts...)
}
