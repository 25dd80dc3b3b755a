// Package openai provides a Completer implementation for the OpenAI Chat
// Completions API, built on the official openai-go SDK.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/germanamz/softhouse/pkg/chats/chat"
	"github.com/germanamz/softhouse/pkg/chats/content"
	"github.com/germanamz/softhouse/pkg/chats/message"
	"github.com/germanamz/softhouse/pkg/chats/role"
	"github.com/germanamz/softhouse/pkg/modeladapter"
	"github.com/germanamz/softhouse/pkg/tools/toolbox"
)

var _ modeladapter.Completer = (*Adapter)(nil)

// Adapter implements modeladapter.Completer for the OpenAI Chat Completions API
// and for any endpoint that speaks the same protocol.
type Adapter struct {
	modeladapter.ModelAdapter

	// Label prefixes errors returned by Complete. Defaults to "openai".
	Label string
}

// New creates an Adapter. An empty baseURL uses the SDK default
// (https://api.openai.com/v1).
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{Label: "openai"}
	a.Init(baseURL, apiKey, model, 4096)

	return a
}

// Complete sends a conversation to the Chat Completions API and returns the
// assistant's reply.
func (a *Adapter) Complete(ctx context.Context, c *chat.Chat, tools []toolbox.Tool) (message.Message, error) {
	client := a.client()

	resp, err := client.Chat.Completions.New(ctx, a.buildParams(c, tools))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return message.Message{}, fmt.Errorf("%s: status %d: %s", a.label(), apiErr.StatusCode, strings.TrimSpace(apiErr.Message))
		}
		return message.Message{}, fmt.Errorf("%s: %w", a.label(), err)
	}

	a.Record(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return message.Message{}, fmt.Errorf("%s: empty choices in response", a.label())
	}

	return parseMessage(resp.Choices[0].Message), nil
}

func (a *Adapter) label() string {
	if a.Label == "" {
		return "openai"
	}
	return a.Label
}

func (a *Adapter) client() openai.Client {
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

	return openai.NewClient(opts...)
}

func (a *Adapter) buildParams(c *chat.Chat, tools []toolbox.Tool) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: a.Name,
	}

	if a.MaxTokens > 0 {
		params.MaxTokens = openai.Opt(int64(a.MaxTokens))
	}
	if a.Temperature != 0 {
		params.Temperature = openai.Opt(a.Temperature)
	}

	for _, t := range tools {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  shared.FunctionParameters(t.Schema()),
		}))
	}

	for _, m := range c.Messages() {
		params.Messages = append(params.Messages, convertMessage(m)...)
	}

	return params
}

func convertMessage(m message.Message) []openai.ChatCompletionMessageParamUnion {
	switch m.Role {
	case role.System:
		return []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(m.TextContent())}

	case role.User:
		return []openai.ChatCompletionMessageParamUnion{openai.UserMessage(m.TextContent())}

	case role.Assistant:
		assistant := openai.ChatCompletionAssistantMessageParam{}
		if text := m.TextContent(); text != "" {
			assistant.Content.OfString = openai.String(text)
		}
		for _, tc := range m.ToolCalls() {
			args := tc.Arguments
			if strings.TrimSpace(args) == "" {
				args = "{}"
			}
			assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: args,
					},
				},
			})
		}
		return []openai.ChatCompletionMessageParamUnion{{OfAssistant: &assistant}}

	case role.Tool:
		var out []openai.ChatCompletionMessageParamUnion
		for _, tr := range m.ToolResults() {
			out = append(out, openai.ToolMessage(tr.Content, tr.ToolCallID))
		}
		return out
	}

	return nil
}

func parseMessage(msg openai.ChatCompletionMessage) message.Message {
	var parts []content.Part

	if msg.Content != "" {
		parts = append(parts, content.Text{Text: msg.Content})
	}

	for _, call := range msg.ToolCalls {
		fn, ok := call.AsAny().(openai.ChatCompletionMessageFunctionToolCall)
		if !ok {
			continue
		}
		parts = append(parts, content.ToolCall{
			ID:        fn.ID,
			Name:      fn.Function.Name,
			Arguments: fn.Function.Arguments,
		})
	}

	return message.New("", role.Assistant, parts...)
}
