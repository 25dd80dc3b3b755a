// Package gemini provides a Completer implementation for the Google Gemini API,
// built on the google.golang.org/genai SDK.
package gemini

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/germanamz/softhouse/pkg/chats/chat"
	"github.com/germanamz/softhouse/pkg/chats/content"
	"github.com/germanamz/softhouse/pkg/chats/message"
	"github.com/germanamz/softhouse/pkg/chats/role"
	"github.com/germanamz/softhouse/pkg/modeladapter"
	"github.com/germanamz/softhouse/pkg/tools/toolbox"
)

var _ modeladapter.Completer = (*Adapter)(nil)

// Adapter implements modeladapter.Completer for the Google Gemini API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter. An empty baseURL uses the SDK default
// (https://generativelanguage.googleapis.com).
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{}
	a.Init(baseURL, apiKey, model, 8192)

	return a
}

// Complete sends a conversation to the Gemini API and returns the assistant's reply.
func (a *Adapter) Complete(ctx context.Context, c *chat.Chat, tools []toolbox.Tool) (message.Message, error) {
	client, err := a.client(ctx)
	if err != nil {
		return message.Message{}, fmt.Errorf("gemini: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, a.Name, buildContents(c), a.buildConfig(c, tools))
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return message.Message{}, fmt.Errorf("gemini: status %d: %s", apiErr.Code, strings.TrimSpace(apiErr.Message))
		}
		return message.Message{}, fmt.Errorf("gemini: %w", err)
	}

	if resp.UsageMetadata != nil {
		a.Record(int64(resp.UsageMetadata.PromptTokenCount), int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return message.Message{}, errors.New("gemini: empty candidates in response")
	}

	return parseCandidate(resp.Candidates[0]), nil
}

func (a *Adapter) client(ctx context.Context) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     a.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: a.HTTPClient(),
	}
	if a.BaseURL != "" {
		cfg.HTTPOptions.BaseURL = a.BaseURL
	}

	return genai.NewClient(ctx, cfg)
}

func (a *Adapter) buildConfig(c *chat.Chat, tools []toolbox.Tool) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if a.Temperature != 0 {
		cfg.Temperature = genai.Ptr(float32(a.Temperature))
	}

	if sp := c.SystemPrompt(); sp != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: sp}}}
	}

	if len(tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  convertSchema(t.Schema()),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	return cfg
}

// buildContents converts the non-system history. Consecutive parts with the
// same role are merged because Gemini requires alternating turns.
func buildContents(c *chat.Chat) []*genai.Content {
	msgs := c.Conversation()
	names := callNames(msgs)

	var contents []*genai.Content
	for _, m := range msgs {
		r := "user"
		if m.Role == role.Assistant {
			r = "model"
		}

		for _, p := range m.Parts {
			part := convertPart(p, names)
			if part == nil {
				continue
			}

			if n := len(contents); n > 0 && contents[n-1].Role == r {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: r, Parts: []*genai.Part{part}})
		}
	}

	return contents
}

// callNames maps tool call IDs to function names. Gemini's function responses
// are matched by name, not by ID.
func callNames(msgs []message.Message) map[string]string {
	names := make(map[string]string)
	for _, m := range msgs {
		for _, tc := range m.ToolCalls() {
			names[tc.ID] = tc.Name
		}
	}
	return names
}

func convertPart(p content.Part, names map[string]string) *genai.Part {
	switch v := p.(type) {
	case content.Text:
		if v.Text == "" {
			return nil
		}
		return &genai.Part{Text: v.Text}

	case content.ToolCall:
		args := map[string]any{}
		if strings.TrimSpace(v.Arguments) != "" {
			_ = json.Unmarshal([]byte(v.Arguments), &args)
		}
		return &genai.Part{FunctionCall: &genai.FunctionCall{Name: v.Name, Args: args}}

	case content.ToolResult:
		name := v.Name
		if name == "" {
			name = names[v.ToolCallID]
		}
		if name == "" {
			return nil
		}
		key := "result"
		if v.IsError {
			key = "error"
		}
		return &genai.Part{FunctionResponse: &genai.FunctionResponse{
			Name:     name,
			Response: map[string]any{key: v.Content},
		}}
	}

	return nil
}

// convertSchema turns a JSON Schema object into Gemini's OpenAPI subset.
// Unsupported keywords are dropped.
func convertSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	s := &genai.Schema{}

	if t, ok := schema["type"].(string); ok {
		s.Type = genai.Type(strings.ToUpper(t))
	}
	if d, ok := schema["description"].(string); ok {
		s.Description = d
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if prop, ok := raw.(map[string]any); ok {
				s.Properties[name] = convertSchema(prop)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		s.Items = convertSchema(items)
	}
	for _, key := range []string{"required", "enum"} {
		list, ok := schema[key].([]any)
		if !ok {
			continue
		}
		for _, v := range list {
			if str, ok := v.(string); ok {
				if key == "required" {
					s.Required = append(s.Required, str)
				} else {
					s.Enum = append(s.Enum, str)
				}
			}
		}
	}

	return s
}

func parseCandidate(cand *genai.Candidate) message.Message {
	var parts []content.Part

	if cand.Content == nil {
		return message.New("", role.Assistant)
	}

	for _, p := range cand.Content.Parts {
		if p == nil {
			continue
		}
		if p.Text != "" {
			parts = append(parts, content.Text{Text: p.Text})
		}
		if p.FunctionCall == nil {
			continue
		}

		args := p.FunctionCall.Args
		if args == nil {
			args = map[string]any{}
		}
		raw, err := json.Marshal(args)
		if err != nil {
			raw = []byte("{}")
		}

		id := p.FunctionCall.ID
		if id == "" {
			id = generateCallID(p.FunctionCall.Name)
		}

		parts = append(parts, content.ToolCall{
			ID:        id,
			Name:      p.FunctionCall.Name,
			Arguments: string(raw),
		})
	}

	return message.New("", role.Assistant, parts...)
}

// generateCallID synthesizes a tool call ID for responses that carry none.
func generateCallID(name string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("call_%s_%s", name, hex.EncodeToString(b))
}
