package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/germanamz/softhouse/pkg/chats/chat"
	"github.com/germanamz/softhouse/pkg/chats/content"
	"github.com/germanamz/softhouse/pkg/chats/message"
	"github.com/germanamz/softhouse/pkg/chats/role"
	"github.com/germanamz/softhouse/pkg/providers/gemini"
	"github.com/germanamz/softhouse/pkg/providers/internal/providertest"
	"github.com/germanamz/softhouse/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, replies ...providertest.Reply) (*providertest.Server, *gemini.Adapter) {
	t.Helper()

	srv := providertest.New(t, replies...)
	a := gemini.New(srv.URL, "gm-key", "gemini-2.0-flash")
	a.Temperature = 0.5

	return srv, a
}

func candidate(in, out int, parts ...map[string]any) providertest.Reply {
	return providertest.JSON(map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"role": "model", "parts": parts},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{
			"promptTokenCount":     in,
			"candidatesTokenCount": out,
			"totalTokenCount":      in + out,
		},
	})
}

func contentsOf(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	return providertest.Objects(t, body, "contents")
}

func firstPart(t *testing.T, entry map[string]any) map[string]any {
	t.Helper()

	parts, ok := entry["parts"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, parts)
	return parts[0].(map[string]any)
}

func TestComplete_Text(t *testing.T) {
	rc, a := serve(t, candidate(10, 5, map[string]any{"text": "Architecture ready."}))

	c := chat.New(
		message.NewText("", role.System, "You are Principal Software Architect."),
		message.NewText("", role.User, "Design the folder layout"),
	)

	msg, err := a.Complete(context.Background(), c, nil)
	require.NoError(t, err)
	assert.Equal(t, role.Assistant, msg.Role)
	assert.Equal(t, "Architecture ready.", msg.TextContent())

	req := rc.Request(t, 0)
	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", req.Path)
	assert.Equal(t, "gm-key", req.Header.Get("x-goog-api-key"))

	body := req.Body
	cfg, _ := body["generationConfig"].(map[string]any)
	assert.InDelta(t, 0.5, cfg["temperature"], 1e-4)

	si, ok := body["systemInstruction"].(map[string]any)
	require.True(t, ok, "system prompt travels out of band")
	assert.Equal(t, "You are Principal Software Architect.", firstPart(t, si)["text"])

	contents := contentsOf(t, body)
	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0]["role"])

	last, ok := a.Usage.Last()
	require.True(t, ok)
	assert.Equal(t, 10, last.InputTokens)
	assert.Equal(t, 5, last.OutputTokens)
}

func TestComplete_RolesAlternate(t *testing.T) {
	rc, a := serve(t, candidate(1, 1, map[string]any{"text": "ok"}))

	c := chat.New(
		message.NewText("", role.User, "Draft a PRD"),
		message.NewText("", role.Assistant, "Which stack?"),
		message.NewText("", role.User, "Flask"),
		message.NewText("", role.User, "and SQLite"),
	)

	_, err := a.Complete(context.Background(), c, nil)
	require.NoError(t, err)

	contents := contentsOf(t, rc.Request(t, 0).Body)
	require.Len(t, contents, 3, "adjacent user turns are merged")

	roles := make([]any, 0, len(contents))
	for _, e := range contents {
		roles = append(roles, e["role"])
	}
	assert.Equal(t, []any{"user", "model", "user"}, roles)
	assert.Len(t, contents[2]["parts"], 2)
}

func TestComplete_FunctionCallRoundTrip(t *testing.T) {
	rc, a := serve(t,
		candidate(15, 8, map[string]any{"functionCall": map[string]any{"name": "create_folder", "args": map[string]any{"path": "output/app"}}}),
		candidate(25, 12, map[string]any{"text": "Created."}),
	)

	tools := []toolbox.Tool{{
		Name:        "create_folder",
		Description: "Create a directory",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"Directory path"}},"required":["path"]}`),
	}}

	c := chat.New(message.NewText("", role.User, "Scaffold the project"))

	msg, err := a.Complete(context.Background(), c, tools)
	require.NoError(t, err)

	calls := msg.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "create_folder", calls[0].Name)
	assert.Contains(t, calls[0].ID, "call_create_folder_", "missing IDs are synthesized")
	assert.JSONEq(t, `{"path":"output/app"}`, calls[0].Arguments)

	toolSets, ok := rc.Request(t, 0).Body["tools"].([]any)
	require.True(t, ok)
	require.Len(t, toolSets, 1)
	decls := toolSets[0].(map[string]any)["functionDeclarations"].([]any)
	require.Len(t, decls, 1)
	decl := decls[0].(map[string]any)
	assert.Equal(t, "create_folder", decl["name"])
	params := decl["parameters"].(map[string]any)
	assert.Equal(t, "OBJECT", params["type"])
	assert.Equal(t, []any{"path"}, params["required"])

	c.Append(msg, message.New("", role.Tool, content.ToolResult{
		ToolCallID: calls[0].ID,
		Content:    "Successfully created directory: output/app",
	}))

	msg, err = a.Complete(context.Background(), c, tools)
	require.NoError(t, err)
	assert.Equal(t, "Created.", msg.TextContent())

	contents := contentsOf(t, rc.Request(t, 1).Body)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[2]["role"])
	fr, ok := firstPart(t, contents[2])["functionResponse"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "create_folder", fr["name"], "response name is resolved from the call ID")
	assert.Equal(t, map[string]any{"result": "Successfully created directory: output/app"}, fr["response"])

	total := a.Usage.Total()
	assert.Equal(t, 40, total.InputTokens)
	assert.Equal(t, 20, total.OutputTokens)
}

func TestComplete_ToolErrorReported(t *testing.T) {
	rc, a := serve(t, candidate(1, 1, map[string]any{"text": "I will pick another path."}))

	c := chat.New(
		message.NewText("", role.User, "Write run.py"),
		message.New("", role.Assistant, content.ToolCall{ID: "c1", Name: "write_file", Arguments: `{"path":"run.py"}`}),
		message.New("", role.Tool, content.ToolResult{ToolCallID: "c1", Name: "write_file", Content: "file exists", IsError: true}),
	)

	_, err := a.Complete(context.Background(), c, nil)
	require.NoError(t, err)

	contents := contentsOf(t, rc.Request(t, 0).Body)
	require.Len(t, contents, 3)
	fr := firstPart(t, contents[2])["functionResponse"].(map[string]any)
	assert.Equal(t, map[string]any{"error": "file exists"}, fr["response"])
}

func TestComplete_Failures(t *testing.T) {
	t.Run("no candidates", func(t *testing.T) {
		_, a := serve(t, providertest.JSON(map[string]any{
			"candidates":    []any{},
			"usageMetadata": map[string]any{"promptTokenCount": 5},
		}))

		_, err := a.Complete(context.Background(), chat.New(message.NewText("", role.User, "Hi")), nil)
		require.Error(t, err)
		assert.EqualError(t, err, "gemini: empty candidates in response")
		assert.Equal(t, 5, a.Usage.Total().InputTokens, "usage is recorded before the error")
	})

	t.Run("api error", func(t *testing.T) {
		rc, a := serve(t, providertest.Fail(http.StatusUnauthorized, map[string]any{
			"error": map[string]any{"code": 401, "message": "API key not valid", "status": "UNAUTHENTICATED"},
		}))

		_, err := a.Complete(context.Background(), chat.New(message.NewText("", role.User, "Hi")), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gemini: status 401")
		assert.Contains(t, err.Error(), "API key not valid")
		assert.Equal(t, 1, rc.Count())
	})
}
