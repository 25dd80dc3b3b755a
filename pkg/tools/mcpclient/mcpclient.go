// Package mcpclient connects to external MCP servers and exposes their tools
// as toolboxes, so crew definitions can hand agents tools that live outside
// this process.
package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/germanamz/softhouse/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// clientInfo is what softhouse reports about itself during the handshake.
var clientInfo = &mcp.Implementation{Name: "softhouse", Version: "0.1.0"}

// Server says how to reach an MCP server. Command is spawned as a subprocess
// speaking MCP on stdio; URL names an SSE endpoint.
type Server struct {
	Name    string
	Command string
	Args    []string
	URL     string
}

// Validate requires a name and exactly one of Command and URL.
func (s Server) Validate() error {
	if s.Name == "" {
		return errors.New("mcpclient: server name is required")
	}
	if (s.Command == "") == (s.URL == "") {
		if s.Command == "" {
			return fmt.Errorf("mcpclient: server %q: command or url is required", s.Name)
		}
		return fmt.Errorf("mcpclient: server %q: command and url are mutually exclusive", s.Name)
	}
	return nil
}

func (s Server) transport() mcp.Transport {
	if s.URL != "" {
		return &mcp.SSEClientTransport{Endpoint: s.URL}
	}
	//nolint:gosec // command comes from the crew definition
	return &mcp.CommandTransport{Command: exec.Command(s.Command, s.Args...)}
}

// Client is an open session with one server.
type Client struct {
	name    string
	session *mcp.ClientSession
}

// Connect validates s, starts or dials the server and completes the MCP
// handshake.
func Connect(ctx context.Context, s Server) (*Client, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return open(ctx, s.Name, s.transport())
}

func open(ctx context.Context, name string, t mcp.Transport) (*Client, error) {
	session, err := mcp.NewClient(clientInfo, nil).Connect(ctx, t, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: %s: connect: %w", name, err)
	}
	return &Client{name: name, session: session}, nil
}

func (c *Client) Name() string { return c.name }

// Close ends the session and stops a spawned subprocess.
func (c *Client) Close() error {
	return c.session.Close()
}

// ToolBox mirrors the server's tools into a toolbox named after the server.
// Every handler forwards to CallTool.
func (c *Client) ToolBox(ctx context.Context) (*toolbox.ToolBox, error) {
	listed, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: %s: list tools: %w", c.name, err)
	}

	tb := toolbox.New(c.name)
	for _, remote := range listed.Tools {
		schema, err := json.Marshal(remote.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("mcpclient: %s: schema of %q: %w", c.name, remote.Name, err)
		}

		if err := tb.Register(toolbox.Tool{
			Name:        remote.Name,
			Description: remote.Description,
			InputSchema: schema,
			Handler:     c.forward(remote.Name),
		}); err != nil {
			return nil, fmt.Errorf("mcpclient: %s: %w", c.name, err)
		}
	}

	return tb, nil
}

func (c *Client) forward(tool string) toolbox.Handler {
	return func(ctx context.Context, input json.RawMessage) (string, error) {
		return c.CallTool(ctx, tool, input)
	}
}

// CallTool runs a tool on the server with the given JSON arguments. A result
// the server flags as an error comes back as a Go error holding its text.
func (c *Client) CallTool(ctx context.Context, tool string, arguments json.RawMessage) (string, error) {
	params := &mcp.CallToolParams{Name: tool, Arguments: map[string]any{}}
	if len(arguments) > 0 {
		if !json.Valid(arguments) {
			return "", fmt.Errorf("mcpclient: %s: invalid arguments for %s: %s", c.name, tool, arguments)
		}
		params.Arguments = arguments
	}

	res, err := c.session.CallTool(ctx, params)
	if err != nil {
		return "", fmt.Errorf("mcpclient: %s: call %s: %w", c.name, tool, err)
	}

	out := resultText(res)
	if res.IsError {
		return "", fmt.Errorf("mcpclient: %s: %s failed: %s", c.name, tool, out)
	}
	return out, nil
}

// resultText joins the text items of res, one per line. A result without
// text falls back to its structured content rendered as JSON.
func resultText(res *mcp.CallToolResult) string {
	var (
		b     strings.Builder
		texts int
	)
	for _, item := range res.Content {
		tc, ok := item.(*mcp.TextContent)
		if !ok {
			continue
		}
		if texts > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(tc.Text)
		texts++
	}

	if texts == 0 && res.StructuredContent != nil {
		if raw, err := json.Marshal(res.StructuredContent); err == nil {
			return string(raw)
		}
	}
	return b.String()
}
