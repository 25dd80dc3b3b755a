// Package mcpserver publishes toolboxes to external clients over the Model
// Context Protocol, so editors and other agents can use the same tools the
// crew does.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/germanamz/softhouse/pkg/chats/content"
	"github.com/germanamz/softhouse/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server exposes the tools of one or more toolboxes. Calls are dispatched
// through toolbox.Call, so a failing tool is reported to the client as an
// error result rather than a protocol error.
type Server struct {
	sdk   *mcp.Server
	log   *slog.Logger
	owner map[string]string // tool name -> toolbox name
	names []string
}

// New creates a Server that announces itself as name/version. A nil log
// discards records.
func New(name, version string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Server{
		sdk:   mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		log:   log,
		owner: make(map[string]string),
	}
}

// Publish adds every tool of tb. Publishing a tool name twice, from the same
// or another toolbox, is an error and leaves the server unchanged.
func (s *Server) Publish(tb *toolbox.ToolBox) error {
	tools := tb.Tools()
	for _, t := range tools {
		if prev, ok := s.owner[t.Name]; ok {
			return fmt.Errorf("mcpserver: tool %q from %s is already published by %s", t.Name, tb.Name(), prev)
		}
	}

	for _, t := range tools {
		s.sdk.AddTool(describe(t), s.dispatch(tb, t.Name))
		s.owner[t.Name] = tb.Name()
		s.names = append(s.names, t.Name)
	}
	return nil
}

// ToolNames returns the published tool names in publication order.
func (s *Server) ToolNames() []string {
	return append([]string(nil), s.names...)
}

// Serve speaks MCP over in and out until ctx ends or the peer hangs up.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return s.run(ctx, &mcp.IOTransport{Reader: io.NopCloser(in), Writer: writeCloser{out}})
}

// ServeStdio speaks MCP over the process's stdin and stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.run(ctx, &mcp.StdioTransport{})
}

func (s *Server) run(ctx context.Context, transport mcp.Transport) error {
	s.log.InfoContext(ctx, "mcp server started", "tools", strings.Join(s.names, ","))
	return s.sdk.Run(ctx, transport)
}

func describe(t toolbox.Tool) *mcp.Tool {
	schema := t.InputSchema
	if len(schema) == 0 {
		schema = json.RawMessage(`{"type":"object"}`)
	}
	return &mcp.Tool{Name: t.Name, Description: t.Description, InputSchema: schema}
}

func (s *Server) dispatch(tb *toolbox.ToolBox, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := string(req.Params.Arguments)
		if args == "null" {
			args = ""
		}

		start := time.Now()
		res := tb.Call(ctx, content.ToolCall{Name: name, Arguments: args})

		attrs := []any{"toolbox", tb.Name(), "tool", name, "duration", time.Since(start)}
		if res.IsError {
			s.log.WarnContext(ctx, "mcp tool call failed", append(attrs, "error", res.Content)...)
		} else {
			s.log.DebugContext(ctx, "mcp tool call", attrs...)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: res.Content}},
			IsError: res.IsError,
		}, nil
	}
}

type writeCloser struct{ io.Writer }

func (writeCloser) Close() error { return nil }
