// Package toolbox defines the Tool type and the named collections agents look
// tools up in when the model requests them.
package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/germanamz/softhouse/pkg/chats/content"
)

// ErrDuplicateTool is returned by Register when a name is already taken.
var ErrDuplicateTool = errors.New("toolbox: duplicate tool")

// ToolBox is a named, ordered set of tools. Crew files refer to toolboxes by
// name.
type ToolBox struct {
	name  string
	order []string
	tools map[string]Tool
}

// New returns an empty ToolBox called name.
func New(name string) *ToolBox {
	return &ToolBox{name: name, tools: make(map[string]Tool)}
}

// Name returns the toolbox name.
func (tb *ToolBox) Name() string { return tb.name }

// Len returns the number of tools.
func (tb *ToolBox) Len() int { return len(tb.order) }

// Register adds tools in order. A tool without a name or handler, or one whose
// name is already registered, is rejected and nothing after it is added.
func (tb *ToolBox) Register(tools ...Tool) error {
	for _, t := range tools {
		switch {
		case strings.TrimSpace(t.Name) == "":
			return fmt.Errorf("toolbox %s: tool name is required", tb.name)
		case t.Handler == nil:
			return fmt.Errorf("toolbox %s: tool %q has no handler", tb.name, t.Name)
		}
		if _, ok := tb.tools[t.Name]; ok {
			return fmt.Errorf("%w: %s in %s", ErrDuplicateTool, t.Name, tb.name)
		}

		tb.tools[t.Name] = t
		tb.order = append(tb.order, t.Name)
	}
	return nil
}

// MustRegister is Register for fixed tool sets; it panics on error.
func (tb *ToolBox) MustRegister(tools ...Tool) {
	if err := tb.Register(tools...); err != nil {
		panic(err)
	}
}

// Get returns the named tool.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Tools returns the tools in registration order.
func (tb *ToolBox) Tools() []Tool {
	out := make([]Tool, 0, len(tb.order))
	for _, name := range tb.order {
		out = append(out, tb.tools[name])
	}
	return out
}

// Find returns the first toolbox in boxes that holds the named tool.
func Find(name string, boxes ...*ToolBox) (*ToolBox, bool) {
	for _, tb := range boxes {
		if tb == nil {
			continue
		}
		if _, ok := tb.tools[name]; ok {
			return tb, true
		}
	}
	return nil, false
}

// Call runs the tool named by tc. Failures never escape as Go errors: an
// unknown tool, malformed arguments, a handler error or a handler panic all
// come back as a ToolResult with IsError set so the model can react.
func (tb *ToolBox) Call(ctx context.Context, tc content.ToolCall) (res content.ToolResult) {
	res = content.ToolResult{ToolCallID: tc.ID, Name: tc.Name}

	t, ok := tb.tools[tc.Name]
	if !ok {
		return failed(res, "tool not found: %s", tc.Name)
	}

	args := strings.TrimSpace(tc.Arguments)
	if args == "" {
		args = "{}"
	}
	if !json.Valid([]byte(args)) {
		return failed(res, "invalid arguments for %s: not valid JSON", tc.Name)
	}

	defer func() {
		if r := recover(); r != nil {
			res = failed(content.ToolResult{ToolCallID: tc.ID, Name: tc.Name}, "tool %s panicked: %v", tc.Name, r)
		}
	}()

	out, err := t.Handler(ctx, json.RawMessage(args))
	if err != nil {
		return failed(res, "%s", err.Error())
	}

	res.Content = out
	return res
}

func failed(res content.ToolResult, format string, args ...any) content.ToolResult {
	res.Content = fmt.Sprintf(format, args...)
	res.IsError = true
	return res
}
