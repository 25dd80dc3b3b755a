package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/germanamz/softhouse/pkg/agentctx"
	"github.com/germanamz/softhouse/pkg/chats/content"
	"github.com/germanamz/softhouse/pkg/tools/toolbox"
)

// callTool searches the agent's toolboxes for the named tool, executes it and
// logs the call.
func (a *Agent) callTool(ctx context.Context, tc content.ToolCall) content.ToolResult {
	start := time.Now()

	result := content.ToolResult{
		ToolCallID: tc.ID,
		Name:       tc.Name,
		Content:    fmt.Sprintf("tool not found: %s", tc.Name),
		IsError:    true,
	}
	if tb, ok := toolbox.Find(tc.Name, a.toolboxes...); ok {
		result = tb.Call(ctx, tc)
	}

	log := a.cfg.Options.Logger
	if log == nil {
		return result
	}

	attrs := append(agentctx.From(ctx).LogAttrs(),
		"tool", tc.Name,
		"duration", time.Since(start),
	)

	if result.IsError {
		log.WarnContext(ctx, "tool call failed", append(attrs, "error", result.Content)...)
	} else {
		log.DebugContext(ctx, "tool call", append(attrs, slog.Int("result_bytes", len(result.Content)))...)
	}

	return result
}
