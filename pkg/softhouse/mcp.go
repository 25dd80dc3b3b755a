package softhouse

import (
	"context"
	"errors"
	"log/slog"

	"github.com/germanamz/softhouse/pkg/tools/mcpclient"
	"github.com/germanamz/softhouse/pkg/tools/toolbox"
)

// ConnectMCPServers connects to every MCP server the definition declares and
// returns their toolboxes keyed by server name. The returned close function
// ends all sessions; it is safe to call when err is not nil.
func ConnectMCPServers(ctx context.Context, def Definition, log *slog.Logger) (map[string]*toolbox.ToolBox, func() error, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var clients []*mcpclient.Client
	closeAll := func() error {
		var errs []error
		for _, c := range clients {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}

	toolboxes := make(map[string]*toolbox.ToolBox, len(def.MCPServers))
	for _, m := range def.MCPServers {
		c, err := mcpclient.Connect(ctx, m.server())
		if err != nil {
			return nil, closeAll, err
		}
		clients = append(clients, c)

		tb, err := c.ToolBox(ctx)
		if err != nil {
			return nil, closeAll, err
		}

		log.InfoContext(ctx, "mcp server connected", "server", m.Name, "tools", len(tb.Tools()))
		toolboxes[m.Name] = tb
	}

	return toolboxes, closeAll, nil
}
