package main

import (
	"github.com/germanamz/softhouse/pkg/codingtoolbox/filesystem"
	"github.com/germanamz/softhouse/pkg/tools/mcpserver"
	"github.com/spf13/cobra"
)

func newMCPCommand(a *app) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the filesystem tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs := filesystem.New(root)

			srv := mcpserver.New("softhouse", version, a.log)
			if err := srv.Publish(fs.Tools()); err != nil {
				return err
			}

			a.log.InfoContext(cmd.Context(), "serving filesystem tools", "root", fs.Base(), "tools", srv.ToolNames())

			return srv.ServeStdio(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "directory relative paths resolve against (default: working directory)")

	return cmd
}
