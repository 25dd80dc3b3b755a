// Package tools provides the tool abstraction agents call into and the MCP
// (Model Context Protocol) bridges around it.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/softhouse/pkg/tools/toolbox]: Tool type and ToolBox for registering, listing, and calling tools
//   - [github.com/germanamz/softhouse/pkg/tools/mcpserver]: serves toolboxes to external MCP clients
//   - [github.com/germanamz/softhouse/pkg/tools/mcpclient]: turns the tools of external MCP servers into toolboxes
package tools
