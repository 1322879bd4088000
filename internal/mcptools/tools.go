package mcptools

import (
	"github.com/mark3labs/mcp-go/server"
)

// Tool name prefix for all MCP tools
const ToolPrefix = "keypad."

// Tool names
const (
	ToolPress   = ToolPrefix + "press"
	ToolClear   = ToolPrefix + "clear"
	ToolDisplay = ToolPrefix + "display"
)

// Register adds every keypad tool to s.
func Register(s *server.MCPServer, k *Keypad) {
	s.AddTool(k.PressTool(), k.HandlePress)
	s.AddTool(k.ClearTool(), k.HandleClear)
	s.AddTool(k.DisplayTool(), k.HandleDisplay)
}
