package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// Tool is the interface for all tools
type Tool interface {
	Name() string
	Description() string
	// Definition describes the tool and its input schema to MCP clients.
	Definition() mcp.Tool
	Run(ctx context.Context, args map[string]any) (string, error)
}
