package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/comigor/chatbot-go/internal/logger"
)

// ToolManager manages the available tools
type ToolManager struct {
	tools map[string]Tool
}

// NewToolManager creates a new ToolManager
func NewToolManager() *ToolManager {
	return &ToolManager{
		tools: make(map[string]Tool),
	}
}

// RegisterTool registers a new tool
func (m *ToolManager) RegisterTool(tool Tool) {
	m.tools[tool.Name()] = tool
}

// GetTool retrieves a tool by name
func (m *ToolManager) GetTool(name string) (Tool, error) {
	tool, ok := m.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool, nil
}

// List returns all registered tools ordered by name
func (m *ToolManager) List() []Tool {
	ts := make([]Tool, 0, len(m.tools))
	for _, t := range m.tools {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Name() < ts[j].Name() })
	return ts
}

// Attach registers every tool on an MCP server. Calls are dispatched back
// through the manager by tool name.
func (m *ToolManager) Attach(s *server.MCPServer) {
	for _, t := range m.List() {
		s.AddTool(t.Definition(), m.Handle)
		logger.L.Infow("registered MCP tool", "tool", t.Name())
	}
}

// Handle serves an MCP tool call. Unknown tools and tool failures are
// reported as error results so the client sees them instead of a protocol
// error.
func (m *ToolManager) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := logger.FromContext(ctx).With("tool", req.Params.Name)
	t, err := m.GetTool(req.Params.Name)
	if err != nil {
		log.Warnw("unknown tool requested")
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Infow("tool invoked")
	out, err := t.Run(ctx, req.GetArguments())
	if err != nil {
		log.Warnw("tool failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}
