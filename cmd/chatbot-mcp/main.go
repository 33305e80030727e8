// Command chatbot-mcp serves the chatbot personas as MCP tools over stdio.
package main

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/comigor/chatbot-go/internal/config"
	"github.com/comigor/chatbot-go/internal/conversation"
	"github.com/comigor/chatbot-go/internal/history"
	"github.com/comigor/chatbot-go/internal/llm"
	"github.com/comigor/chatbot-go/internal/logger"
	"github.com/comigor/chatbot-go/pkg/tools"
)

const version = "0.1.0"

func main() {
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.L.Fatalw("failed to load configuration", "error", err)
	}
	logger.SetLevel(cfg.Log.Level)
	if cfg.LLM.APIKey == "" {
		logger.L.Fatalw("llm.api_key is required")
	}

	// Ad-hoc exchanges never touch the store.
	gateway := llm.NewGateway(llm.NewClient(cfg.LLM), cfg.LLM)
	svc := conversation.NewService(history.NewMemoryStore(), gateway)

	manager := tools.NewToolManager()
	manager.RegisterTool(tools.NewChatTool(svc))
	manager.RegisterTool(tools.PersonasTool{})

	s := server.NewMCPServer("chatbot", version, server.WithToolCapabilities(false))
	manager.Attach(s)

	if err := server.ServeStdio(s); err != nil {
		logger.L.Errorw("mcp server stopped", "error", err)
	}
}
