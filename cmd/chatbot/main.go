package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/comigor/chatbot-go/internal/auth"
	"github.com/comigor/chatbot-go/internal/config"
	"github.com/comigor/chatbot-go/internal/conversation"
	"github.com/comigor/chatbot-go/internal/history"
	"github.com/comigor/chatbot-go/internal/llm"
	"github.com/comigor/chatbot-go/internal/logger"
	"github.com/comigor/chatbot-go/internal/server"
)

func main() {
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.L.Fatalw("failed to load configuration", "error", err)
	}
	logger.SetLevel(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		logger.L.Fatalw("invalid configuration", "error", err)
	}

	store, err := history.NewStore(cfg.Database)
	if err != nil {
		logger.L.Fatalw("failed to open history store", "error", err)
	}
	defer store.Close()

	// Initialize LLM client
	gateway := llm.NewGateway(llm.NewClient(cfg.LLM), cfg.LLM)
	svc := conversation.NewService(store, gateway)

	gin.SetMode(cfg.Server.Mode)
	router := server.New(svc, auth.NewVerifier(cfg.Auth.JWTSecret))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx, cfg.Server.Addr(), router); err != nil {
		logger.L.Errorw("server stopped", "error", err)
	}
}
