package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/comigor/chatbot-go/internal/chat"
	"github.com/comigor/chatbot-go/internal/conversation"
	"github.com/comigor/chatbot-go/internal/llm"
)

// AdHocService is the part of the conversation service the chat tool needs.
type AdHocService interface {
	AdHoc(ctx context.Context, input string, t chat.ChatType) (*conversation.Reply, error)
}

// ChatTool answers a single message with one of the chatbot personas. Nothing
// is persisted.
type ChatTool struct {
	svc AdHocService
}

func NewChatTool(svc AdHocService) *ChatTool {
	return &ChatTool{svc: svc}
}

func (t *ChatTool) Name() string { return "chat" }

func (t *ChatTool) Description() string {
	return "Send one message to the chatbot and return its reply. Optionally pick a persona with chat_type."
}

func (t *ChatTool) Definition() mcp.Tool {
	types := make([]string, 0, len(chat.Types))
	for _, typ := range chat.Types {
		types = append(types, string(typ))
	}
	return mcp.NewTool(t.Name(),
		mcp.WithDescription(t.Description()),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The user message"),
		),
		mcp.WithString("chat_type",
			mcp.Description("Persona to answer with; defaults to general"),
			mcp.Enum(types...),
		),
	)
}

func (t *ChatTool) Run(ctx context.Context, args map[string]any) (string, error) {
	message, _ := args["message"].(string)
	if strings.TrimSpace(message) == "" {
		return "", errors.New("message is required")
	}
	chatType, _ := args["chat_type"].(string)

	reply, err := t.svc.AdHoc(ctx, message, chat.ParseType(chatType))
	if err != nil {
		var cerr *llm.CompletionError
		if errors.As(err, &cerr) {
			return "", errors.New(cerr.Message())
		}
		return "", err
	}
	return reply.Response, nil
}
