package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/comigor/chatbot-go/internal/config"
	"github.com/comigor/chatbot-go/internal/logger"
)

// ErrNotFound is returned when a conversation does not exist or belongs to
// another user.
var ErrNotFound = errors.New("conversation not found")

// Order selects the sort key of ListConversations. Both sort newest first.
type Order int

const (
	ByUpdated Order = iota
	ByCreated
)

// ListFilter narrows ListConversations.
type ListFilter struct {
	UserID      int64
	VisibleOnly bool
	Order       Order
}

// Store is the durable home of conversations and messages. Every
// conversation-scoped read or write takes the caller's user id so that a user
// can never reach another user's rows.
type Store interface {
	// CreateConversation inserts c together with any c.Messages.
	CreateConversation(ctx context.Context, c *Conversation) error
	GetConversation(ctx context.Context, userID int64, id uint) (*Conversation, error)
	ListConversations(ctx context.Context, f ListFilter) ([]Conversation, error)
	UpdateTitle(ctx context.Context, userID int64, id uint, title string) error
	// TouchConversation bumps updated_at.
	TouchConversation(ctx context.Context, userID int64, id uint) error
	DeleteConversation(ctx context.Context, userID int64, id uint) error
	// DeleteUserConversations removes every conversation of userID and their
	// messages, returning how many conversations were removed.
	DeleteUserConversations(ctx context.Context, userID int64) (int64, error)

	AppendMessage(ctx context.Context, m *Message) error
	// ListMessages returns the messages of a conversation oldest first.
	ListMessages(ctx context.Context, conversationID uint) ([]Message, error)
	Close() error
}

// NewStore opens the backend selected by cfg.Driver.
func NewStore(cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		logger.L.Warnw("using in-memory history; conversations are lost on restart")
		return NewMemoryStore(), nil
	case "sqlite", "":
		return Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
