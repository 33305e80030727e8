// Package history persists conversations and their messages.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/comigor/chatbot-go/internal/chat"
)

// Conversation is one thread of messages owned by a single user.
type Conversation struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UserID      int64         `gorm:"index;not null" json:"user_id"`
	Title       string        `gorm:"size:255;not null" json:"title"`
	ChatbotType chat.ChatType `gorm:"size:50;not null;default:general" json:"chatbot_type"`
	IsVisible   bool          `gorm:"not null;default:false" json:"is_visible"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Messages    []Message     `gorm:"constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// Message is a single turn. Messages are never updated after creation.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"index;not null" json:"conversation_id"`
	Role           chat.Role `gorm:"size:50;not null" json:"role"`
	Content        string    `gorm:"type:text" json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// State reports the lifecycle tag derived from the visibility flag.
func (c *Conversation) State() chat.State {
	if c.IsVisible {
		return chat.StateSaved
	}
	return chat.StateEphemeral
}

// ErrAlreadySaved is returned by MarkSaved for a saved conversation.
var ErrAlreadySaved = errors.New("conversation already saved")

// MarkSaved runs the save transition and flips the conversation visible.
func (c *Conversation) MarkSaved(ctx context.Context) error {
	state := c.State()
	lc := chat.NewLifecycle(&state)
	if !lc.CanSave(ctx) {
		return ErrAlreadySaved
	}
	if err := lc.Save(ctx); err != nil {
		return err
	}
	c.IsVisible = state == chat.StateSaved
	return nil
}

// Turns converts messages into role-tagged turns, preserving order.
func Turns(msgs []Message) []chat.Turn {
	out := make([]chat.Turn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, chat.Turn{Role: m.Role, Content: m.Content})
	}
	return out
}
