package conversation

import (
	"strings"
	"time"

	"github.com/comigor/chatbot-go/internal/chat"
	"github.com/comigor/chatbot-go/internal/history"
)

// Summary is one row of the saved-conversation list.
type Summary struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	LastMessage string    `json:"lastMessage"`
	Timestamp   time.Time `json:"timestamp"`
}

// HistoryEntry is a user/assistant pair, or a single message when only one
// slot is populated.
type HistoryEntry struct {
	ID        uint      `json:"id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

func summarize(c history.Conversation, msgs []history.Message) Summary {
	s := Summary{ID: c.ID, Title: c.Title, Timestamp: c.UpdatedAt}
	if len(msgs) > 0 {
		s.LastMessage = clipPreview(msgs[len(msgs)-1].Content)
	}
	return s
}

// pairEntries pairs message i with i+1 stepping by two; a dangling final
// message is dropped.
func pairEntries(msgs []history.Message) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(msgs)/2)
	for i := 0; i+1 < len(msgs); i += 2 {
		out = append(out, HistoryEntry{
			ID:        msgs[i].ID,
			Message:   msgs[i].Content,
			Response:  msgs[i+1].Content,
			CreatedAt: msgs[i].CreatedAt,
		})
	}
	return out
}

// singleEntries emits one entry per message with only its own slot filled.
// Blank messages are skipped.
func singleEntries(msgs []history.Message) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		e := HistoryEntry{ID: m.ID, CreatedAt: m.CreatedAt}
		if m.Role == chat.RoleAssistant {
			e.Response = m.Content
		} else {
			e.Message = m.Content
		}
		out = append(out, e)
	}
	return out
}
