// Package conversation coordinates stored conversations, prompt composition
// and the completion gateway for each chat request.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/comigor/chatbot-go/internal/chat"
	"github.com/comigor/chatbot-go/internal/history"
	"github.com/comigor/chatbot-go/internal/llm"
	"github.com/comigor/chatbot-go/internal/logger"
	"github.com/comigor/chatbot-go/internal/prompt"
)

// titleTurns is how many leading turns feed title generation.
const titleTurns = 3

const titleInstruction = "Generate a short, descriptive title (at most 6 words) for the conversation above. Respond with the title only."

type Service struct {
	store history.Store
	llm   llm.Completer
	now   func() time.Time
}

func NewService(store history.Store, completer llm.Completer) *Service {
	return &Service{
		store: store,
		llm:   completer,
		now:   time.Now,
	}
}

// Reply is the result of an ad-hoc or new-conversation exchange.
type Reply struct {
	Message        string        `json:"message"`
	Response       string        `json:"response"`
	CreatedAt      time.Time     `json:"created_at"`
	ChatbotType    chat.ChatType `json:"chatbot_type"`
	ConversationID uint          `json:"conversation_id,omitempty"`
}

// AdHoc answers a single message without persisting anything.
func (s *Service) AdHoc(ctx context.Context, input string, t chat.ChatType) (*Reply, error) {
	if strings.TrimSpace(input) == "" {
		return nil, invalid("Message is required")
	}
	t = normalizeType(t)

	var text string
	ex := newExchange("adhoc", exchangeSteps{
		complete: func(ctx context.Context) (err error) {
			text, err = s.llm.Complete(ctx, t, prompt.Compose(t, nil, input))
			return err
		},
	})
	if err := ex.Run(ctx); err != nil {
		return nil, err
	}

	return &Reply{
		Message:     input,
		Response:    text,
		CreatedAt:   s.now(),
		ChatbotType: t,
	}, nil
}

type NewExchangeInput struct {
	UserID      int64
	Message     string
	ChatbotType chat.ChatType
	// Context is caller-held prior conversation, not read from the store.
	Context []chat.Turn
}

// NewExchange starts a fresh (unsaved) conversation with one user message and
// the assistant's reply. The user message stays stored when completion fails.
func (s *Service) NewExchange(ctx context.Context, in NewExchangeInput) (*Reply, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, invalid("Message is required")
	}
	t := normalizeType(in.ChatbotType)
	log := logger.FromContext(ctx).With("user_id", in.UserID, "chatbot_type", string(t))

	conv := &history.Conversation{
		UserID:      in.UserID,
		Title:       clipTitle(in.Message),
		ChatbotType: t,
	}
	userMsg := &history.Message{Role: chat.RoleUser, Content: in.Message}
	var text string

	ex := newExchange("new", exchangeSteps{
		storeUser: func(ctx context.Context) error {
			if err := s.store.CreateConversation(ctx, conv); err != nil {
				log.Errorw("failed to create conversation", "error", err)
				return err
			}
			userMsg.ConversationID = conv.ID
			if err := s.store.AppendMessage(ctx, userMsg); err != nil {
				log.Errorw("failed to append user message", "conversation_id", conv.ID, "error", err)
				return err
			}
			return nil
		},
		complete: func(ctx context.Context) (err error) {
			prior := dropTrailingInput(in.Context, in.Message)
			text, err = s.llm.Complete(ctx, t, prompt.Compose(t, prior, in.Message))
			if err != nil {
				log.Warnw("completion failed, user message kept", "conversation_id", conv.ID, "error", err)
			}
			return err
		},
		storeReply: func(ctx context.Context) error {
			aiMsg := &history.Message{ConversationID: conv.ID, Role: chat.RoleAssistant, Content: text}
			if err := s.store.AppendMessage(ctx, aiMsg); err != nil {
				log.Errorw("failed to append assistant message", "conversation_id", conv.ID, "error", err)
				return err
			}
			return nil
		},
	})
	if err := ex.Run(ctx); err != nil {
		return nil, err
	}

	log.Infow("conversation started", "conversation_id", conv.ID)
	return &Reply{
		Message:        in.Message,
		Response:       text,
		CreatedAt:      userMsg.CreatedAt,
		ChatbotType:    t,
		ConversationID: conv.ID,
	}, nil
}

type ContinueInput struct {
	UserID         int64
	ConversationID uint
	Message        string
}

type ContinueOutput struct {
	UserMessage history.Message `json:"user_message"`
	AIMessage   history.Message `json:"ai_message"`
}

// Continue appends a message to a stored conversation and asks for a reply
// using its full stored history.
func (s *Service) Continue(ctx context.Context, in ContinueInput) (*ContinueOutput, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, invalid("Message content is required")
	}
	log := logger.FromContext(ctx).With("user_id", in.UserID, "conversation_id", in.ConversationID)

	// Ownership is checked before anything is written.
	conv, err := s.store.GetConversation(ctx, in.UserID, in.ConversationID)
	if err != nil {
		return nil, err
	}

	userMsg := &history.Message{ConversationID: conv.ID, Role: chat.RoleUser, Content: in.Message}
	aiMsg := &history.Message{ConversationID: conv.ID, Role: chat.RoleAssistant}

	ex := newExchange("continue", exchangeSteps{
		storeUser: func(ctx context.Context) error {
			if err := s.store.AppendMessage(ctx, userMsg); err != nil {
				log.Errorw("failed to append user message", "error", err)
				return err
			}
			return nil
		},
		complete: func(ctx context.Context) error {
			stored, err := s.store.ListMessages(ctx, conv.ID)
			if err != nil {
				log.Errorw("failed to load history", "error", err)
				return err
			}
			prior := make([]chat.Turn, 0, len(stored))
			for _, m := range stored {
				if m.ID == userMsg.ID {
					continue
				}
				prior = append(prior, chat.Turn{Role: m.Role, Content: m.Content})
			}

			aiMsg.Content, err = s.llm.Complete(ctx, conv.ChatbotType, prompt.Compose(conv.ChatbotType, prior, in.Message))
			if err != nil {
				log.Warnw("completion failed, user message kept", "error", err)
			}
			return err
		},
		storeReply: func(ctx context.Context) error {
			if err := s.store.AppendMessage(ctx, aiMsg); err != nil {
				log.Errorw("failed to append assistant message", "error", err)
				return err
			}
			if err := s.store.TouchConversation(ctx, in.UserID, conv.ID); err != nil {
				log.Warnw("failed to bump updated_at", "error", err)
			}
			return nil
		},
	})
	if err := ex.Run(ctx); err != nil {
		return nil, err
	}

	return &ContinueOutput{UserMessage: *userMsg, AIMessage: *aiMsg}, nil
}

type SaveInput struct {
	UserID      int64
	Messages    []chat.Turn
	ChatbotType chat.ChatType
}

// Save stores a client-held transcript as a new saved conversation and names
// it. Title generation failures fall back to the clipped first message.
func (s *Service) Save(ctx context.Context, in SaveInput) (*history.Conversation, error) {
	if len(in.Messages) == 0 {
		return nil, invalid("Messages are required")
	}
	for _, m := range in.Messages {
		if !m.Role.Valid() {
			return nil, invalid(fmt.Sprintf("Invalid message role %q", m.Role))
		}
	}
	t := normalizeType(in.ChatbotType)
	log := logger.FromContext(ctx).With("user_id", in.UserID, "chatbot_type", string(t))

	conv := &history.Conversation{
		UserID:      in.UserID,
		Title:       clipTitle(in.Messages[0].Content),
		ChatbotType: t,
		Messages:    make([]history.Message, 0, len(in.Messages)),
	}
	if err := conv.MarkSaved(ctx); err != nil {
		return nil, err
	}
	for _, m := range in.Messages {
		conv.Messages = append(conv.Messages, history.Message{Role: m.Role, Content: m.Content})
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		log.Errorw("failed to save conversation", "error", err)
		return nil, err
	}

	if title, ok := s.generateTitle(ctx, t, in.Messages); ok {
		if err := s.store.UpdateTitle(ctx, in.UserID, conv.ID, title); err != nil {
			log.Warnw("failed to store generated title", "conversation_id", conv.ID, "error", err)
		} else {
			conv.Title = title
		}
	}

	log.Infow("conversation saved", "conversation_id", conv.ID, "messages", len(conv.Messages))
	return conv, nil
}

func (s *Service) generateTitle(ctx context.Context, t chat.ChatType, msgs []chat.Turn) (string, bool) {
	head := msgs
	if len(head) > titleTurns {
		head = head[:titleTurns]
	}
	turns := append([]chat.Turn(nil), head...)
	turns = append(turns, chat.Turn{Role: chat.RoleUser, Content: titleInstruction})

	text, err := s.llm.Complete(ctx, t, turns)
	if err != nil {
		logger.FromContext(ctx).Warnw("title generation failed, using first message", "error", err)
		return "", false
	}
	title := cleanTitle(text)
	if title == "" {
		return "", false
	}
	return clipTitle(title), true
}

// List returns the caller's saved conversations, most recently updated first.
func (s *Service) List(ctx context.Context, userID int64) ([]Summary, error) {
	convs, err := s.store.ListConversations(ctx, history.ListFilter{UserID: userID, VisibleOnly: true})
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(convs))
	for _, c := range convs {
		msgs, err := s.store.ListMessages(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(c, msgs))
	}
	return out, nil
}

// History flattens every conversation of the caller, newest conversation
// first, into user/assistant pairs.
func (s *Service) History(ctx context.Context, userID int64) ([]HistoryEntry, error) {
	convs, err := s.store.ListConversations(ctx, history.ListFilter{UserID: userID, Order: history.ByCreated})
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0)
	for _, c := range convs {
		msgs, err := s.store.ListMessages(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, pairEntries(msgs)...)
	}
	return out, nil
}

// ConversationHistory lists one conversation message by message.
func (s *Service) ConversationHistory(ctx context.Context, userID int64, id uint) ([]HistoryEntry, error) {
	if _, err := s.store.GetConversation(ctx, userID, id); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	return singleEntries(msgs), nil
}

// Get returns one conversation with its messages.
func (s *Service) Get(ctx context.Context, userID int64, id uint) (*history.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	conv.Messages = msgs
	return conv, nil
}

func (s *Service) Delete(ctx context.Context, userID int64, id uint) error {
	return s.store.DeleteConversation(ctx, userID, id)
}

// Clear removes all of the caller's conversations. Clearing an empty history
// succeeds.
func (s *Service) Clear(ctx context.Context, userID int64) (int64, error) {
	n, err := s.store.DeleteUserConversations(ctx, userID)
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Infow("history cleared", "user_id", userID, "conversations", n)
	return n, nil
}

// IsNotFound reports whether err means the conversation is missing or foreign.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func normalizeType(t chat.ChatType) chat.ChatType {
	if t == "" {
		return chat.TypeGeneral
	}
	if t.Valid() {
		return t
	}
	p, _ := chat.Lookup(t)
	return p.Type
}

// dropTrailingInput removes a final user turn equal to input, since clients
// may send the whole transcript including the message being asked.
func dropTrailingInput(turns []chat.Turn, input string) []chat.Turn {
	if n := len(turns); n > 0 && turns[n-1].Role == chat.RoleUser && turns[n-1].Content == input {
		return turns[:n-1]
	}
	return turns
}
