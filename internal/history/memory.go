package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/comigor/chatbot-go/internal/chat"
)

// MemoryStore is a process-local Store, used for tests and the "memory"
// database driver.
type MemoryStore struct {
	mu            sync.Mutex
	nextConv      uint
	nextMsg       uint
	conversations map[uint]Conversation
	messages      map[uint][]Message
	now           func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		conversations: make(map[uint]Conversation),
		messages:      make(map[uint][]Message),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) CreateConversation(_ context.Context, c *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextConv++
	now := s.now()
	c.ID = s.nextConv
	if c.ChatbotType == "" {
		c.ChatbotType = chat.TypeGeneral
	}
	c.CreatedAt, c.UpdatedAt = now, now

	for i := range c.Messages {
		s.nextMsg++
		c.Messages[i].ID = s.nextMsg
		c.Messages[i].ConversationID = c.ID
		c.Messages[i].CreatedAt = now
	}
	s.messages[c.ID] = append([]Message(nil), c.Messages...)

	stored := *c
	stored.Messages = nil
	s.conversations[c.ID] = stored
	return nil
}

func (s *MemoryStore) GetConversation(_ context.Context, userID int64, id uint) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) ListConversations(_ context.Context, f ListFilter) ([]Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Conversation, 0)
	for _, c := range s.conversations {
		if c.UserID != f.UserID || (f.VisibleOnly && !c.IsVisible) {
			continue
		}
		out = append(out, c)
	}

	key := func(c Conversation) time.Time { return c.UpdatedAt }
	if f.Order == ByCreated {
		key = func(c Conversation) time.Time { return c.CreatedAt }
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if !ki.Equal(kj) {
			return ki.After(kj)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) UpdateTitle(_ context.Context, userID int64, id uint, title string) error {
	return s.update(userID, id, func(c *Conversation) { c.Title = title })
}

func (s *MemoryStore) TouchConversation(_ context.Context, userID int64, id uint) error {
	return s.update(userID, id, func(*Conversation) {})
}

func (s *MemoryStore) update(userID int64, id uint, fn func(*Conversation)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	fn(&c)
	c.UpdatedAt = s.now()
	s.conversations[id] = c
	return nil
}

func (s *MemoryStore) DeleteConversation(_ context.Context, userID int64, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

func (s *MemoryStore) DeleteUserConversations(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, c := range s.conversations {
		if c.UserID == userID {
			delete(s.conversations, id)
			delete(s.messages, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, m *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[m.ConversationID]; !ok {
		return ErrNotFound
	}
	s.nextMsg++
	m.ID = s.nextMsg
	m.CreatedAt = s.now()
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], *m)
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, conversationID uint) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Message(nil), s.messages[conversationID]...), nil
}

func (s *MemoryStore) Close() error { return nil }

// TickingClock returns a clock that advances one second per call, starting
// after base. Handy for deterministic ordering in tests.
func TickingClock(base time.Time) func() time.Time {
	var mu sync.Mutex
	tick := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
}
