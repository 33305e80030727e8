package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/comigor/chatbot-go/internal/logger"
)

// GormStore keeps conversations in SQLite through gorm.
type GormStore struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path and migrates the
// schema. Foreign keys are enabled so message rows cascade with their parent.
func Open(path string) (*GormStore, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// SQLite serialises writers anyway; one connection also keeps :memory: databases shared.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Conversation{}, &Message{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.L.Infow("sqlite history DB initialized", "path", path)

	return &GormStore{db: db}, nil
}

func (s *GormStore) CreateConversation(ctx context.Context, c *Conversation) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (s *GormStore) GetConversation(ctx context.Context, userID int64, id uint) (*Conversation, error) {
	var c Conversation
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation %d: %w", id, err)
	}
	return &c, nil
}

func (s *GormStore) ListConversations(ctx context.Context, f ListFilter) ([]Conversation, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", f.UserID)
	if f.VisibleOnly {
		q = q.Where("is_visible = ?", true)
	}
	switch f.Order {
	case ByCreated:
		q = q.Order("created_at DESC").Order("id DESC")
	default:
		q = q.Order("updated_at DESC").Order("id DESC")
	}

	var out []Conversation
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

func (s *GormStore) UpdateTitle(ctx context.Context, userID int64, id uint, title string) error {
	res := s.db.WithContext(ctx).Model(&Conversation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("title", title)
	if res.Error != nil {
		return fmt.Errorf("update title: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) TouchConversation(ctx context.Context, userID int64, id uint) error {
	res := s.db.WithContext(ctx).Model(&Conversation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("updated_at", s.db.NowFunc())
	if res.Error != nil {
		return fmt.Errorf("touch conversation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteConversation(ctx context.Context, userID int64, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Conversation{})
		if res.Error != nil {
			return fmt.Errorf("delete conversation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&Message{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		return nil
	})
}

func (s *GormStore) DeleteUserConversations(ctx context.Context, userID int64) (int64, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&Conversation{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("conversation_id IN (?)", owned).Delete(&Message{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		res := tx.Where("user_id = ?", userID).Delete(&Conversation{})
		if res.Error != nil {
			return fmt.Errorf("delete conversations: %w", res.Error)
		}
		removed = res.RowsAffected
		return nil
	})
	return removed, err
}

func (s *GormStore) AppendMessage(ctx context.Context, m *Message) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *GormStore) ListMessages(ctx context.Context, conversationID uint) ([]Message, error) {
	var out []Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
