package conversation

import (
	"context"
	"fmt"
	"slices"

	"github.com/zulandar/parley/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AppendOpts holds parameters for appending a message.
type AppendOpts struct {
	ConversationID   string
	Role             string // user, assistant, system, tool
	Content          string
	ToolCalls        []models.ToolCall
	TokensUsed       int64
	ProcessingTimeMs *int64
	Metadata         map[string]any
}

// AppendMessage inserts a message and advances the conversation's counters in
// one transaction. The counter update is a single atomic UPDATE on the
// conversation row; the new message_count becomes the message's Seq. Appends
// to the same conversation are serialized in-process so that Seq and
// CreatedAt advance together. Archived conversations reject appends with
// ErrArchived.
func (s *Store) AppendMessage(ctx context.Context, opts AppendOpts) (*models.ConversationMessage, error) {
	if !models.ValidMessageRole(opts.Role) {
		return nil, fmt.Errorf("conversation: append: %w: message role %q", ErrInvalidInput, opts.Role)
	}
	if opts.TokensUsed < 0 {
		return nil, fmt.Errorf("conversation: append: %w: tokens used %d is negative", ErrInvalidInput, opts.TokensUsed)
	}

	mu := s.locks.forKey(opts.ConversationID)
	mu.Lock()
	defer mu.Unlock()

	now := s.now()
	msg := models.ConversationMessage{
		ID:               newID(),
		ConversationID:   opts.ConversationID,
		Role:             opts.Role,
		Content:          opts.Content,
		TokensUsed:       opts.TokensUsed,
		ProcessingTimeMs: opts.ProcessingTimeMs,
		CreatedAt:        now,
	}
	if len(opts.ToolCalls) > 0 {
		msg.ToolCalls = datatypes.JSONSlice[models.ToolCall](opts.ToolCalls)
	}
	if opts.Metadata != nil {
		msg.Metadata = datatypes.JSONMap(opts.Metadata)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Conversation{}).
			Where("id = ? AND status = ?", opts.ConversationID, models.StatusActive).
			Updates(map[string]interface{}{
				"message_count":   gorm.Expr("message_count + ?", 1),
				"total_tokens":    gorm.Expr("total_tokens + ?", opts.TokensUsed),
				"last_message_at": now,
				"updated_at":      now,
			})
		if result.Error != nil {
			return persistence("append to "+opts.ConversationID, result.Error)
		}
		if result.RowsAffected == 0 {
			// Distinguish a missing conversation from an archived one.
			conv, err := get(tx, opts.ConversationID)
			if err != nil {
				return err
			}
			return fmt.Errorf("conversation: append to %s: %w (status %q)", conv.ID, ErrArchived, conv.Status)
		}

		if err := tx.Model(&models.Conversation{}).
			Where("id = ?", opts.ConversationID).
			Select("message_count").Scan(&msg.Seq).Error; err != nil {
			return persistence("read sequence of "+opts.ConversationID, err)
		}

		if err := tx.Create(&msg).Error; err != nil {
			return persistence("insert message into "+opts.ConversationID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("conversation: message appended",
		"conversation_id", msg.ConversationID, "seq", msg.Seq, "role", msg.Role, "tokens", msg.TokensUsed)
	return &msg, nil
}

// ListMessages returns one page of the conversation's messages in order,
// plus the total message count.
func (s *Store) ListMessages(ctx context.Context, conversationID string, page Page) ([]models.ConversationMessage, int64, error) {
	db := s.db.WithContext(ctx)
	if err := exists(db, conversationID); err != nil {
		return nil, 0, err
	}
	page = page.normalize()

	q := db.Model(&models.ConversationMessage{}).Where("conversation_id = ?", conversationID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, persistence("count messages of "+conversationID, err)
	}
	msgs := []models.ConversationMessage{}
	if err := q.Order("seq ASC").Offset(page.Offset).Limit(page.Limit).Find(&msgs).Error; err != nil {
		return nil, 0, persistence("list messages of "+conversationID, err)
	}
	return msgs, total, nil
}

// RecentMessages returns the last n messages of the conversation, oldest
// first. n <= 0 returns no messages.
func (s *Store) RecentMessages(ctx context.Context, conversationID string, n int) ([]models.ConversationMessage, error) {
	db := s.db.WithContext(ctx)
	if err := exists(db, conversationID); err != nil {
		return nil, err
	}
	msgs := []models.ConversationMessage{}
	if n <= 0 {
		return msgs, nil
	}
	if err := db.Where("conversation_id = ?", conversationID).
		Order("seq DESC").Limit(n).Find(&msgs).Error; err != nil {
		return nil, persistence("recent messages of "+conversationID, err)
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// AllMessages returns every message of the conversation in order.
func (s *Store) AllMessages(ctx context.Context, conversationID string) ([]models.ConversationMessage, error) {
	db := s.db.WithContext(ctx)
	if err := exists(db, conversationID); err != nil {
		return nil, err
	}
	msgs := []models.ConversationMessage{}
	if err := db.Where("conversation_id = ?", conversationID).Order("seq ASC").Find(&msgs).Error; err != nil {
		return nil, persistence("messages of "+conversationID, err)
	}
	return msgs, nil
}

func exists(db *gorm.DB, id string) error {
	var count int64
	if err := db.Model(&models.Conversation{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return persistence("check "+id, err)
	}
	if count == 0 {
		return notFound(id)
	}
	return nil
}
