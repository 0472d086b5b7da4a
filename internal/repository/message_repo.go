package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/spark/internal/db"
	"github.com/oggyb/spark/internal/utils/pagination"
)

// MessageRepository reads message history and moves message status forward.
// Inserts go through ConversationRepository.AppendMessage.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// List returns one page of a conversation's history in ascending chronological order.
//
// Behavior:
//   - Page 1 holds the newest messages; the page is fetched newest-first and then
//     reversed, so callers always render oldest -> newest.
//   - Ties on created_at are broken by id (UUIDv7, time-ordered).
//   - total is the number of messages in the conversation.
func (r *MessageRepository) List(ctx context.Context, conversationID string, page pagination.Page) ([]db.Message, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("conversation_id = ?", conversationID).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	var msgs []db.Message
	err := base.
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&msgs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}

	slices.Reverse(msgs)
	return msgs, total, nil
}

// FindInConversation returns gorm.ErrRecordNotFound (wrapped) unless the message
// belongs to the conversation.
func (r *MessageRepository) FindInConversation(ctx context.Context, conversationID, messageID string) (*db.Message, error) {
	var msg db.Message
	err := r.db.WithContext(ctx).
		Where("id = ? AND conversation_id = ?", messageID, conversationID).
		First(&msg).Error
	if err != nil {
		return nil, fmt.Errorf("find message: %w", err)
	}
	return &msg, nil
}

// MarkSeen stamps seen_at the first time a message is seen.
// Later calls leave the original seen_at in place. Returns the stored message.
func (r *MessageRepository) MarkSeen(ctx context.Context, messageID string, at time.Time) (*db.Message, error) {
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("id = ? AND seen_at IS NULL", messageID).
		Updates(map[string]any{"status": db.MessageSeen, "seen_at": at}).Error
	if err != nil {
		return nil, fmt.Errorf("mark message seen: %w", err)
	}
	return r.reload(ctx, messageID)
}

// MarkDelivered moves a Sent message to Delivered. Delivered or Seen messages are untouched.
func (r *MessageRepository) MarkDelivered(ctx context.Context, messageID string, at time.Time) (*db.Message, error) {
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("id = ? AND status = ?", messageID, db.MessageSent).
		Updates(map[string]any{"status": db.MessageDelivered, "delivered_at": at}).Error
	if err != nil {
		return nil, fmt.Errorf("mark message delivered: %w", err)
	}
	return r.reload(ctx, messageID)
}

func (r *MessageRepository) reload(ctx context.Context, messageID string) (*db.Message, error) {
	var msg db.Message
	if err := r.db.WithContext(ctx).Where("id = ?", messageID).First(&msg).Error; err != nil {
		return nil, fmt.Errorf("reload message: %w", err)
	}
	return &msg, nil
}
