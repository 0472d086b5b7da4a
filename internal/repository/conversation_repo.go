package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/spark/internal/db"
)

// ConversationRepository owns conversations, their participants and unread counters.
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new repository bound to the given DB connection.
func NewConversationRepository(database *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: database}
}

// GetOrCreate returns the conversation between a and b, creating it on first use.
//
// Behavior:
//   - Identity is the canonical pair key, so argument order does not matter.
//   - Concurrent callers converge on one row via the unique pair_key index.
//   - New conversations start with both unread counters at 0.
//
// Example:
//
//	conv, err := repo.GetOrCreate(ctx, alice, bob) // same row as GetOrCreate(ctx, bob, alice)
func (r *ConversationRepository) GetOrCreate(ctx context.Context, a, b string) (*db.Conversation, error) {
	key := db.PairKey(a, b)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv := db.Conversation{ID: db.NewID(), PairKey: key}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).Create(&conv).Error; err != nil {
			return err
		}

		var stored db.Conversation
		if err := tx.Where("pair_key = ?", key).First(&stored).Error; err != nil {
			return err
		}

		participants := []db.ConversationParticipant{
			{ConversationID: stored.ID, UserID: a},
			{ConversationID: stored.ID, UserID: b},
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participants).Error
	})
	if err != nil {
		return nil, fmt.Errorf("get or create conversation: %w", err)
	}

	return r.findBy(ctx, "pair_key = ?", key)
}

// FindByID loads a conversation with its participants.
func (r *ConversationRepository) FindByID(ctx context.Context, id string) (*db.Conversation, error) {
	return r.findBy(ctx, "id = ?", id)
}

func (r *ConversationRepository) findBy(ctx context.Context, query string, arg any) (*db.Conversation, error) {
	var conv db.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where(query, arg).
		First(&conv).Error
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return &conv, nil
}

// ListForUser returns userID's conversations, most recent activity first.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]db.Conversation, error) {
	var convs []db.Conversation
	err := r.db.WithContext(ctx).
		Select("conversations.*").
		Preload("Participants").
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Order("COALESCE(conversations.last_message_at, conversations.created_at) DESC, conversations.id DESC").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// AppendMessage persists msg and updates the conversation in one transaction.
//
// Behavior:
//  1. Inserts the message.
//  2. Sets last_message_id / last_message_at.
//  3. Increments unread_count by 1 for every participant except the sender,
//     as an atomic SQL update rather than a read-modify-write in memory.
//
// Returns the participants' unread counters after the update.
func (r *ConversationRepository) AppendMessage(ctx context.Context, msg *db.Message) (map[string]int, error) {
	var participants []db.ConversationParticipant

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		if err := tx.Model(&db.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Updates(map[string]any{
				"last_message_id": msg.ID,
				"last_message_at": msg.CreatedAt,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&db.ConversationParticipant{}).
			Where("conversation_id = ? AND user_id <> ?", msg.ConversationID, msg.SenderID).
			Update("unread_count", gorm.Expr("unread_count + 1")).Error; err != nil {
			return err
		}

		return tx.Where("conversation_id = ?", msg.ConversationID).Find(&participants).Error
	})
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	counts := make(map[string]int, len(participants))
	for _, p := range participants {
		counts[p.UserID] = p.UnreadCount
	}
	return counts, nil
}

// ResetUnread sets userID's unread counter in the conversation back to 0.
func (r *ConversationRepository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	err := r.db.WithContext(ctx).
		Model(&db.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("unread_count", 0).Error
	if err != nil {
		return fmt.Errorf("reset unread: %w", err)
	}
	return nil
}
