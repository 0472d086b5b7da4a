package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/spark/internal/db"
)

// RelationshipRepository stores the directed edges between users:
// likes, dislikes, blocks and reports.
type RelationshipRepository struct {
	db *gorm.DB
}

// NewRelationshipRepository creates a new repository bound to the given DB connection.
func NewRelationshipRepository(database *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: database}
}

// CreateLike stores user -> liked edge.
//
// Behavior:
//   - (user_id, liked_user_id) is unique, so a repeated like does not add a row.
//   - created reports whether this call inserted the row; on a repeat the existing
//     like is returned.
//
// Example:
//
//	like, created, err := repo.CreateLike(ctx, alice, bob)
func (r *RelationshipRepository) CreateLike(ctx context.Context, userID, likedUserID string) (*db.Like, bool, error) {
	like := db.Like{ID: db.NewID(), UserID: userID, LikedUserID: likedUserID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "liked_user_id"}},
			DoNothing: true,
		}).
		Create(&like)
	if res.Error != nil {
		return nil, false, fmt.Errorf("create like: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return &like, true, nil
	}

	var existing db.Like
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND liked_user_id = ?", userID, likedUserID).
		First(&existing).Error
	if err != nil {
		return nil, false, fmt.Errorf("reload like: %w", err)
	}
	return &existing, false, nil
}

// HasLiked checks whether userID has liked targetID.
func (r *RelationshipRepository) HasLiked(ctx context.Context, userID, targetID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("user_id = ? AND liked_user_id = ?", userID, targetID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return count > 0, nil
}

// CreateDislike stores user -> disliked edge; repeats return the existing row.
func (r *RelationshipRepository) CreateDislike(ctx context.Context, userID, dislikedUserID string) (*db.Dislike, error) {
	dislike := db.Dislike{ID: db.NewID(), UserID: userID, DislikedUserID: dislikedUserID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "disliked_user_id"}},
			DoNothing: true,
		}).
		Create(&dislike)
	if res.Error != nil {
		return nil, fmt.Errorf("create dislike: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return &dislike, nil
	}

	var existing db.Dislike
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND disliked_user_id = ?", userID, dislikedUserID).
		First(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("reload dislike: %w", err)
	}
	return &existing, nil
}

func (r *RelationshipRepository) CreateBlock(ctx context.Context, b *db.Block) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create block: %w", err)
	}
	return nil
}

func (r *RelationshipRepository) CreateReport(ctx context.Context, rep *db.Report) error {
	if rep.Status == "" {
		rep.Status = db.ReportPending
	}
	if err := r.db.WithContext(ctx).Create(rep).Error; err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// Exclusion queries. Each returns the ids on one side of one edge type.

func (r *RelationshipRepository) LikedIDs(ctx context.Context, userID string) ([]string, error) {
	return r.pluck(ctx, &db.Like{}, "liked_user_id", "user_id", userID)
}

func (r *RelationshipRepository) DislikedIDs(ctx context.Context, userID string) ([]string, error) {
	return r.pluck(ctx, &db.Dislike{}, "disliked_user_id", "user_id", userID)
}

func (r *RelationshipRepository) BlockedIDs(ctx context.Context, userID string) ([]string, error) {
	return r.pluck(ctx, &db.Block{}, "blocked_user_id", "user_id", userID)
}

func (r *RelationshipRepository) BlockedByIDs(ctx context.Context, userID string) ([]string, error) {
	return r.pluck(ctx, &db.Block{}, "user_id", "blocked_user_id", userID)
}

func (r *RelationshipRepository) ReportedIDs(ctx context.Context, userID string) ([]string, error) {
	return r.pluck(ctx, &db.Report{}, "reported_user_id", "user_id", userID)
}

func (r *RelationshipRepository) ReportedByIDs(ctx context.Context, userID string) ([]string, error) {
	return r.pluck(ctx, &db.Report{}, "user_id", "reported_user_id", userID)
}

// BlockedEitherWay returns every user blocked by, or blocking, userID.
func (r *RelationshipRepository) BlockedEitherWay(ctx context.Context, userID string) ([]string, error) {
	mine, err := r.BlockedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	theirs, err := r.BlockedByIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return append(mine, theirs...), nil
}

func (r *RelationshipRepository) pluck(ctx context.Context, model any, column, whereColumn, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(model).
		Where(whereColumn+" = ?", userID).
		Distinct().
		Pluck(column, &ids).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("pluck %s: %w", column, err)
	}
	return ids, nil
}
