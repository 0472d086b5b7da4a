package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/spark/internal/db"
	"github.com/oggyb/spark/internal/utils/pagination"
)

// MatchRepository stores undirected matches keyed by the canonical pair key.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateOrGet inserts a match between userID and matchedUserID unless one exists for the pair.
//
// Behavior:
//   - pair_key is unique, so (A,B) and (B,A) resolve to the same row even under concurrent calls.
//   - created is true only for the call that inserted the row.
//
// Example:
//
//	m, created, err := repo.CreateOrGet(ctx, alice, bob)
func (r *MatchRepository) CreateOrGet(ctx context.Context, userID, matchedUserID string) (*db.Match, bool, error) {
	m := db.Match{
		ID:            db.NewID(),
		UserID:        userID,
		MatchedUserID: matchedUserID,
		PairKey:       db.PairKey(userID, matchedUserID),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).
		Create(&m)
	if res.Error != nil {
		return nil, false, fmt.Errorf("create match: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return &m, true, nil
	}

	existing, err := r.FindByPair(ctx, userID, matchedUserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindByPair looks the match up regardless of argument order.
func (r *MatchRepository) FindByPair(ctx context.Context, a, b string) (*db.Match, error) {
	var m db.Match
	err := r.db.WithContext(ctx).Where("pair_key = ?", db.PairKey(a, b)).First(&m).Error
	if err != nil {
		return nil, fmt.Errorf("find match: %w", err)
	}
	return &m, nil
}

// CountByPair counts stored matches for the unordered pair (0 or 1).
func (r *MatchRepository) CountByPair(ctx context.Context, a, b string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&db.Match{}).Where("pair_key = ?", db.PairKey(a, b)).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count match: %w", err)
	}
	return n, nil
}

// CounterpartIDs returns the other side of every match userID takes part in.
func (r *MatchRepository) CounterpartIDs(ctx context.Context, userID string) ([]string, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Select("user_id", "matched_user_id").
		Where("user_id = ? OR matched_user_id = ?", userID, userID).
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("find matches: %w", err)
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Counterpart(userID))
	}
	return ids, nil
}

// ListForUser returns a page of userID's matches, newest first.
//
// Behavior:
//   - Counterparts in exclude (e.g. blocked either way) are skipped.
//   - search, when non-empty, is a case-insensitive substring match on the
//     counterpart's first or last name.
//   - total counts every match passing the same filters.
func (r *MatchRepository) ListForUser(
	ctx context.Context,
	userID string,
	exclude []string,
	search string,
	page pagination.Page,
) ([]db.Match, int64, error) {
	q := r.db.WithContext(ctx).
		Table("matches m").
		Joins("JOIN users u ON u.id = CASE WHEN m.user_id = ? THEN m.matched_user_id ELSE m.user_id END", userID).
		Where("m.user_id = ? OR m.matched_user_id = ?", userID, userID)

	if len(exclude) > 0 {
		q = q.Where("u.id NOT IN ?", exclude)
	}
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(u.first_name) LIKE ? OR LOWER(u.last_name) LIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count matches: %w", err)
	}

	var matches []db.Match
	err := q.Select("m.*").
		Order("m.created_at DESC, m.id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&matches).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list matches: %w", err)
	}
	return matches, total, nil
}

// SetLastMessage points the pair's match (if any) at its latest message.
func (r *MatchRepository) SetLastMessage(ctx context.Context, a, b, messageID string) error {
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("pair_key = ?", db.PairKey(a, b)).
		Update("last_message_id", messageID).Error
	if err != nil {
		return fmt.Errorf("set match last message: %w", err)
	}
	return nil
}
