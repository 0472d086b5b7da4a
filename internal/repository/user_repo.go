package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/spark/internal/db"
	"github.com/oggyb/spark/internal/geo"
)

// UserRepository is the user directory: profile records, preferences, status and location.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a new user. A duplicate email surfaces as gorm.ErrDuplicatedKey.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByID returns gorm.ErrRecordNotFound (wrapped) when the user does not exist.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &u, nil
}

// FindByIDs loads users keyed by id. Missing ids are simply absent from the map.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]db.User, error) {
	out := make(map[string]db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// Update applies the given column values to a single user.
func (r *UserRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return fmt.Errorf("update user %s: %w", id, err)
	}
	return nil
}

// CandidateFilter describes the demographic part of a feed query.
//
// A candidate qualifies when BornAfter < birthday <= BornOnOrBefore.
// Box, when set, restricts coordinates to a bounding box; users without a location are
// then excluded.
type CandidateFilter struct {
	Genders        []db.Gender
	Exclude        []string
	BornAfter      time.Time
	BornOnOrBefore time.Time
	Box            *geo.Box
}

func (r *UserRepository) candidateQuery(ctx context.Context, f CandidateFilter) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("status = ?", db.StatusActive).
		Where("gender IN ?", f.Genders).
		Where("birthday > ? AND birthday <= ?", f.BornAfter, f.BornOnOrBefore)

	if len(f.Exclude) > 0 {
		q = q.Where("id NOT IN ?", f.Exclude)
	}

	if f.Box != nil {
		q = q.Where("latitude IS NOT NULL AND longitude IS NOT NULL").
			Where("latitude BETWEEN ? AND ?", f.Box.MinLat, f.Box.MaxLat)
		if !f.Box.WrapsLongitude {
			q = q.Where("longitude BETWEEN ? AND ?", f.Box.MinLon, f.Box.MaxLon)
		}
	}
	return q
}

// FindCandidates returns users matching f, oldest accounts first.
// limit <= 0 means no limit (used by the geo path, which filters further in memory).
func (r *UserRepository) FindCandidates(ctx context.Context, f CandidateFilter, limit int) ([]db.User, error) {
	var users []db.User
	q := r.candidateQuery(ctx, f).Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	return users, nil
}

// CountCandidates counts every user matching f.
func (r *UserRepository) CountCandidates(ctx context.Context, f CandidateFilter) (int64, error) {
	var count int64
	if err := r.candidateQuery(ctx, f).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count candidates: %w", err)
	}
	return count, nil
}
