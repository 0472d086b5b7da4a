package app

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/spark/internal/cache"
	"github.com/oggyb/spark/internal/config"
	"github.com/oggyb/spark/internal/realtime"
)

// AppContext holds shared dependencies (DB, Redis, Logger, realtime hub, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Config     *config.Config

	// Realtime delivers fire-and-forget events to connected users.
	Realtime realtime.Emitter

	// Now is the clock used for age windows and message timestamps.
	Now func() time.Time
}

// New creates a new AppContext
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, cfg *config.Config, emitter realtime.Emitter) *AppContext {
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Config:     cfg,
		Realtime:   emitter,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithTimeout bounds one persistence call by QUERY_TIMEOUT.
func (a *AppContext) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.Config == nil || a.Config.DB.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.Config.DB.Timeout)
}
