// Package testutil wires in-memory SQLite and miniredis for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oggyb/spark/internal/app"
	"github.com/oggyb/spark/internal/cache"
	"github.com/oggyb/spark/internal/config"
	"github.com/oggyb/spark/internal/db"
	"github.com/oggyb/spark/internal/logger"
)

// NewDB opens a migrated in-memory SQLite database private to the test.
// A single connection serialises access so goroutines in a test never see "database is locked".
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return gdb
}

// NewRedis starts a miniredis server and returns a cache bound to it.
func NewRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Client.Close() })
	return rc, mr
}

// CreateUser inserts an active 30-year-old user with a unique email.
// mutate may adjust any field before the insert.
func CreateUser(t *testing.T, gdb *gorm.DB, firstName string, mutate func(u *db.User)) db.User {
	t.Helper()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	u := db.User{
		ID:               db.NewID(),
		Email:            strings.ToLower(firstName) + "-" + db.NewID()[24:] + "@example.com",
		PasswordHash:     "x",
		FirstName:        firstName,
		LastName:         "Test",
		Gender:           db.GenderFemale,
		Birthday:         today.AddDate(-30, 0, 0),
		GenderPreference: []db.Gender{db.GenderMale, db.GenderFemale},
		MinAge:           18,
		MaxAge:           100,
		MaxDistanceKm:    50,
		Status:           db.StatusActive,
	}
	if mutate != nil {
		mutate(&u)
	}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", firstName, err)
	}
	return u
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Emitted is one event captured by RecordingEmitter.
type Emitted struct {
	UserID  string
	Event   string
	Payload any
}

// RecordingEmitter is a realtime.Emitter that keeps every event in memory.
type RecordingEmitter struct {
	mu     sync.Mutex
	events []Emitted
}

func (r *RecordingEmitter) EmitToUser(userID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Emitted{UserID: userID, Event: event, Payload: payload})
}

// Events returns a copy of what was emitted, optionally only events named event.
func (r *RecordingEmitter) Events(event string) []Emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Emitted
	for _, e := range r.events {
		if event == "" || e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// NewAppContext wires a fresh SQLite DB, miniredis and a RecordingEmitter.
func NewAppContext(t *testing.T) (*app.AppContext, *RecordingEmitter, *miniredis.Miniredis) {
	t.Helper()

	gdb := NewDB(t)
	rc, mr := NewRedis(t)

	cfg := &config.Config{}
	cfg.DB.Timeout = 5 * time.Second
	cfg.Feed.BatchSize = 1
	cfg.Match.LockTTL = 5 * time.Second

	emitter := &RecordingEmitter{}
	return app.New(gdb, rc, logger.Discard(), cfg, emitter), emitter, mr
}
