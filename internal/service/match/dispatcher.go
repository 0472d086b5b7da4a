package match

import (
	"context"
	"fmt"
	"sync"

	"github.com/oggyb/spark/internal/app"
	"github.com/oggyb/spark/internal/repository"
)

// MatchMessage is the announcement each side receives; %s is the other user's name.
const MatchMessage = "It's a match! You and %s liked each other."

// MatchCreated is published once per newly stored match.
type MatchCreated struct {
	MatchID       string
	UserID        string
	MatchedUserID string
}

// Notifier delivers one notification to a user.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

// Dispatcher consumes MatchCreated events on its own goroutine and notifies
// both participants. A failed or dropped notification never affects the match.
type Dispatcher struct {
	appCtx   *app.AppContext
	notifier Notifier
	users    *repository.UserRepository

	events chan MatchCreated
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher with a queue of size events. Call Start
// before publishing and Close on shutdown.
func NewDispatcher(appCtx *app.AppContext, notifier Notifier, size int) *Dispatcher {
	if size <= 0 {
		size = 128
	}
	return &Dispatcher{
		appCtx:   appCtx,
		notifier: notifier,
		users:    repository.NewUserRepository(appCtx.DB),
		events:   make(chan MatchCreated, size),
	}
}

// Start launches the worker that drains published events. Call it once.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for ev := range d.events {
			d.handle(ev)
		}
	}()
}

// Publish queues ev without blocking. It returns false when the queue is full
// or the dispatcher is closed; the event is then dropped and logged.
func (d *Dispatcher) Publish(ev MatchCreated) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.appCtx.Logger.Warn("match event dropped, dispatcher closed", "match", ev.MatchID)
		return false
	}
	select {
	case d.events <- ev:
		return true
	default:
		d.appCtx.Logger.Warn("match event dropped, queue full", "match", ev.MatchID)
		return false
	}
}

// Close stops accepting events and waits until queued ones are handled.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.events)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) handle(ev MatchCreated) {
	ctx, cancel := d.appCtx.WithTimeout(context.Background())
	defer cancel()

	users, err := d.users.FindByIDs(ctx, []string{ev.UserID, ev.MatchedUserID})
	if err != nil {
		d.appCtx.Logger.Warn("match notification skipped", "match", ev.MatchID, "err", err)
		return
	}

	pairs := [][2]string{{ev.UserID, ev.MatchedUserID}, {ev.MatchedUserID, ev.UserID}}
	for _, p := range pairs {
		recipient, other := p[0], p[1]
		counterpart, ok := users[other]
		if !ok {
			d.appCtx.Logger.Warn("match notification skipped, user missing", "match", ev.MatchID, "user", other)
			continue
		}
		msg := fmt.Sprintf(MatchMessage, counterpart.DisplayName())
		if err := d.notifier.Notify(ctx, recipient, msg); err != nil {
			d.appCtx.Logger.Warn("match notification failed", "match", ev.MatchID, "user", recipient, "err", err)
		}
	}
}
