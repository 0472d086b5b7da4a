package realtime

import (
	"log/slog"
	"sync"
)

// Session is one connected client on any transport.
// Emit must not block; transports queue and drop.
type Session interface {
	ID() string
	Emit(event string, payload any)
}

// Emitter is what the engines see of the realtime layer: fire-and-forget delivery to a user's room.
type Emitter interface {
	EmitToUser(userID, event string, payload any)
}

// Hub maps a user id to the sessions currently joined to that user's room.
// Nothing is persisted: events for users without sessions are dropped.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Session // userID -> sessionID -> session
	log   *slog.Logger
}

// NewHub returns an empty hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[string]Session),
		log:   log,
	}
}

// Join adds s to userID's room. Joining twice is a no-op.
func (h *Hub) Join(userID string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[string]Session)
		h.rooms[userID] = room
	}
	room[s.ID()] = s
	h.log.Debug("session joined room", "user", userID, "session", s.ID(), "sessions", len(room))
}

// Leave removes s from userID's room.
func (h *Hub) Leave(userID string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(userID, s.ID())
}

// Remove drops s from every room, on disconnect.
func (h *Hub) Remove(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID := range h.rooms {
		h.leaveLocked(userID, s.ID())
	}
}

func (h *Hub) leaveLocked(userID, sessionID string) {
	room, ok := h.rooms[userID]
	if !ok {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(h.rooms, userID)
	}
}

// IsJoined reports whether session s is in userID's room.
func (h *Hub) IsJoined(userID string, s Session) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[userID][s.ID()]
	return ok
}

// Sessions returns how many sessions are joined to userID.
func (h *Hub) Sessions(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// EmitToUser fans event out to every session of userID.
func (h *Hub) EmitToUser(userID, event string, payload any) {
	h.mu.RLock()
	targets := make([]Session, 0, len(h.rooms[userID]))
	for _, s := range h.rooms[userID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		h.log.Debug("no sessions for user, event dropped", "user", userID, "event", event)
		return
	}
	for _, s := range targets {
		s.Emit(event, payload)
	}
}
