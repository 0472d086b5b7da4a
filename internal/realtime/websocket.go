package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	outboxSize     = 256
)

// WebSocketHandler upgrades /ws requests and runs one session per connection.
type WebSocketHandler struct {
	gw       *Gateway
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewWebSocketHandler accepts browser origins listed in origins ("*" allows all).
// Requests without an Origin header (native clients) are always accepted.
func NewWebSocketHandler(gw *Gateway, origins []string, log *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		gw:  gw,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
			},
		},
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	sess := &wsSession{
		id:   uuid.NewString(),
		conn: conn,
		out:  newOutbox[[]byte](outboxSize),
		log:  h.log,
	}
	h.log.Debug("websocket connected", "session", sess.id, "remote", r.RemoteAddr)

	go sess.writePump()
	sess.readPump(h.gw)
}

type wsSession struct {
	id   string
	conn *websocket.Conn
	out  *outbox[[]byte]
	log  *slog.Logger
}

func (s *wsSession) ID() string { return s.id }

// Emit queues a frame; it is dropped if the client is too slow or gone.
func (s *wsSession) Emit(event string, payload any) {
	frame, err := json.Marshal(Envelope[any]{Event: event, Data: payload})
	if err != nil {
		s.log.Error("failed to encode frame", "event", event, "err", err)
		return
	}
	if !s.out.push(frame) {
		s.log.Warn("frame dropped", "session", s.id, "event", event)
	}
}

func (s *wsSession) readPump(gw *Gateway) {
	defer func() {
		gw.Disconnect(s)
		s.out.close()
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read error", "session", s.id, "err", err)
			}
			return
		}

		var env Envelope[json.RawMessage]
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			s.Emit(EventError, ErrorReply{Message: "invalid frame"})
			continue
		}
		gw.Handle(s, env.Event, env.Data)
	}
}

func (s *wsSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.out.ch:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.out.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.out.close()
				return
			}
		case <-s.out.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
