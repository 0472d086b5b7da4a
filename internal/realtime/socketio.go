package realtime

import (
	"encoding/json"
	"log/slog"

	socketio "github.com/googollee/go-socket.io"
)

// NewSocketIOServer exposes the gateway over socket.io on the default namespace.
// The caller runs Serve in a goroutine and Close on shutdown.
func NewSocketIOServer(gw *Gateway, log *slog.Logger) *socketio.Server {
	srv := socketio.NewServer(nil)

	srv.OnConnect("/", func(c socketio.Conn) error {
		sess := &sioSession{conn: c, out: newOutbox[sioFrame](outboxSize), log: log}
		c.SetContext(sess)
		go sess.pump()
		log.Debug("socket.io connected", "session", c.ID())
		return nil
	})

	for _, event := range []string{EventJoin, EventLeave, EventSendMessage, EventMarkSeen, EventPing} {
		event := event
		srv.OnEvent("/", event, func(c socketio.Conn, data map[string]any) {
			sess, ok := c.Context().(*sioSession)
			if !ok {
				return
			}
			raw, err := json.Marshal(data)
			if err != nil {
				sess.Emit(EventError, ErrorReply{Event: event, Message: "invalid payload"})
				return
			}
			gw.Handle(sess, event, raw)
		})
	}

	srv.OnError("/", func(c socketio.Conn, err error) {
		if c == nil {
			log.Warn("socket.io error", "err", err)
			return
		}
		log.Warn("socket.io error", "session", c.ID(), "err", err)
	})

	srv.OnDisconnect("/", func(c socketio.Conn, reason string) {
		if sess, ok := c.Context().(*sioSession); ok {
			gw.Disconnect(sess)
			sess.out.close()
		}
		log.Debug("socket.io disconnected", "session", c.ID(), "reason", reason)
	})

	return srv
}

type sioFrame struct {
	event   string
	payload any
}

type sioSession struct {
	conn socketio.Conn
	out  *outbox[sioFrame]
	log  *slog.Logger
}

func (s *sioSession) ID() string { return s.conn.ID() }

func (s *sioSession) Emit(event string, payload any) {
	if !s.out.push(sioFrame{event: event, payload: payload}) {
		s.log.Warn("frame dropped", "session", s.conn.ID(), "event", event)
	}
}

// pump forwards queued frames so a slow socket.io writer never blocks the hub.
func (s *sioSession) pump() {
	for {
		select {
		case f := <-s.out.ch:
			s.conn.Emit(f.event, f.payload)
		case <-s.out.done:
			return
		}
	}
}
