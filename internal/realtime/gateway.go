package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/status"

	"github.com/oggyb/spark/internal/rpc"
)

// Inbound is the conversation engine as seen from a socket.
// The engine emits message:new / message:sent / message:seen itself.
type Inbound interface {
	SendMessage(ctx context.Context, req *rpc.SendMessageRequest) (*rpc.SendMessageReply, error)
	MarkMessageSeen(ctx context.Context, req *rpc.MessageActionRequest) (*rpc.MessageReply, error)
}

// Gateway routes inbound socket events, independent of the transport.
type Gateway struct {
	hub     *Hub
	inbound Inbound
	tokens  *TokenVerifier
	timeout time.Duration
	log     *slog.Logger
}

// NewGateway routes events to hub and inbound. A nil tokens skips join verification.
func NewGateway(hub *Hub, inbound Inbound, tokens *TokenVerifier, timeout time.Duration, log *slog.Logger) *Gateway {
	return &Gateway{hub: hub, inbound: inbound, tokens: tokens, timeout: timeout, log: log}
}

// Handle processes one inbound event from s. Failures are reported to s as an
// "error" event and never returned.
func (g *Gateway) Handle(s Session, event string, data json.RawMessage) {
	g.log.Debug("realtime event", "session", s.ID(), "event", event)

	switch event {
	case EventJoin:
		var req JoinRequest
		if !g.decode(s, event, data, &req) {
			return
		}
		if req.UserID == "" {
			g.fail(s, event, "", "userId is required")
			return
		}
		if err := g.tokens.Verify(req.Token, req.UserID); err != nil {
			g.log.Warn("join rejected", "session", s.ID(), "user", req.UserID, "err", err)
			g.fail(s, event, "Unauthenticated", "invalid or missing token")
			return
		}
		g.hub.Join(req.UserID, s)
		s.Emit(EventJoined, MembershipReply{OK: true, UserID: req.UserID})

	case EventLeave:
		var req JoinRequest
		if !g.decode(s, event, data, &req) || req.UserID == "" {
			return
		}
		g.hub.Leave(req.UserID, s)
		s.Emit(EventLeft, MembershipReply{OK: true, UserID: req.UserID})

	case EventSendMessage:
		var req rpc.SendMessageRequest
		if !g.decode(s, event, data, &req) {
			return
		}
		if req.SenderID == "" {
			g.fail(s, event, "", "sender is required")
			return
		}
		if !g.hub.IsJoined(req.SenderID, s) {
			g.fail(s, event, "PermissionDenied", "join as sender before sending")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()
		if _, err := g.inbound.SendMessage(ctx, &req); err != nil {
			g.failErr(s, event, err)
		}

	case EventMarkSeen:
		var req rpc.MessageActionRequest
		if !g.decode(s, event, data, &req) {
			return
		}
		if !g.hub.IsJoined(req.UserID, s) {
			g.fail(s, event, "PermissionDenied", "join as user before marking seen")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()
		if _, err := g.inbound.MarkMessageSeen(ctx, &req); err != nil {
			g.failErr(s, event, err)
		}

	case EventPing:
		s.Emit(EventPong, map[string]int64{"ts": time.Now().UnixMilli()})

	default:
		g.fail(s, event, "", "unknown event")
	}
}

// Disconnect removes s from every room.
func (g *Gateway) Disconnect(s Session) {
	g.hub.Remove(s)
	g.log.Debug("session disconnected", "session", s.ID())
}

func (g *Gateway) decode(s Session, event string, data json.RawMessage, v any) bool {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		g.fail(s, event, "", "invalid payload")
		return false
	}
	return true
}

func (g *Gateway) fail(s Session, event, code, msg string) {
	s.Emit(EventError, ErrorReply{Event: event, Code: code, Message: msg})
}

func (g *Gateway) failErr(s Session, event string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		g.fail(s, event, "DeadlineExceeded", "request timed out")
		return
	}
	st := status.Convert(err)
	g.fail(s, event, st.Code().String(), st.Message())
}
