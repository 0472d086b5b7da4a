package realtime

import (
	"time"

	"github.com/oggyb/spark/internal/rpc"
)

// Inbound event names.
const (
	EventJoin        = "join"
	EventLeave       = "leave"
	EventSendMessage = "sendMessage"
	EventMarkSeen    = "markSeen"
	EventPing        = "ping"
)

// Outbound event names.
const (
	EventJoined           = "joined"
	EventLeft             = "left"
	EventMessageNew       = "message:new"
	EventMessageSent      = "message:sent"
	EventMessageSeen      = "message:seen"
	EventConversationRead = "conversation:read"
	EventNotification     = "receiveNotification"
	EventError            = "error"
	EventPong             = "pong"
)

// Envelope is the websocket frame format: {"event": "...", "data": {...}}.
type Envelope[T any] struct {
	Event string `json:"event"`
	Data  T      `json:"data,omitempty"`
}

// JoinRequest is the payload of join and leave.
type JoinRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token,omitempty"`
}

// MembershipReply is the payload of joined and left.
type MembershipReply struct {
	OK     bool   `json:"ok"`
	UserID string `json:"userId"`
}

// ErrorReply is the payload of error. Code is the gRPC code name when the engine failed.
type ErrorReply struct {
	Event   string `json:"event,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// MessageEvent is the payload of message:new, sent to each recipient.
type MessageEvent struct {
	ConversationID string          `json:"conversationId"`
	Message        rpc.MessageView `json:"message"`
	UnreadCount    int             `json:"unreadCount"`
}

// SeenEvent is the payload of message:seen, broadcast to every participant.
type SeenEvent struct {
	ConversationID string    `json:"conversationId"`
	MessageID      string    `json:"messageId"`
	SeenAt         time.Time `json:"seenAt"`
	UserID         string    `json:"userId"`
}

// ConversationReadEvent is the payload of conversation:read.
type ConversationReadEvent struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}
