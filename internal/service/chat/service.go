package chat

import (
	"context"
	"slices"
	"strings"

	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/oggyb/spark/internal/app"
	"github.com/oggyb/spark/internal/db"
	svcErr "github.com/oggyb/spark/internal/errors"
	"github.com/oggyb/spark/internal/realtime"
	"github.com/oggyb/spark/internal/repository"
	"github.com/oggyb/spark/internal/rpc"
	"github.com/oggyb/spark/internal/storage"
	"github.com/oggyb/spark/internal/utils/pagination"
)

const (
	defaultMessageLimit = 20
	maxMessageLimit     = 100
)

// Presigner issues upload URLs for chat media.
type Presigner interface {
	PresignUpload(ctx context.Context, conversationID, fileName, contentType string) (storage.Upload, error)
}

// Service is the conversation engine behind the Chat gRPC API and the realtime gateway.
//
// Persisted state (messages, unread counters, status) is the source of truth.
// Realtime events are emitted after the write commits and may be dropped.
type Service struct {
	appCtx    *app.AppContext
	users     *repository.UserRepository
	convs     *repository.ConversationRepository
	messages  *repository.MessageRepository
	matches   *repository.MatchRepository
	presigner Presigner
}

// NewChatService creates the chat service. presigner may be nil, which disables attachments.
func NewChatService(appCtx *app.AppContext, presigner Presigner) *Service {
	return &Service{
		appCtx:    appCtx,
		users:     repository.NewUserRepository(appCtx.DB),
		convs:     repository.NewConversationRepository(appCtx.DB),
		messages:  repository.NewMessageRepository(appCtx.DB),
		matches:   repository.NewMatchRepository(appCtx.DB),
		presigner: presigner,
	}
}

// ListConversations returns the user's conversations, most recent activity first.
func (s *Service) ListConversations(ctx context.Context, req *rpc.UserIDRequest) (*rpc.ConversationsReply, error) {
	s.appCtx.Logger.Debug("ListConversations called", "user", req.UserID)

	if err := svcErr.ValidateID("userId", req.UserID); err != nil {
		return nil, err
	}

	convs, err := s.convs.ListForUser(ctx, req.UserID)
	if err != nil {
		s.appCtx.Logger.Error("ListConversations failed", "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &rpc.ConversationsReply{Conversations: make([]rpc.ConversationView, 0, len(convs))}
	for _, c := range convs {
		view := rpc.NewConversationView(c)
		for _, id := range view.Participants {
			if id != req.UserID {
				view.CounterpartID = id
			}
		}
		resp.Conversations = append(resp.Conversations, view)
	}
	return resp, nil
}

// GetConversationMessages opens the conversation between userId and receiverId
// (creating it on first use) and returns one page of its messages in
// chronological order.
func (s *Service) GetConversationMessages(ctx context.Context, req *rpc.GetMessagesRequest) (*rpc.MessagesReply, error) {
	s.appCtx.Logger.Debug("GetConversationMessages called", "user", req.UserID, "receiver", req.ReceiverID, "page", req.Page)

	conv, err := s.conversationWith(ctx, req.UserID, req.ReceiverID)
	if err != nil {
		return nil, err
	}

	page := pagination.New(req.Page, req.Limit, defaultMessageLimit, maxMessageLimit)
	msgs, total, err := s.messages.List(ctx, conv.ID, page)
	if err != nil {
		s.appCtx.Logger.Error("List messages failed", "conversation", conv.ID, "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &rpc.MessagesReply{
		ConversationID: conv.ID,
		Messages:       make([]rpc.MessageView, 0, len(msgs)),
		Total:          total,
		Page:           page.Page,
		TotalPages:     page.TotalPages(total),
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, rpc.NewMessageView(m))
	}
	return resp, nil
}

// SendMessage appends a message and fans it out.
//
// Behavior:
//   - The conversation is addressed by conversationId, or by receiverId in
//     which case it is created on first use.
//   - The sender must be a participant.
//   - Every other participant's unread counter goes up by exactly 1 in the
//     same transaction as the insert.
//   - Recipients get message:new with their new unread count; the sender gets
//     message:sent.
func (s *Service) SendMessage(ctx context.Context, req *rpc.SendMessageRequest) (*rpc.SendMessageReply, error) {
	s.appCtx.Logger.Debug("SendMessage called", "sender", req.SenderID, "conversation", req.ConversationID, "receiver", req.ReceiverID)

	if err := svcErr.ValidateID("sender", req.SenderID); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, svcErr.InvalidArgument("content is required")
	}
	msgType := req.Type
	if msgType == "" {
		msgType = db.MessageText
	}
	if !msgType.Valid() {
		return nil, svcErr.InvalidArgument("type must be one of text, image, gif, sticker")
	}

	var (
		conv *db.Conversation
		err  error
	)
	switch {
	case req.ConversationID != "":
		conv, err = s.participantConversation(ctx, req.ConversationID, req.SenderID)
	case req.ReceiverID != "":
		conv, err = s.conversationWith(ctx, req.SenderID, req.ReceiverID)
	default:
		err = svcErr.InvalidArgument("conversationId or receiverId is required")
	}
	if err != nil {
		return nil, err
	}

	msg := db.Message{
		ID:             db.NewID(),
		ConversationID: conv.ID,
		SenderID:       req.SenderID,
		Content:        content,
		Type:           msgType,
		Status:         db.MessageSent,
		CreatedAt:      s.appCtx.Now(),
	}
	unread, err := s.convs.AppendMessage(ctx, &msg)
	if err != nil {
		s.appCtx.Logger.Error("AppendMessage failed", "conversation", conv.ID, "err", err)
		return nil, svcErr.Map(err)
	}

	view := rpc.NewMessageView(msg)
	for _, id := range conv.ParticipantIDs() {
		if id == req.SenderID {
			continue
		}
		// the match row mirrors the pair's latest message for match listings
		if err := s.matches.SetLastMessage(ctx, req.SenderID, id, msg.ID); err != nil {
			s.appCtx.Logger.Warn("match last message not updated", "conversation", conv.ID, "err", err)
		}
		s.appCtx.Realtime.EmitToUser(id, realtime.EventMessageNew, realtime.MessageEvent{
			ConversationID: conv.ID,
			Message:        view,
			UnreadCount:    unread[id],
		})
	}

	resp := &rpc.SendMessageReply{Message: view, UnreadCount: unread}
	s.appCtx.Realtime.EmitToUser(req.SenderID, realtime.EventMessageSent, resp)

	s.appCtx.Logger.Debug("SendMessage result", "message", msg.ID, "unread", unread)
	return resp, nil
}

// MarkConversationRead resets the user's unread counter and emits conversation:read to them.
func (s *Service) MarkConversationRead(ctx context.Context, req *rpc.ConversationUserRequest) (*emptypb.Empty, error) {
	s.appCtx.Logger.Debug("MarkConversationRead called", "conversation", req.ConversationID, "user", req.UserID)

	conv, err := s.participantConversation(ctx, req.ConversationID, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.convs.ResetUnread(ctx, conv.ID, req.UserID); err != nil {
		s.appCtx.Logger.Error("ResetUnread failed", "conversation", conv.ID, "err", err)
		return nil, svcErr.Map(err)
	}

	s.appCtx.Realtime.EmitToUser(req.UserID, realtime.EventConversationRead, realtime.ConversationReadEvent{
		ConversationID: conv.ID,
		UserID:         req.UserID,
	})
	return &emptypb.Empty{}, nil
}

// MarkMessageSeen records that userId saw the message.
//
// Behavior:
//   - seenAt is set only the first time (first-seen-wins); repeats are no-ops.
//   - The user's unread counter for the conversation is reset to 0.
//   - message:seen is broadcast to every participant.
func (s *Service) MarkMessageSeen(ctx context.Context, req *rpc.MessageActionRequest) (*rpc.MessageReply, error) {
	s.appCtx.Logger.Debug("MarkMessageSeen called", "conversation", req.ConversationID, "message", req.MessageID, "user", req.UserID)

	conv, msg, err := s.participantMessage(ctx, req)
	if err != nil {
		return nil, err
	}

	seen, err := s.messages.MarkSeen(ctx, msg.ID, s.appCtx.Now())
	if err != nil {
		s.appCtx.Logger.Error("MarkSeen failed", "message", msg.ID, "err", err)
		return nil, svcErr.Map(err)
	}
	if err := s.convs.ResetUnread(ctx, conv.ID, req.UserID); err != nil {
		s.appCtx.Logger.Error("ResetUnread failed", "conversation", conv.ID, "err", err)
		return nil, svcErr.Map(err)
	}

	event := realtime.SeenEvent{
		ConversationID: conv.ID,
		MessageID:      seen.ID,
		UserID:         req.UserID,
	}
	if seen.SeenAt != nil {
		event.SeenAt = *seen.SeenAt
	}
	for _, id := range conv.ParticipantIDs() {
		s.appCtx.Realtime.EmitToUser(id, realtime.EventMessageSeen, event)
	}

	return &rpc.MessageReply{Message: rpc.NewMessageView(*seen)}, nil
}

// MarkMessageDelivered moves a Sent message to Delivered. Later states are kept.
func (s *Service) MarkMessageDelivered(ctx context.Context, req *rpc.MessageActionRequest) (*rpc.MessageReply, error) {
	s.appCtx.Logger.Debug("MarkMessageDelivered called", "conversation", req.ConversationID, "message", req.MessageID, "user", req.UserID)

	_, msg, err := s.participantMessage(ctx, req)
	if err != nil {
		return nil, err
	}

	delivered, err := s.messages.MarkDelivered(ctx, msg.ID, s.appCtx.Now())
	if err != nil {
		s.appCtx.Logger.Error("MarkDelivered failed", "message", msg.ID, "err", err)
		return nil, svcErr.Map(err)
	}
	return &rpc.MessageReply{Message: rpc.NewMessageView(*delivered)}, nil
}

// CreateAttachmentUpload returns a presigned PUT URL for an image, gif or sticker.
// The client uploads the file, then sends a message whose content is the returned key.
func (s *Service) CreateAttachmentUpload(ctx context.Context, req *rpc.AttachmentRequest) (*rpc.AttachmentReply, error) {
	s.appCtx.Logger.Debug("CreateAttachmentUpload called", "conversation", req.ConversationID, "user", req.UserID, "type", req.ContentType)

	if strings.TrimSpace(req.FileName) == "" {
		return nil, svcErr.InvalidArgument("fileName is required")
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		return nil, svcErr.InvalidArgument("contentType must be an image type")
	}
	if _, err := s.participantConversation(ctx, req.ConversationID, req.UserID); err != nil {
		return nil, err
	}
	if s.presigner == nil {
		return nil, svcErr.Unavailable("attachments are not configured")
	}

	up, err := s.presigner.PresignUpload(ctx, req.ConversationID, req.FileName, req.ContentType)
	if err != nil {
		s.appCtx.Logger.Error("PresignUpload failed", "conversation", req.ConversationID, "err", err)
		return nil, svcErr.Map(err)
	}
	return &rpc.AttachmentReply{UploadURL: up.URL, Key: up.Key, ExpiresAt: up.ExpiresAt}, nil
}

// conversationWith resolves (or creates) the conversation between userID and receiverID.
func (s *Service) conversationWith(ctx context.Context, userID, receiverID string) (*db.Conversation, error) {
	if err := svcErr.ValidateID("userId", userID); err != nil {
		return nil, err
	}
	if err := svcErr.ValidateID("receiverId", receiverID); err != nil {
		return nil, err
	}
	if userID == receiverID {
		return nil, svcErr.InvalidArgument("cannot open a conversation with yourself")
	}

	found, err := s.users.FindByIDs(ctx, []string{userID, receiverID})
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if len(found) < 2 {
		return nil, svcErr.NotFound("user")
	}

	conv, err := s.convs.GetOrCreate(ctx, userID, receiverID)
	if err != nil {
		s.appCtx.Logger.Error("GetOrCreate conversation failed", "err", err)
		return nil, svcErr.Map(err)
	}
	return conv, nil
}

// participantConversation loads the conversation and checks userID takes part in it.
func (s *Service) participantConversation(ctx context.Context, conversationID, userID string) (*db.Conversation, error) {
	if err := svcErr.ValidateID("conversationId", conversationID); err != nil {
		return nil, err
	}
	if err := svcErr.ValidateID("userId", userID); err != nil {
		return nil, err
	}

	conv, err := s.convs.FindByID(ctx, conversationID)
	if err != nil {
		return nil, svcErr.MapEntity(err, "conversation")
	}
	if !slices.Contains(conv.ParticipantIDs(), userID) {
		return nil, svcErr.PermissionDenied("user is not a participant of this conversation")
	}
	return conv, nil
}

func (s *Service) participantMessage(ctx context.Context, req *rpc.MessageActionRequest) (*db.Conversation, *db.Message, error) {
	conv, err := s.participantConversation(ctx, req.ConversationID, req.UserID)
	if err != nil {
		return nil, nil, err
	}
	if err := svcErr.ValidateID("messageId", req.MessageID); err != nil {
		return nil, nil, err
	}

	msg, err := s.messages.FindInConversation(ctx, conv.ID, req.MessageID)
	if err != nil {
		return nil, nil, svcErr.MapEntity(err, "message")
	}
	return conv, msg, nil
}
