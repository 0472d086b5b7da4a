package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Fully-qualified service names.
const (
	UserServiceName         = "spark.v1.UserService"
	FeedServiceName         = "spark.v1.FeedService"
	MatchServiceName        = "spark.v1.MatchService"
	ChatServiceName         = "spark.v1.ChatService"
	NotificationServiceName = "spark.v1.NotificationService"
)

// UserServer is the user directory API.
type UserServer interface {
	CreateUser(context.Context, *CreateUserRequest) (*UserReply, error)
	GetUser(context.Context, *UserIDRequest) (*UserReply, error)
	UpdatePreferences(context.Context, *UpdatePreferencesRequest) (*UserReply, error)
	UpdateLocation(context.Context, *UpdateLocationRequest) (*UserReply, error)
	UpdateStatus(context.Context, *UpdateStatusRequest) (*UserReply, error)
}

var UserServiceDesc = grpc.ServiceDesc{
	ServiceName: UserServiceName,
	HandlerType: (*UserServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(UserServiceName, "CreateUser", UserServer.CreateUser),
		unaryMethod(UserServiceName, "GetUser", UserServer.GetUser),
		unaryMethod(UserServiceName, "UpdatePreferences", UserServer.UpdatePreferences),
		unaryMethod(UserServiceName, "UpdateLocation", UserServer.UpdateLocation),
		unaryMethod(UserServiceName, "UpdateStatus", UserServer.UpdateStatus),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "spark/v1/user",
}

func RegisterUserServer(s grpc.ServiceRegistrar, srv UserServer) {
	s.RegisterService(&UserServiceDesc, srv)
}

// FeedServer serves candidate profiles.
type FeedServer interface {
	GetFeed(context.Context, *GetFeedRequest) (*FeedReply, error)
}

var FeedServiceDesc = grpc.ServiceDesc{
	ServiceName: FeedServiceName,
	HandlerType: (*FeedServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(FeedServiceName, "GetFeed", FeedServer.GetFeed),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "spark/v1/feed",
}

func RegisterFeedServer(s grpc.ServiceRegistrar, srv FeedServer) {
	s.RegisterService(&FeedServiceDesc, srv)
}

// MatchServer covers likes, dislikes, matches, blocks and reports.
type MatchServer interface {
	CreateLike(context.Context, *LikeRequest) (*LikeReply, error)
	CreateDislike(context.Context, *DislikeRequest) (*emptypb.Empty, error)
	CreateMatch(context.Context, *CreateMatchRequest) (*MatchView, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesReply, error)
	CreateBlock(context.Context, *BlockRequest) (*emptypb.Empty, error)
	CreateReport(context.Context, *ReportRequest) (*ReportReply, error)
}

var MatchServiceDesc = grpc.ServiceDesc{
	ServiceName: MatchServiceName,
	HandlerType: (*MatchServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MatchServiceName, "CreateLike", MatchServer.CreateLike),
		unaryMethod(MatchServiceName, "CreateDislike", MatchServer.CreateDislike),
		unaryMethod(MatchServiceName, "CreateMatch", MatchServer.CreateMatch),
		unaryMethod(MatchServiceName, "ListMatches", MatchServer.ListMatches),
		unaryMethod(MatchServiceName, "CreateBlock", MatchServer.CreateBlock),
		unaryMethod(MatchServiceName, "CreateReport", MatchServer.CreateReport),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "spark/v1/match",
}

func RegisterMatchServer(s grpc.ServiceRegistrar, srv MatchServer) {
	s.RegisterService(&MatchServiceDesc, srv)
}

// ChatServer is the conversation engine API.
type ChatServer interface {
	ListConversations(context.Context, *UserIDRequest) (*ConversationsReply, error)
	GetConversationMessages(context.Context, *GetMessagesRequest) (*MessagesReply, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageReply, error)
	MarkConversationRead(context.Context, *ConversationUserRequest) (*emptypb.Empty, error)
	MarkMessageSeen(context.Context, *MessageActionRequest) (*MessageReply, error)
	MarkMessageDelivered(context.Context, *MessageActionRequest) (*MessageReply, error)
	CreateAttachmentUpload(context.Context, *AttachmentRequest) (*AttachmentReply, error)
}

var ChatServiceDesc = grpc.ServiceDesc{
	ServiceName: ChatServiceName,
	HandlerType: (*ChatServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(ChatServiceName, "ListConversations", ChatServer.ListConversations),
		unaryMethod(ChatServiceName, "GetConversationMessages", ChatServer.GetConversationMessages),
		unaryMethod(ChatServiceName, "SendMessage", ChatServer.SendMessage),
		unaryMethod(ChatServiceName, "MarkConversationRead", ChatServer.MarkConversationRead),
		unaryMethod(ChatServiceName, "MarkMessageSeen", ChatServer.MarkMessageSeen),
		unaryMethod(ChatServiceName, "MarkMessageDelivered", ChatServer.MarkMessageDelivered),
		unaryMethod(ChatServiceName, "CreateAttachmentUpload", ChatServer.CreateAttachmentUpload),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "spark/v1/chat",
}

func RegisterChatServer(s grpc.ServiceRegistrar, srv ChatServer) {
	s.RegisterService(&ChatServiceDesc, srv)
}

// NotificationServer lists and acknowledges notifications.
type NotificationServer interface {
	ListNotifications(context.Context, *ListNotificationsRequest) (*NotificationsReply, error)
	MarkAllNotificationsRead(context.Context, *UserIDRequest) (*emptypb.Empty, error)
	CountUnreadNotifications(context.Context, *UserIDRequest) (*CountReply, error)
}

var NotificationServiceDesc = grpc.ServiceDesc{
	ServiceName: NotificationServiceName,
	HandlerType: (*NotificationServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(NotificationServiceName, "ListNotifications", NotificationServer.ListNotifications),
		unaryMethod(NotificationServiceName, "MarkAllNotificationsRead", NotificationServer.MarkAllNotificationsRead),
		unaryMethod(NotificationServiceName, "CountUnreadNotifications", NotificationServer.CountUnreadNotifications),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "spark/v1/notification",
}

func RegisterNotificationServer(s grpc.ServiceRegistrar, srv NotificationServer) {
	s.RegisterService(&NotificationServiceDesc, srv)
}
