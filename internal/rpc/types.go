package rpc

import (
	"time"

	"github.com/oggyb/spark/internal/db"
)

// BirthdayLayout is the wire format of birthdays.
const BirthdayLayout = time.DateOnly

// ---- shared views ----

type Preferences struct {
	GenderPreference []db.Gender `json:"genderPreference"`
	MinAge           int         `json:"minAge"`
	MaxAge           int         `json:"maxAge"`
	MaxDistanceKm    int         `json:"maxDistanceKm"`
}

type UserView struct {
	ID          string        `json:"id"`
	Email       string        `json:"email,omitempty"`
	FirstName   string        `json:"firstName"`
	MiddleName  string        `json:"middleName,omitempty"`
	LastName    string        `json:"lastName"`
	ShortBio    string        `json:"shortBio,omitempty"`
	Photo       string        `json:"photo,omitempty"`
	Gender      db.Gender     `json:"gender"`
	Birthday    string        `json:"birthday"`
	Longitude   *float64      `json:"longitude,omitempty"`
	Latitude    *float64      `json:"latitude,omitempty"`
	Preferences Preferences   `json:"preferences"`
	Status      db.UserStatus `json:"status"`
	DistanceKm  *float64      `json:"distanceKm,omitempty"`
}

// NewUserView renders a user for the API. The password hash never leaves the service.
func NewUserView(u db.User) UserView {
	return UserView{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		MiddleName: u.MiddleName,
		LastName:   u.LastName,
		ShortBio:   u.ShortBio,
		Photo:      u.Photo,
		Gender:     u.Gender,
		Birthday:   u.Birthday.UTC().Format(BirthdayLayout),
		Longitude:  u.Longitude,
		Latitude:   u.Latitude,
		Preferences: Preferences{
			GenderPreference: []db.Gender(u.GenderPreference),
			MinAge:           u.MinAge,
			MaxAge:           u.MaxAge,
			MaxDistanceKm:    u.MaxDistanceKm,
		},
		Status: u.Status,
	}
}

// NewCandidateView is NewUserView without private fields, as shown in someone else's feed.
func NewCandidateView(u db.User, distanceKm *float64) UserView {
	v := NewUserView(u)
	v.Email = ""
	v.Preferences = Preferences{}
	v.DistanceKm = distanceKm
	return v
}

type MatchView struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user"`
	MatchedUserID string    `json:"matchedUser"`
	Counterpart   *UserView `json:"counterpart,omitempty"`
	LastMessageID *string   `json:"lastMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewMatchView(m db.Match) MatchView {
	return MatchView{
		ID:            m.ID,
		UserID:        m.UserID,
		MatchedUserID: m.MatchedUserID,
		LastMessageID: m.LastMessageID,
		CreatedAt:     m.CreatedAt,
	}
}

type MessageView struct {
	ID             string           `json:"id"`
	ConversationID string           `json:"conversationId"`
	SenderID       string           `json:"sender"`
	Content        string           `json:"content"`
	Type           db.MessageType   `json:"type"`
	Status         db.MessageStatus `json:"status"`
	DeliveredAt    *time.Time       `json:"deliveredAt,omitempty"`
	SeenAt         *time.Time       `json:"seenAt,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

func NewMessageView(m db.Message) MessageView {
	return MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Type:           m.Type,
		Status:         m.Status,
		DeliveredAt:    m.DeliveredAt,
		SeenAt:         m.SeenAt,
		CreatedAt:      m.CreatedAt,
	}
}

type ConversationView struct {
	ID            string         `json:"id"`
	Participants  []string       `json:"participants"`
	CounterpartID string         `json:"counterpartId,omitempty"`
	LastMessageID *string        `json:"lastMessage,omitempty"`
	LastMessageAt *time.Time     `json:"lastMessageAt,omitempty"`
	UnreadCount   map[string]int `json:"unreadCount"`
}

func NewConversationView(c db.Conversation) ConversationView {
	return ConversationView{
		ID:            c.ID,
		Participants:  c.ParticipantIDs(),
		LastMessageID: c.LastMessageID,
		LastMessageAt: c.LastMessageAt,
		UnreadCount:   c.UnreadCounts(),
	}
}

type NotificationView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewNotificationView(n db.Notification) NotificationView {
	return NotificationView{
		ID:        n.ID,
		UserID:    n.UserID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// ---- UserService ----

type CreateUserRequest struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	FirstName   string      `json:"firstName"`
	MiddleName  string      `json:"middleName"`
	LastName    string      `json:"lastName"`
	ShortBio    string      `json:"shortBio"`
	Photo       string      `json:"photo"`
	Gender      db.Gender   `json:"gender"`
	Birthday    string      `json:"birthday"`
	Longitude   *float64    `json:"longitude"`
	Latitude    *float64    `json:"latitude"`
	Preferences Preferences `json:"preferences"`
}

type UserIDRequest struct {
	UserID string `json:"userId"`
}

type UpdatePreferencesRequest struct {
	UserID      string      `json:"userId"`
	Preferences Preferences `json:"preferences"`
}

type UpdateLocationRequest struct {
	UserID    string  `json:"userId"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

type UpdateStatusRequest struct {
	UserID string        `json:"userId"`
	Status db.UserStatus `json:"status"`
}

type UserReply struct {
	User UserView `json:"user"`
}

// ---- FeedService ----

type GetFeedRequest struct {
	UserID string `json:"userId"`
}

type FeedReply struct {
	Candidates []UserView `json:"candidates"`
	Total      int64      `json:"total"`
	Message    string     `json:"message,omitempty"`
}

// ---- MatchService ----

type LikeRequest struct {
	UserID      string `json:"user"`
	LikedUserID string `json:"likedUser"`
}

type LikeReply struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user"`
	LikedUserID string     `json:"likedUser"`
	CreatedAt   time.Time  `json:"createdAt"`
	Match       *MatchView `json:"match,omitempty"`
}

type DislikeRequest struct {
	UserID         string `json:"user"`
	DislikedUserID string `json:"dislikedUser"`
}

type CreateMatchRequest struct {
	UserID        string `json:"user"`
	MatchedUserID string `json:"matchedUser"`
}

type ListMatchesRequest struct {
	UserID string `json:"userId"`
	Page   int    `json:"page"`
	Search string `json:"search"`
}

type ListMatchesReply struct {
	Matches    []MatchView `json:"matches"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
}

type BlockRequest struct {
	UserID        string      `json:"user"`
	BlockedUserID string      `json:"blockedUser"`
	Reasons       []db.Reason `json:"reasons"`
	Description   string      `json:"description"`
}

type ReportRequest struct {
	UserID         string      `json:"user"`
	ReportedUserID string      `json:"reportedUser"`
	Reasons        []db.Reason `json:"reasons"`
	Description    string      `json:"description"`
}

type ReportReply struct {
	ID     string          `json:"id"`
	Status db.ReportStatus `json:"status"`
}

// ---- ChatService ----

type ConversationsReply struct {
	Conversations []ConversationView `json:"conversations"`
}

type GetMessagesRequest struct {
	UserID     string `json:"userId"`
	ReceiverID string `json:"receiverId"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}

type MessagesReply struct {
	ConversationID string        `json:"conversationId"`
	Messages       []MessageView `json:"messages"`
	Total          int64         `json:"total"`
	Page           int           `json:"page"`
	TotalPages     int           `json:"totalPages"`
}

// SendMessageRequest addresses either an existing conversation or, over the
// realtime gateway, a receiver whose conversation is created on demand.
type SendMessageRequest struct {
	ConversationID string         `json:"conversationId"`
	ReceiverID     string         `json:"receiverId,omitempty"`
	SenderID       string         `json:"sender"`
	Content        string         `json:"content"`
	Type           db.MessageType `json:"type"`
}

type SendMessageReply struct {
	Message     MessageView    `json:"message"`
	UnreadCount map[string]int `json:"unreadCount"`
}

type ConversationUserRequest struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

type MessageActionRequest struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	UserID         string `json:"userId"`
}

type MessageReply struct {
	Message MessageView `json:"message"`
}

type AttachmentRequest struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	FileName       string `json:"fileName"`
	ContentType    string `json:"contentType"`
}

type AttachmentReply struct {
	UploadURL string    `json:"uploadUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ---- NotificationService ----

type ListNotificationsRequest struct {
	UserID string `json:"userId"`
	Page   int    `json:"page"`
}

type NotificationsReply struct {
	Notifications []NotificationView `json:"notifications"`
	Page          int                `json:"page"`
	TotalPages    int                `json:"totalPages"`
}

type CountReply struct {
	Count int64 `json:"count"`
}
