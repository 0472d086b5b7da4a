package db

import (
	"time"

	"gorm.io/datatypes"
)

type Gender string

const (
	GenderMale      Gender = "Male"
	GenderFemale    Gender = "Female"
	GenderNonBinary Gender = "Non Binary"
	GenderOther     Gender = "Other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderNonBinary, GenderOther:
		return true
	}
	return false
}

type UserStatus string

const (
	StatusActive  UserStatus = "Active"
	StatusPaused  UserStatus = "Paused"
	StatusBanned  UserStatus = "Banned"
	StatusDeleted UserStatus = "Deleted"
)

func (s UserStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusBanned, StatusDeleted:
		return true
	}
	return false
}

// User is a profile in the user directory.
//
// Longitude/Latitude are nil when the user never shared a location.
// Birthday is stored at UTC midnight.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FirstName    string    `gorm:"size:64;not null" json:"firstName"`
	MiddleName   string    `gorm:"size:64" json:"middleName"`
	LastName     string    `gorm:"size:64;not null" json:"lastName"`
	ShortBio     string    `gorm:"size:512" json:"shortBio"`
	Photo        string    `gorm:"size:512" json:"photo"`
	Gender       Gender    `gorm:"size:16;not null;index:idx_users_feed,priority:2" json:"gender"`
	Birthday     time.Time `gorm:"not null;index:idx_users_feed,priority:3" json:"birthday"`
	Longitude    *float64  `json:"longitude,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`

	GenderPreference datatypes.JSONSlice[Gender] `json:"genderPreference"`
	MinAge           int                         `gorm:"not null;default:18" json:"minAge"`
	MaxAge           int                         `gorm:"not null;default:100" json:"maxAge"`
	MaxDistanceKm    int                         `gorm:"not null;default:50" json:"maxDistanceKm"`

	Status    UserStatus `gorm:"size:16;not null;index:idx_users_feed,priority:1" json:"status"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// DisplayName is the name shown in match announcements.
func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// HasLocation reports whether both coordinates are present.
func (u User) HasLocation() bool {
	return u.Longitude != nil && u.Latitude != nil
}

// Like is a directed user -> liked user edge.
// The unique index collapses repeated likes into one row.
type Like struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;not null;uniqueIndex:idx_like_pair,priority:1" json:"user"`
	LikedUserID string    `gorm:"size:36;not null;uniqueIndex:idx_like_pair,priority:2;index" json:"likedUser"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

type Dislike struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	UserID         string    `gorm:"size:36;not null;uniqueIndex:idx_dislike_pair,priority:1" json:"user"`
	DislikedUserID string    `gorm:"size:36;not null;uniqueIndex:idx_dislike_pair,priority:2" json:"dislikedUser"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// Match pairs two users who liked each other.
//
// PairKey is the canonical "min:max" form of the two ids; its unique index
// makes (A,B) and (B,A) the same row.
type Match struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserID        string    `gorm:"size:36;not null;index" json:"user"`
	MatchedUserID string    `gorm:"size:36;not null;index" json:"matchedUser"`
	PairKey       string    `gorm:"size:80;not null;uniqueIndex" json:"-"`
	LastMessageID *string   `gorm:"size:36" json:"lastMessage,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// Counterpart returns the id on the other side of the match.
func (m Match) Counterpart(userID string) string {
	if m.UserID == userID {
		return m.MatchedUserID
	}
	return m.UserID
}

type Reason string

const (
	ReasonHarassment    Reason = "Harassment"
	ReasonSelfInjury    Reason = "Suicide or self-injury"
	ReasonViolence      Reason = "Violence or dangerous organizations"
	ReasonNudity        Reason = "Nudity or sexual activity"
	ReasonSelling       Reason = "Selling or promoting restricted items"
	ReasonScamOrFraud   Reason = "Scam or fraud"
	ReasonBlackmail     Reason = "Blackmail"
	ReasonIdentityTheft Reason = "Identity Theft"
	ReasonOther         Reason = "Other"
)

func (r Reason) Valid() bool {
	switch r {
	case ReasonHarassment, ReasonSelfInjury, ReasonViolence, ReasonNudity, ReasonSelling,
		ReasonScamOrFraud, ReasonBlackmail, ReasonIdentityTheft, ReasonOther:
		return true
	}
	return false
}

type Block struct {
	ID            string                      `gorm:"primaryKey;size:36" json:"id"`
	UserID        string                      `gorm:"size:36;not null;index" json:"user"`
	BlockedUserID string                      `gorm:"size:36;not null;index" json:"blockedUser"`
	Reasons       datatypes.JSONSlice[Reason] `json:"reasons"`
	Description   string                      `gorm:"size:1000;not null" json:"description"`
	CreatedAt     time.Time                   `gorm:"autoCreateTime" json:"createdAt"`
}

type ReportStatus string

const (
	ReportPending     ReportStatus = "Pending"
	ReportUnderReview ReportStatus = "Under Review"
	ReportResolved    ReportStatus = "Resolved"
	ReportDismissed   ReportStatus = "Dismissed"
)

// Report is only written here; moderation tooling owns the review fields.
type Report struct {
	ID             string                      `gorm:"primaryKey;size:36" json:"id"`
	UserID         string                      `gorm:"size:36;not null;index" json:"user"`
	ReportedUserID string                      `gorm:"size:36;not null;index" json:"reportedUser"`
	Reasons        datatypes.JSONSlice[Reason] `json:"reasons"`
	Description    string                      `gorm:"size:1000;not null" json:"description"`
	Status         ReportStatus                `gorm:"size:16;not null;default:Pending" json:"status"`
	Action         *string                     `gorm:"size:32" json:"action,omitempty"`
	ReviewedBy     *string                     `gorm:"size:36" json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time                  `json:"reviewedAt,omitempty"`
	ReviewNotes    *string                     `gorm:"size:1000" json:"reviewNotes,omitempty"`
	CreatedAt      time.Time                   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time                   `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Conversation between exactly two users, identified by PairKey.
// Per-user unread counters live in ConversationParticipant.
type Conversation struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	PairKey       string     `gorm:"size:80;not null;uniqueIndex" json:"-"`
	LastMessageID *string    `gorm:"size:36" json:"lastMessage,omitempty"`
	LastMessageAt *time.Time `gorm:"index" json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID" json:"participants,omitempty"`
}

// ParticipantIDs returns the ids of loaded participants.
func (c Conversation) ParticipantIDs() []string {
	ids := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// UnreadCounts returns the user id -> unread mapping of loaded participants.
func (c Conversation) UnreadCounts() map[string]int {
	counts := make(map[string]int, len(c.Participants))
	for _, p := range c.Participants {
		counts[p.UserID] = p.UnreadCount
	}
	return counts
}

type ConversationParticipant struct {
	ConversationID string `gorm:"primaryKey;size:36" json:"conversationId"`
	UserID         string `gorm:"primaryKey;size:36;index" json:"userId"`
	UnreadCount    int    `gorm:"not null;default:0" json:"unreadCount"`
}

type MessageType string

const (
	MessageText    MessageType = "text"
	MessageImage   MessageType = "image"
	MessageGIF     MessageType = "gif"
	MessageSticker MessageType = "sticker"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageGIF, MessageSticker:
		return true
	}
	return false
}

type MessageStatus string

const (
	MessageSent      MessageStatus = "Sent"
	MessageDelivered MessageStatus = "Delivered"
	MessageSeen      MessageStatus = "Seen"
)

func (s MessageStatus) rank() int {
	switch s {
	case MessageSent:
		return 1
	case MessageDelivered:
		return 2
	case MessageSeen:
		return 3
	}
	return 0
}

// Advance returns the later of s and next. Status never moves backwards.
func (s MessageStatus) Advance(next MessageStatus) MessageStatus {
	if next.rank() > s.rank() {
		return next
	}
	return s
}

// Message ids are UUIDv7 so (created_at, id) is a total order.
type Message struct {
	ID             string        `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string        `gorm:"size:36;not null;index:idx_messages_conversation_created,priority:1" json:"conversationId"`
	SenderID       string        `gorm:"size:36;not null" json:"sender"`
	Content        string        `gorm:"type:text;not null" json:"content"`
	Type           MessageType   `gorm:"size:16;not null;default:text" json:"type"`
	Status         MessageStatus `gorm:"size:16;not null;default:Sent" json:"status"`
	DeliveredAt    *time.Time    `json:"deliveredAt,omitempty"`
	SeenAt         *time.Time    `json:"seenAt,omitempty"`
	CreatedAt      time.Time     `gorm:"autoCreateTime;index:idx_messages_conversation_created,priority:2" json:"createdAt"`
}

type Notification struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;index:idx_notifications_user_read,priority:1" json:"user"`
	Message   string    `gorm:"size:512;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false;index:idx_notifications_user_read,priority:2" json:"isRead"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{
		&User{},
		&Like{},
		&Dislike{},
		&Match{},
		&Block{},
		&Report{},
		&Conversation{},
		&ConversationParticipant{},
		&Message{},
		&Notification{},
	}
}
