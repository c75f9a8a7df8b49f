package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeText  MessageType = "TEXT"
	MessageTypeImage MessageType = "IMAGE"
	MessageTypeFile  MessageType = "FILE"
)

// ParseMessageType defaults an empty value to TEXT.
func ParseMessageType(s string) (MessageType, error) {
	switch t := MessageType(s); t {
	case "":
		return MessageTypeText, nil
	case MessageTypeText, MessageTypeImage, MessageTypeFile:
		return t, nil
	}
	return "", ErrInvalidMessageType
}

// ChatMessage is immutable once appended.
type ChatMessage struct {
	ID        uuid.UUID   `json:"id"`
	ChatID    uuid.UUID   `json:"chatId"`
	SenderID  uuid.UUID   `json:"senderId"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Chat is the aggregate root for a conversation. Messages are loaded
// separately; list views only carry LastMessage.
type Chat struct {
	ID             uuid.UUID    `json:"id"`
	Participants   []uuid.UUID  `json:"participants"`
	AdminID        *uuid.UUID   `json:"adminId,omitempty"`
	IsAdminActive  bool         `json:"isAdminActive"`
	AdminExitsAt   *time.Time   `json:"adminExitsAt,omitempty"`
	LastMessage    *ChatMessage `json:"lastMessage,omitempty"`
	LastActivityAt time.Time    `json:"lastActivityAt"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// HasParticipant reports membership; order is irrelevant.
func (c *Chat) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// AdminDue reports whether an open admin window has passed at now.
func (c *Chat) AdminDue(now time.Time) bool {
	return c.IsAdminActive && c.AdminExitsAt != nil && !now.Before(*c.AdminExitsAt)
}

// AddAdmin opens an admin window. It returns false and leaves the chat
// untouched when the admin is already a participant or another admin window
// is still open.
func (c *Chat) AddAdmin(adminID uuid.UUID, exitsAt time.Time) bool {
	if c.IsAdminActive || c.HasParticipant(adminID) {
		return false
	}
	c.Participants = append(c.Participants, adminID)
	c.AdminID = &adminID
	c.IsAdminActive = true
	c.AdminExitsAt = &exitsAt
	return true
}

// RemoveAdmin closes the admin window and drops the admin from the
// participants. It returns the removed admin id, or uuid.Nil when no admin was
// active.
func (c *Chat) RemoveAdmin() uuid.UUID {
	if !c.IsAdminActive || c.AdminID == nil {
		return uuid.Nil
	}
	adminID := *c.AdminID
	kept := c.Participants[:0:0]
	for _, p := range c.Participants {
		if p != adminID {
			kept = append(kept, p)
		}
	}
	c.Participants = kept
	c.AdminID = nil
	c.IsAdminActive = false
	c.AdminExitsAt = nil
	return adminID
}

// Append records msg as the newest message.
func (c *Chat) Append(msg *ChatMessage) {
	cp := *msg
	c.LastMessage = &cp
	c.LastActivityAt = msg.CreatedAt
	c.UpdatedAt = msg.CreatedAt
}

// ErrNoChange tells a repository that a ChatMutation left the chat as it was.
// The repository then skips the write and returns the current chat.
var ErrNoChange = errors.New("no change")

// ChatMutation mutates a chat inside a store transaction. Returning an error
// aborts the write.
type ChatMutation func(chat *Chat) error

type ChatRepository interface {
	CreateChat(ctx context.Context, participants []uuid.UUID) (*Chat, error)
	GetChatByID(ctx context.Context, chatID uuid.UUID) (*Chat, error)
	// FindDirectChat returns the chat whose participants, ignoring an active
	// admin, are exactly a and b.
	FindDirectChat(ctx context.Context, a, b uuid.UUID) (*Chat, error)
	GetChatsByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*Chat, error)
	GetChatsByActiveAdmin(ctx context.Context, adminID uuid.UUID) ([]*Chat, error)
	// AppendMessage runs check on the locked chat, then inserts msg and
	// updates lastMessage/lastActivityAt in one transaction.
	AppendMessage(ctx context.Context, chatID uuid.UUID, msg *ChatMessage, check ChatMutation) (*ChatMessage, error)
	// UpdateChat loads the chat under a row lock, applies mutate and persists
	// participants and admin fields atomically.
	UpdateChat(ctx context.Context, chatID uuid.UUID, mutate ChatMutation) (*Chat, error)
	GetMessages(ctx context.Context, chatID uuid.UUID) ([]*ChatMessage, error)
	GetChatIDsWithExpiredAdmin(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}
