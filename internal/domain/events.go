package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AdminEvent describes an admin entering or leaving a chat.
type AdminEvent struct {
	ChatID       uuid.UUID  `json:"chatId"`
	AdminID      uuid.UUID  `json:"adminId"`
	AdminExitsAt *time.Time `json:"adminExitsAt,omitempty"`
}

// EventPublisher is the outbound side of the realtime transport as seen by the
// services. Implementations must not block on slow clients.
type EventPublisher interface {
	MessageSent(ctx context.Context, msg *ChatMessage)
	AdminJoined(ctx context.Context, ev AdminEvent)
	AdminLeft(ctx context.Context, ev AdminEvent)
	Matched(ctx context.Context, conn *Connection)
}

// Notifier delivers out-of-band push notifications.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error
}

type noopPublisher struct{}

func (noopPublisher) MessageSent(context.Context, *ChatMessage) {}
func (noopPublisher) AdminJoined(context.Context, AdminEvent)   {}
func (noopPublisher) AdminLeft(context.Context, AdminEvent)     {}
func (noopPublisher) Matched(context.Context, *Connection)      {}
