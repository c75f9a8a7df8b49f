package realtime

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Client events
const (
	EventJoinChat    = "join-chat"
	EventLeaveChat   = "leave-chat"
	EventSendMessage = "send-message"
	EventTyping      = "typing"
)

// Server events
const (
	EventNewMessage  = "new-message"
	EventUserTyping  = "user-typing"
	EventError       = "error"
	EventAdminJoined = "admin-joined"
	EventAdminLeft   = "admin-left"
	EventNewMatch    = "new-match"
)

// Frame is the JSON envelope for every websocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type sendMessagePayload struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

type typingPayload struct {
	ChatID   string `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}

type userTypingPayload struct {
	UserID   uuid.UUID `json:"userId"`
	ChatID   uuid.UUID `json:"chatId"`
	IsTyping bool      `json:"isTyping"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func encodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

// ChatRoom and UserRoom name the broadcast groups.
func ChatRoom(chatID uuid.UUID) string { return "chat:" + chatID.String() }

func UserRoom(userID uuid.UUID) string { return "user:" + userID.String() }
