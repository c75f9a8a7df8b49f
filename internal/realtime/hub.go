package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const eventTimeout = 10 * time.Second

var ErrHubStopped = errors.New("realtime hub stopped")

// ChatBackend is the part of the chat service the transport calls into.
type ChatBackend interface {
	SendMessage(ctx context.Context, chatID, senderID uuid.UUID, content, msgType string) (*domain.ChatMessage, error)
	IsParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error)
}

// Hub owns the connection registry and room membership of one server
// instance. Room publishes go through the broker so that members connected to
// other instances receive them too.
type Hub struct {
	chats      ChatBackend
	broker     Broker
	logger     *zap.Logger
	strictJoin bool

	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

// NewHub creates a hub. With strictJoin set, join-chat is refused for users
// who are not chat participants.
func NewHub(chats ChatBackend, broker Broker, strictJoin bool, logger *zap.Logger) *Hub {
	h := &Hub{
		chats:      chats,
		broker:     broker,
		logger:     logger,
		strictJoin: strictJoin,
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	broker.Subscribe(h.deliver)
	return h
}

// Run processes registrations until ctx is cancelled, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	go func() {
		if err := h.broker.Run(ctx); err != nil {
			h.logger.Error("room broker stopped", zap.Error(err))
		}
	}()
	defer h.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		}
	}
}

// Register adds c to the registry and its private user room.
func (h *Hub) Register(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.joinLocked(c, UserRoom(c.UserID))
	h.mu.Unlock()

	h.logger.Debug("client registered",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.UserID.String()),
	)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	c.closeSend()

	h.logger.Debug("client unregistered",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.UserID.String()),
	)
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for id, c := range h.clients {
			c.closeSend()
			delete(h.clients, id)
		}
		h.rooms = make(map[string]map[*Client]struct{})
	})
}

// Join subscribes c to room.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	h.joinLocked(c, room)
	h.mu.Unlock()
}

// Leave unsubscribes c from room.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	h.leaveLocked(c, room)
	h.mu.Unlock()
}

func (h *Hub) joinLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	delete(c.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of local connections in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// deliver hands an envelope to the local members of its room.
func (h *Hub) deliver(env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[env.Room] {
		if c.ID == env.Except {
			continue
		}
		c.enqueue(env.Payload)
	}
}

func (h *Hub) publish(ctx context.Context, room, except, event string, data any) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		h.logger.Error("encode frame", zap.String("event", event), zap.Error(err))
		return
	}
	if err := h.broker.Publish(ctx, Envelope{Room: room, Except: except, Payload: frame}); err != nil {
		h.logger.Error("room publish failed",
			zap.String("room", room),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}

// MessageSent broadcasts to the chat room, sender included.
func (h *Hub) MessageSent(ctx context.Context, msg *domain.ChatMessage) {
	h.publish(ctx, ChatRoom(msg.ChatID), "", EventNewMessage, msg)
}

// AdminJoined goes to the chat room and to the admin's own connections, which
// are not in the room yet.
func (h *Hub) AdminJoined(ctx context.Context, ev domain.AdminEvent) {
	h.publish(ctx, ChatRoom(ev.ChatID), "", EventAdminJoined, ev)
	h.publish(ctx, UserRoom(ev.AdminID), "", EventAdminJoined, ev)
}

func (h *Hub) AdminLeft(ctx context.Context, ev domain.AdminEvent) {
	h.publish(ctx, ChatRoom(ev.ChatID), "", EventAdminLeft, ev)
}

func (h *Hub) Matched(ctx context.Context, conn *domain.Connection) {
	h.publish(ctx, UserRoom(conn.User1ID), "", EventNewMatch, conn)
	h.publish(ctx, UserRoom(conn.User2ID), "", EventNewMatch, conn)
}

// Dispatch handles one client frame. Failures, panics included, turn into an
// error event for that client only.
func (h *Hub) Dispatch(c *Client, frame Frame) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic in realtime handler",
				zap.Any("panic", r),
				zap.String("event", frame.Event),
				zap.String("client_id", c.ID),
			)
			c.emitError("Internal server error")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	switch frame.Event {
	case EventJoinChat:
		h.handleJoin(ctx, c, frame.Data)
	case EventLeaveChat:
		chatID, err := parseChatRef(frame.Data)
		if err != nil {
			c.emitError("Invalid chat id")
			return
		}
		h.Leave(c, ChatRoom(chatID))
	case EventSendMessage:
		h.handleSend(ctx, c, frame.Data)
	case EventTyping:
		h.handleTyping(ctx, c, frame.Data)
	default:
		c.emitError("Unknown event: " + frame.Event)
	}
}

func (h *Hub) handleJoin(ctx context.Context, c *Client, data json.RawMessage) {
	chatID, err := parseChatRef(data)
	if err != nil {
		c.emitError("Invalid chat id")
		return
	}
	if h.strictJoin {
		ok, err := h.chats.IsParticipant(ctx, chatID, c.UserID)
		if err != nil {
			h.fail(c, err, "Failed to join chat")
			return
		}
		if !ok {
			h.fail(c, domain.ErrNotParticipant, "Failed to join chat")
			return
		}
	}
	h.Join(c, ChatRoom(chatID))
}

func (h *Hub) handleSend(ctx context.Context, c *Client, data json.RawMessage) {
	var p sendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		c.emitError("Invalid message payload")
		return
	}
	chatID, err := uuid.Parse(p.ChatID)
	if err != nil {
		c.emitError("Invalid chat id")
		return
	}
	// The chat service publishes new-message on success.
	if _, err := h.chats.SendMessage(ctx, chatID, c.UserID, p.Content, p.Type); err != nil {
		h.fail(c, err, "Failed to send message")
	}
}

func (h *Hub) handleTyping(ctx context.Context, c *Client, data json.RawMessage) {
	var p typingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		c.emitError("Invalid typing payload")
		return
	}
	chatID, err := uuid.Parse(p.ChatID)
	if err != nil {
		c.emitError("Invalid chat id")
		return
	}
	h.publish(ctx, ChatRoom(chatID), c.ID, EventUserTyping, userTypingPayload{
		UserID:   c.UserID,
		ChatID:   chatID,
		IsTyping: p.IsTyping,
	})
}

func (h *Hub) fail(c *Client, err error, fallback string) {
	if !domain.IsClientError(err) {
		h.logger.Error(fallback, zap.String("client_id", c.ID), zap.Error(err))
	}
	c.emitError(domain.PublicMessage(err, fallback))
}

// parseChatRef accepts either a bare chat id string or {"chatId": "..."}.
func parseChatRef(data json.RawMessage) (uuid.UUID, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var obj struct {
			ChatID string `json:"chatId"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return uuid.Nil, err
		}
		s = obj.ChatID
	}
	return uuid.Parse(strings.TrimSpace(s))
}
