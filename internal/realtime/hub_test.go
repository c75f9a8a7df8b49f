package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	mu          sync.Mutex
	participant bool
	sendErr     error
	panicOnSend bool
	sent        []string
}

func (b *fakeBackend) SendMessage(_ context.Context, chatID, senderID uuid.UUID, content, msgType string) (*domain.ChatMessage, error) {
	if b.panicOnSend {
		panic("boom")
	}
	if b.sendErr != nil {
		return nil, b.sendErr
	}
	b.mu.Lock()
	b.sent = append(b.sent, content)
	b.mu.Unlock()
	return &domain.ChatMessage{ID: uuid.New(), ChatID: chatID, SenderID: senderID, Content: content}, nil
}

func (b *fakeBackend) IsParticipant(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return b.participant, nil
}

func newTestHub(t *testing.T, backend ChatBackend, strict bool) *Hub {
	t.Helper()
	return NewHub(backend, NewLocalBroker(), strict, zap.NewNop())
}

// connect registers a socket-less client directly.
func connect(h *Hub, userID uuid.UUID) *Client {
	c := NewClient(h, nil, userID)
	h.add(c)
	return c
}

func readFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case raw, ok := <-c.Send():
		require.True(t, ok, "send channel closed")
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return Frame{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send():
		t.Fatalf("unexpected frame: %s", raw)
	default:
	}
}

func errorMessage(t *testing.T, f Frame) string {
	t.Helper()
	require.Equal(t, EventError, f.Event)
	var p errorPayload
	require.NoError(t, json.Unmarshal(f.Data, &p))
	return p.Message
}

func joinFrame(chatID uuid.UUID) Frame {
	data, _ := json.Marshal(map[string]string{"chatId": chatID.String()})
	return Frame{Event: EventJoinChat, Data: data}
}

func TestHub_MessageSentReachesRoomMembersOnly(t *testing.T) {
	h := newTestHub(t, &fakeBackend{}, false)
	chatID := uuid.New()
	alice := connect(h, uuid.New())
	bob := connect(h, uuid.New())
	stranger := connect(h, uuid.New())

	h.Dispatch(alice, joinFrame(chatID))
	// A bare id string is accepted too.
	raw, _ := json.Marshal(chatID.String())
	h.Dispatch(bob, Frame{Event: EventJoinChat, Data: raw})
	assert.Equal(t, 2, h.RoomSize(ChatRoom(chatID)))

	msg := &domain.ChatMessage{ID: uuid.New(), ChatID: chatID, SenderID: alice.UserID, Content: "hello"}
	h.MessageSent(context.Background(), msg)

	for _, c := range []*Client{alice, bob} {
		f := readFrame(t, c)
		assert.Equal(t, EventNewMessage, f.Event)
		var got domain.ChatMessage
		require.NoError(t, json.Unmarshal(f.Data, &got))
		assert.Equal(t, msg.ID, got.ID)
		assert.Equal(t, "hello", got.Content)
	}
	assertNoFrame(t, stranger)
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	h := newTestHub(t, &fakeBackend{}, false)
	chatID := uuid.New()
	alice := connect(h, uuid.New())

	h.Dispatch(alice, joinFrame(chatID))
	leave := joinFrame(chatID)
	leave.Event = EventLeaveChat
	h.Dispatch(alice, leave)
	assert.Equal(t, 0, h.RoomSize(ChatRoom(chatID)))

	h.MessageSent(context.Background(), &domain.ChatMessage{ID: uuid.New(), ChatID: chatID})
	assertNoFrame(t, alice)
}

func TestHub_TypingSkipsSender(t *testing.T) {
	h := newTestHub(t, &fakeBackend{}, false)
	chatID := uuid.New()
	alice := connect(h, uuid.New())
	bob := connect(h, uuid.New())
	h.Dispatch(alice, joinFrame(chatID))
	h.Dispatch(bob, joinFrame(chatID))

	data, _ := json.Marshal(typingPayload{ChatID: chatID.String(), IsTyping: true})
	h.Dispatch(alice, Frame{Event: EventTyping, Data: data})

	f := readFrame(t, bob)
	assert.Equal(t, EventUserTyping, f.Event)
	var p userTypingPayload
	require.NoError(t, json.Unmarshal(f.Data, &p))
	assert.Equal(t, alice.UserID, p.UserID)
	assert.True(t, p.IsTyping)
	assertNoFrame(t, alice)
}

func TestHub_SendMessageGoesThroughBackend(t *testing.T) {
	backend := &fakeBackend{}
	h := newTestHub(t, backend, false)
	alice := connect(h, uuid.New())

	data, _ := json.Marshal(sendMessagePayload{ChatID: uuid.NewString(), Content: "hi"})
	h.Dispatch(alice, Frame{Event: EventSendMessage, Data: data})

	backend.mu.Lock()
	assert.Equal(t, []string{"hi"}, backend.sent)
	backend.mu.Unlock()
	assertNoFrame(t, alice)
}

func TestHub_ErrorsGoToTheCallerOnly(t *testing.T) {
	backend := &fakeBackend{sendErr: domain.ErrEmptyMessage}
	h := newTestHub(t, backend, true)
	alice := connect(h, uuid.New())
	bob := connect(h, uuid.New())

	h.Dispatch(alice, Frame{Event: "dance"})
	assert.Equal(t, "Unknown event: dance", errorMessage(t, readFrame(t, alice)))

	h.Dispatch(alice, Frame{Event: EventJoinChat, Data: json.RawMessage(`{"chatId":"nope"}`)})
	assert.Equal(t, "Invalid chat id", errorMessage(t, readFrame(t, alice)))

	h.Dispatch(alice, joinFrame(uuid.New()))
	assert.Equal(t, "not a chat participant", errorMessage(t, readFrame(t, alice)))

	data, _ := json.Marshal(sendMessagePayload{ChatID: uuid.NewString(), Content: " "})
	h.Dispatch(alice, Frame{Event: EventSendMessage, Data: data})
	assert.Equal(t, "message content is required", errorMessage(t, readFrame(t, alice)))

	backend.sendErr = assert.AnError
	h.Dispatch(alice, Frame{Event: EventSendMessage, Data: data})
	assert.Equal(t, "Failed to send message", errorMessage(t, readFrame(t, alice)))

	assertNoFrame(t, bob)
}

func TestHub_RecoversFromHandlerPanic(t *testing.T) {
	h := newTestHub(t, &fakeBackend{panicOnSend: true}, false)
	alice := connect(h, uuid.New())

	data, _ := json.Marshal(sendMessagePayload{ChatID: uuid.NewString(), Content: "hi"})
	assert.NotPanics(t, func() {
		h.Dispatch(alice, Frame{Event: EventSendMessage, Data: data})
	})
	assert.Equal(t, "Internal server error", errorMessage(t, readFrame(t, alice)))
}

func TestHub_AdminAndMatchEvents(t *testing.T) {
	h := newTestHub(t, &fakeBackend{}, false)
	chatID := uuid.New()
	alice := connect(h, uuid.New())
	bob := connect(h, uuid.New())
	admin := connect(h, uuid.New())
	h.Dispatch(alice, joinFrame(chatID))

	exits := time.Now().Add(time.Hour).UTC()
	h.AdminJoined(context.Background(), domain.AdminEvent{ChatID: chatID, AdminID: admin.UserID, AdminExitsAt: &exits})
	assert.Equal(t, EventAdminJoined, readFrame(t, alice).Event)
	assert.Equal(t, EventAdminJoined, readFrame(t, admin).Event)

	h.AdminLeft(context.Background(), domain.AdminEvent{ChatID: chatID, AdminID: admin.UserID})
	assert.Equal(t, EventAdminLeft, readFrame(t, alice).Event)
	assertNoFrame(t, admin)

	conn := &domain.Connection{ID: uuid.New(), User1ID: alice.UserID, User2ID: bob.UserID}
	h.Matched(context.Background(), conn)
	for _, c := range []*Client{alice, bob} {
		f := readFrame(t, c)
		assert.Equal(t, EventNewMatch, f.Event)
		var got domain.Connection
		require.NoError(t, json.Unmarshal(f.Data, &got))
		assert.Equal(t, conn.ID, got.ID)
	}
	assertNoFrame(t, admin)
}

func TestHub_RunRegistersAndStops(t *testing.T) {
	h := newTestHub(t, &fakeBackend{}, false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	userID := uuid.New()
	c := NewClient(h, nil, userID)
	require.NoError(t, h.Register(c))
	assert.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.RoomSize(UserRoom(userID)))

	h.Unregister(c)
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-c.Send()
	assert.False(t, ok, "send channel should be closed")

	cancel()
	<-done
	assert.ErrorIs(t, h.Register(NewClient(h, nil, userID)), ErrHubStopped)
}

func TestHub_SlowClientIsDisconnected(t *testing.T) {
	h := newTestHub(t, &fakeBackend{}, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := NewClient(h, nil, uuid.New())
	require.NoError(t, h.Register(c))
	assert.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i <= sendBuffer; i++ {
		h.Matched(ctx, &domain.Connection{ID: uuid.New(), User1ID: c.UserID, User2ID: uuid.New()})
	}
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
