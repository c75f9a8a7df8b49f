package api_test

import (
	"net/http"
	"testing"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openChat(t *testing.T, s *testServer, from account, to uuid.UUID) *domain.Chat {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/chat", from.Token, map[string]string{"targetUserId": to.String()})
	require.Equal(t, http.StatusOK, code, env.Error)
	chat := decode[domain.Chat](t, env)
	return &chat
}

func TestChatFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.single(t, "alice@example.com")
	bob := s.single(t, "bob@example.com")

	chat := openChat(t, s, alice, bob.ID)
	again := openChat(t, s, bob, alice.ID)
	assert.Equal(t, chat.ID, again.ID)

	code, env := s.do(t, http.MethodPost, "/api/v1/chat/"+chat.ID.String()+"/messages", alice.Token, map[string]string{"content": "hello bob"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	msg := decode[domain.ChatMessage](t, env)
	assert.Equal(t, domain.MessageTypeText, msg.Type)

	code, env = s.do(t, http.MethodGet, "/api/v1/chat/"+chat.ID.String()+"/messages", bob.Token, nil)
	require.Equal(t, http.StatusOK, code)
	msgs := decode[[]domain.ChatMessage](t, env)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello bob", msgs[0].Content)

	code, env = s.do(t, http.MethodGet, "/api/v1/chat", bob.Token, nil)
	require.Equal(t, http.StatusOK, code)
	chats := decode[[]domain.Chat](t, env)
	require.Len(t, chats, 1)
	require.NotNil(t, chats[0].LastMessage)
	assert.Equal(t, msg.ID, chats[0].LastMessage.ID)
}

func TestChatErrors(t *testing.T) {
	s := newTestServer(t)
	alice := s.single(t, "alice@example.com")
	bob := s.single(t, "bob@example.com")
	carol := s.single(t, "carol@example.com")
	chat := openChat(t, s, alice, bob.ID)
	path := "/api/v1/chat/" + chat.ID.String()

	code, _ := s.do(t, http.MethodPost, "/api/v1/chat", alice.Token, map[string]string{"targetUserId": "nope"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/chat", alice.Token, map[string]string{"targetUserId": alice.ID.String()})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := s.do(t, http.MethodPost, "/api/v1/chat", alice.Token, map[string]string{"targetUserId": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found", env.Error.Message)

	code, env = s.do(t, http.MethodPost, path+"/messages", alice.Token, map[string]string{"content": "  "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "message content is required", env.Error.Message)

	code, _ = s.do(t, http.MethodPost, path+"/messages", alice.Token, map[string]string{"content": "x", "type": "VIDEO"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, path+"/messages", carol.Token, map[string]string{"content": "let me in"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodGet, path+"/messages", carol.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/chat/"+uuid.NewString()+"/messages", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Chat not found", env.Error.Message)

	code, _ = s.do(t, http.MethodGet, "/api/v1/chat/not-a-uuid/messages", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPost, path+"/invite-admin", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "No admin available", env.Error.Message)
}

func TestAdminParticipation(t *testing.T) {
	s := newTestServer(t)
	alice := s.single(t, "alice@example.com")
	bob := s.single(t, "bob@example.com")
	admin := s.admin(t, "support@example.com")
	chat := openChat(t, s, alice, bob.ID)
	path := "/api/v1/chat/" + chat.ID.String()

	code, env := s.do(t, http.MethodPost, path+"/invite-admin", bob.Token, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	invited := decode[domain.Chat](t, env)
	assert.True(t, invited.IsAdminActive)
	require.NotNil(t, invited.AdminID)
	assert.Equal(t, admin.ID, *invited.AdminID)
	assert.Len(t, invited.Participants, 3)

	code, env = s.do(t, http.MethodGet, "/api/v1/admin/chats", admin.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]domain.Chat](t, env), 1)

	code, _ = s.do(t, http.MethodGet, "/api/v1/admin/chats", alice.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPost, path+"/messages", admin.Token, map[string]string{"content": "Hi both, how can I help?"})
	assert.Equal(t, http.StatusCreated, code)

	code, env = s.do(t, http.MethodPost, path+"/remove-admin", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	removed := decode[domain.Chat](t, env)
	assert.False(t, removed.IsAdminActive)
	assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, removed.Participants)

	code, _ = s.do(t, http.MethodPost, path+"/messages", admin.Token, map[string]string{"content": "one more thing"})
	assert.Equal(t, http.StatusForbidden, code)
}
