package api_test

import (
	"net/http"
	"testing"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveProfile(t *testing.T, s *testServer, acct account) {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/connect/profile", acct.Token, map[string]any{
		"bio":       "  loves hiking  ",
		"photos":    []string{"https://cdn.example.com/p1.jpg"},
		"interests": []string{"hiking", " ", "jazz"},
	})
	require.Equal(t, http.StatusOK, code, env.Error)
}

func TestConnectAccessRules(t *testing.T) {
	s := newTestServer(t)
	young := s.signup(t, "young@example.com", 22, domain.MaritalStatusNotInRelationship)
	taken := s.signup(t, "taken@example.com", 30, domain.MaritalStatusInRelationship)

	code, env := s.do(t, http.MethodGet, "/api/v1/connect/discover", young.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "must be 25 or older to access Passion Connect", env.Error.Message)

	code, _ = s.do(t, http.MethodGet, "/api/v1/connect/discover", taken.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/connect/discover", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestConnectProfile(t *testing.T) {
	s := newTestServer(t)
	alice := s.single(t, "alice@example.com")

	code, env := s.do(t, http.MethodGet, "/api/v1/connect/profile", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "null", string(env.Data))

	code, _ = s.do(t, http.MethodPost, "/api/v1/connect/profile", alice.Token, map[string]any{
		"photos": []string{"javascript:alert(1)"},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	saveProfile(t, s, alice)
	code, env = s.do(t, http.MethodGet, "/api/v1/connect/profile", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	profile := decode[domain.ConnectProfile](t, env)
	assert.Equal(t, "loves hiking", profile.Bio)
	assert.Equal(t, []string{"hiking", "jazz"}, profile.Interests)
	assert.True(t, profile.IsActive)
}

func TestSwipeAndMatch(t *testing.T) {
	s := newTestServer(t)
	alice := s.single(t, "alice@example.com")
	bob := s.single(t, "bob@example.com")
	saveProfile(t, s, alice)
	saveProfile(t, s, bob)

	code, env := s.do(t, http.MethodPost, "/api/v1/connect/swipe", alice.Token, map[string]string{"action": "like"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Profile ID and action are required", env.Error.Message)

	code, _ = s.do(t, http.MethodPost, "/api/v1/connect/swipe", alice.Token, map[string]string{"profileId": bob.ID.String(), "action": "maybe"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/connect/discover", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	found := decode[[]domain.ConnectProfile](t, env)
	require.Len(t, found, 1)
	assert.Equal(t, bob.ID, found[0].UserID)

	code, env = s.do(t, http.MethodPost, "/api/v1/connect/swipe", alice.Token, map[string]string{"profileId": bob.ID.String(), "action": "like"})
	require.Equal(t, http.StatusOK, code)
	first := decode[domain.SwipeResult](t, env)
	assert.False(t, first.Connected)

	code, env = s.do(t, http.MethodPost, "/api/v1/connect/swipe", bob.Token, map[string]string{"profileId": alice.ID.String(), "action": "like"})
	require.Equal(t, http.StatusOK, code)
	second := decode[domain.SwipeResult](t, env)
	assert.True(t, second.Connected)
	assert.Equal(t, "It's a match!", second.Message)

	code, env = s.do(t, http.MethodGet, "/api/v1/connect/connections", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]domain.Connection](t, env), 1)

	code, env = s.do(t, http.MethodGet, "/api/v1/connect/discover", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]domain.ConnectProfile](t, env))

	// The match opened a chat between them.
	code, env = s.do(t, http.MethodGet, "/api/v1/chat", bob.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]domain.Chat](t, env), 1)
}
