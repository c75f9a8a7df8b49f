package api_test

import (
	"net/http"
	"testing"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupValidation(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"fullName": "A",
		"email":    "not-an-email",
		"password": "short",
		"age":      16,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Message, "email")
	assert.Contains(t, env.Error.Message, "age")
	assert.Contains(t, env.Error.Message, "maritalStatus")
}

func TestSignupLoginAndMe(t *testing.T) {
	s := newTestServer(t)
	acct := s.single(t, "alice@example.com")

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"fullName":      "Alice Again",
		"email":         "ALICE@example.com",
		"password":      "password123",
		"age":           30,
		"maritalStatus": "NOT_IN_RELATIONSHIP",
		"location":      map[string]string{"country": "NG", "city": "Abuja"},
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "email already registered", env.Error.Message)

	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-pass1",
	})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": " Alice@Example.com ", "password": "password123",
	})
	require.Equal(t, http.StatusOK, code)
	login := decode[struct {
		Token          string          `json:"token"`
		AllowedModules []domain.Module `json:"allowedModules"`
	}](t, env)
	assert.NotEmpty(t, login.Token)
	assert.Contains(t, login.AllowedModules, domain.ModulePassionConnect)

	code, _ = s.do(t, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/me", acct.Token, nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}](t, env)
	assert.Equal(t, "alice@example.com", me.User.Email)
}

func TestGoogleLoginDisabled(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(t, http.MethodPost, "/api/v1/auth/google", "", map[string]string{"idToken": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "google sign-in is not configured", env.Error.Message)
}

func TestDeviceToken(t *testing.T) {
	s := newTestServer(t)
	acct := s.single(t, "alice@example.com")

	code, _ := s.do(t, http.MethodPost, "/api/v1/me/device-token", acct.Token, map[string]string{"token": ""})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/me/device-token", acct.Token, map[string]string{"token": "fcm-123"})
	assert.Equal(t, http.StatusNoContent, code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/health", "/health/ready", "/health/live"} {
		resp, err := http.Get(s.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
