package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/OgbonnaBlessed/passion-streams/internal/api"
	"github.com/OgbonnaBlessed/passion-streams/internal/auth"
	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/OgbonnaBlessed/passion-streams/internal/realtime"
	"github.com/OgbonnaBlessed/passion-streams/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.BcryptCost = bcrypt.MinCost
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	*httptest.Server
	repo *repository.MemoryRepository
	jwt  *auth.JWTManager
	hub  *realtime.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	repo := repository.NewMemoryRepository()
	jwt := auth.NewJWTManager("test-secret", time.Hour)

	authService := domain.NewAuthService(repo, jwt, auth.NewGoogleAuthVerifier(nil))
	chatService := domain.NewChatService(repo, repo, time.Hour, logger)
	connectService := domain.NewConnectService(repo, repo, repo, chatService, logger)

	hub := realtime.NewHub(chatService, realtime.NewLocalBroker(), false, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	chatService.SetEventPublisher(hub)
	connectService.SetEventPublisher(hub)

	router := api.NewRouter(
		api.NewAuthHandler(authService, logger),
		api.NewChatHandler(chatService, logger),
		api.NewConnectHandler(connectService, logger),
		api.NewWSHandler(authService, hub, "", logger),
		api.NewHealthHandler(map[string]api.Pinger{"store": repo}, logger),
		authService,
		"",
		logger,
	)
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &testServer{Server: srv, repo: repo, jwt: jwt, hub: hub}
}

// do sends a JSON request and decodes the envelope.
func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

type account struct {
	ID    uuid.UUID
	Token string
}

func (s *testServer) signup(t *testing.T, email string, age int, status domain.MaritalStatus) account {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"fullName":      "Test User",
		"email":         email,
		"password":      "password123",
		"age":           age,
		"maritalStatus": status,
		"location":      map[string]string{"country": "NG", "city": "Lagos"},
	})
	require.Equal(t, http.StatusCreated, code, env.Error)

	var res struct {
		Token string `json:"token"`
		User  struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return account{ID: res.User.ID, Token: res.Token}
}

func (s *testServer) single(t *testing.T, email string) account {
	t.Helper()
	return s.signup(t, email, 30, domain.MaritalStatusNotInRelationship)
}

// admin accounts are provisioned out of band, never through signup.
func (s *testServer) admin(t *testing.T, email string) account {
	t.Helper()
	u, err := s.repo.CreateUser(context.Background(), domain.CreateUserParams{
		FullName:      "Support",
		Email:         email,
		Age:           35,
		MaritalStatus: domain.MaritalStatusMarried,
		Role:          domain.RoleAdmin,
	})
	require.NoError(t, err)
	token, _, err := s.jwt.GenerateAccessToken(u.ID, u.Email, string(u.Role))
	require.NoError(t, err)
	return account{ID: u.ID, Token: token}
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
