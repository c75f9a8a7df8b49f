package domain_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/OgbonnaBlessed/passion-streams/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// eventRecorder captures everything the services publish.
type eventRecorder struct {
	mu       sync.Mutex
	messages []*domain.ChatMessage
	joined   []domain.AdminEvent
	left     []domain.AdminEvent
	matches  []*domain.Connection
}

func (r *eventRecorder) MessageSent(_ context.Context, msg *domain.ChatMessage) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
}

func (r *eventRecorder) AdminJoined(_ context.Context, ev domain.AdminEvent) {
	r.mu.Lock()
	r.joined = append(r.joined, ev)
	r.mu.Unlock()
}

func (r *eventRecorder) AdminLeft(_ context.Context, ev domain.AdminEvent) {
	r.mu.Lock()
	r.left = append(r.left, ev)
	r.mu.Unlock()
}

func (r *eventRecorder) Matched(_ context.Context, conn *domain.Connection) {
	r.mu.Lock()
	r.matches = append(r.matches, conn)
	r.mu.Unlock()
}

func (r *eventRecorder) messageIDs() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uuid.UUID, len(r.messages))
	for i, m := range r.messages {
		ids[i] = m.ID
	}
	return ids
}

func (r *eventRecorder) counts() (joined, left, matches int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.joined), len(r.left), len(r.matches)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	args := m.Called(ctx, userID, title, body, data)
	return args.Error(0)
}

type chatFixture struct {
	repo   *repository.MemoryRepository
	chats  *domain.ChatService
	events *eventRecorder
	clock  *fakeClock
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	repo := repository.NewMemoryRepository()
	clock := newFakeClock()
	events := &eventRecorder{}

	chats := domain.NewChatService(repo, repo, time.Hour, zap.NewNop())
	chats.SetClock(clock.Now)
	chats.SetEventPublisher(events)

	return &chatFixture{repo: repo, chats: chats, events: events, clock: clock}
}

func (f *chatFixture) user(t *testing.T, name string, age int, status domain.MaritalStatus) *domain.User {
	t.Helper()
	u, err := f.repo.CreateUser(context.Background(), domain.CreateUserParams{
		FullName:      name,
		Email:         name + "@example.com",
		Age:           age,
		MaritalStatus: status,
		Role:          domain.RoleUser,
	})
	require.NoError(t, err)
	return u
}

func (f *chatFixture) admin(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := f.repo.CreateUser(context.Background(), domain.CreateUserParams{
		FullName:      name,
		Email:         name + "@example.com",
		Age:           40,
		MaritalStatus: domain.MaritalStatusMarried,
		Role:          domain.RoleAdmin,
	})
	require.NoError(t, err)
	return u
}

func (f *chatFixture) single(t *testing.T, name string) *domain.User {
	t.Helper()
	return f.user(t, name, 30, domain.MaritalStatusNotInRelationship)
}
