package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/google/uuid"
)

// MemoryRepository keeps every collection in process memory behind one lock.
// It backs STORE_DRIVER=memory and the package tests. Values are copied on the
// way in and out so callers never share state with the store.
type MemoryRepository struct {
	mu          sync.RWMutex
	now         func() time.Time
	users       map[uuid.UUID]*domain.User
	chats       map[uuid.UUID]*domain.Chat
	messages    map[uuid.UUID][]*domain.ChatMessage
	swipes      []*domain.Swipe
	connections []*domain.Connection
	profiles    map[uuid.UUID]*domain.ConnectProfile
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:      func() time.Time { return time.Now().UTC() },
		users:    make(map[uuid.UUID]*domain.User),
		chats:    make(map[uuid.UUID]*domain.Chat),
		messages: make(map[uuid.UUID][]*domain.ChatMessage),
		profiles: make(map[uuid.UUID]*domain.ConnectProfile),
	}
}

func (r *MemoryRepository) Ping(context.Context) error { return nil }

// Users

func (r *MemoryRepository) CreateUser(_ context.Context, params domain.CreateUserParams) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(params.Email)
	for _, u := range r.users {
		if u.Email == email {
			return nil, domain.ErrUserAlreadyExists
		}
	}
	role := params.Role
	if role == "" {
		role = domain.RoleUser
	}
	// Keep creation times strictly increasing so admin tie-breaks are stable.
	now := r.now()
	for _, u := range r.users {
		if !now.After(u.CreatedAt) {
			now = u.CreatedAt.Add(time.Microsecond)
		}
	}
	u := &domain.User{
		ID:            uuid.New(),
		FullName:      params.FullName,
		Email:         email,
		PasswordHash:  params.PasswordHash,
		GoogleID:      params.GoogleID,
		Age:           params.Age,
		Location:      params.Location,
		MaritalStatus: params.MaritalStatus,
		Role:          role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.users[u.ID] = u
	return copyUser(u), nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *MemoryRepository) UpdateUserAvatar(_ context.Context, id uuid.UUID, avatarURL string) error {
	return r.updateUser(id, func(u *domain.User) { u.AvatarURL = &avatarURL })
}

func (r *MemoryRepository) UpdateUserFCMToken(_ context.Context, id uuid.UUID, token string) error {
	return r.updateUser(id, func(u *domain.User) { u.FCMToken = &token })
}

func (r *MemoryRepository) FindAvailableAdmin(_ context.Context) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	load := make(map[uuid.UUID]int)
	for _, c := range r.chats {
		if c.IsAdminActive && c.AdminID != nil {
			load[*c.AdminID]++
		}
	}

	var best *domain.User
	for _, u := range r.users {
		if u.Role != domain.RoleAdmin {
			continue
		}
		if best == nil || load[u.ID] < load[best.ID] ||
			(load[u.ID] == load[best.ID] && u.CreatedAt.Before(best.CreatedAt)) {
			best = u
		}
	}
	if best == nil {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(best), nil
}

func (r *MemoryRepository) updateUser(id uuid.UUID, fn func(u *domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = r.now()
	return nil
}

// Chats

func (r *MemoryRepository) CreateChat(_ context.Context, participants []uuid.UUID) (*domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	c := &domain.Chat{
		ID:             uuid.New(),
		Participants:   append([]uuid.UUID(nil), participants...),
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.chats[c.ID] = c
	return copyChat(c), nil
}

func (r *MemoryRepository) GetChatByID(_ context.Context, chatID uuid.UUID) (*domain.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chats[chatID]
	if !ok {
		return nil, domain.ErrChatNotFound
	}
	return copyChat(c), nil
}

func (r *MemoryRepository) FindDirectChat(_ context.Context, a, b uuid.UUID) (*domain.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *domain.Chat
	for _, c := range r.chats {
		if !c.HasParticipant(a) || !c.HasParticipant(b) {
			continue
		}
		if c.AdminID != nil && (*c.AdminID == a || *c.AdminID == b) {
			continue
		}
		members := 0
		for _, p := range c.Participants {
			if c.AdminID == nil || p != *c.AdminID {
				members++
			}
		}
		if members != 2 {
			continue
		}
		if found == nil || c.CreatedAt.Before(found.CreatedAt) {
			found = c
		}
	}
	if found == nil {
		return nil, domain.ErrChatNotFound
	}
	return copyChat(found), nil
}

func (r *MemoryRepository) GetChatsByUserID(_ context.Context, userID uuid.UUID, limit int) ([]*domain.Chat, error) {
	return r.filterChats(limit, func(c *domain.Chat) bool { return c.HasParticipant(userID) }), nil
}

func (r *MemoryRepository) GetChatsByActiveAdmin(_ context.Context, adminID uuid.UUID) ([]*domain.Chat, error) {
	return r.filterChats(0, func(c *domain.Chat) bool {
		return c.IsAdminActive && c.AdminID != nil && *c.AdminID == adminID
	}), nil
}

func (r *MemoryRepository) AppendMessage(_ context.Context, chatID uuid.UUID, msg *domain.ChatMessage, check domain.ChatMutation) (*domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.chats[chatID]
	if !ok {
		return nil, domain.ErrChatNotFound
	}
	if check != nil {
		if err := check(copyChat(c)); err != nil {
			return nil, err
		}
	}

	stored := *msg
	stored.ChatID = chatID
	r.messages[chatID] = append(r.messages[chatID], &stored)
	c.Append(&stored)

	out := stored
	return &out, nil
}

func (r *MemoryRepository) UpdateChat(_ context.Context, chatID uuid.UUID, mutate domain.ChatMutation) (*domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.chats[chatID]
	if !ok {
		return nil, domain.ErrChatNotFound
	}
	working := copyChat(c)
	if err := mutate(working); err != nil {
		if errors.Is(err, domain.ErrNoChange) {
			return copyChat(c), nil
		}
		return nil, err
	}
	working.UpdatedAt = r.now()
	r.chats[chatID] = working
	return copyChat(working), nil
}

func (r *MemoryRepository) GetMessages(_ context.Context, chatID uuid.UUID) ([]*domain.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.chats[chatID]; !ok {
		return nil, domain.ErrChatNotFound
	}
	stored := r.messages[chatID]
	out := make([]*domain.ChatMessage, len(stored))
	for i, m := range stored {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}

func (r *MemoryRepository) GetChatIDsWithExpiredAdmin(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []uuid.UUID
	for id, c := range r.chats {
		if c.AdminDue(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *MemoryRepository) filterChats(limit int, keep func(c *domain.Chat) bool) []*domain.Chat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Chat{}
	for _, c := range r.chats {
		if keep(c) {
			out = append(out, copyChat(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Swipes and connections

func (r *MemoryRepository) CreateSwipe(_ context.Context, userID, targetID uuid.UUID, action domain.SwipeAction) (*domain.Swipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &domain.Swipe{
		ID:           uuid.New(),
		UserID:       userID,
		TargetUserID: targetID,
		Action:       action,
		CreatedAt:    r.now(),
	}
	r.swipes = append(r.swipes, s)
	cp := *s
	return &cp, nil
}

func (r *MemoryRepository) HasSwipe(_ context.Context, userID, targetID uuid.UUID, action domain.SwipeAction) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.swipes {
		if s.UserID == userID && s.TargetUserID == targetID && s.Action == action {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) GetSwipedTargetIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	ids := []uuid.UUID{}
	for _, s := range r.swipes {
		if s.UserID == userID && !seen[s.TargetUserID] {
			seen[s.TargetUserID] = true
			ids = append(ids, s.TargetUserID)
		}
	}
	return ids, nil
}

func (r *MemoryRepository) ConnectionExists(_ context.Context, a, b uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findConnection(a, b) != nil, nil
}

// CreateConnection enforces one connection per unordered pair, like the
// unique index in the SQL schema.
func (r *MemoryRepository) CreateConnection(_ context.Context, user1ID, user2ID uuid.UUID) (*domain.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findConnection(user1ID, user2ID) != nil {
		return nil, domain.ErrConnectionExists
	}
	now := r.now()
	c := &domain.Connection{
		ID:          uuid.New(),
		User1ID:     user1ID,
		User2ID:     user2ID,
		Status:      domain.ConnectionStatusConnected,
		ConnectedAt: now,
		CreatedAt:   now,
	}
	r.connections = append(r.connections, c)
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) GetConnectionsByUser(_ context.Context, userID uuid.UUID) ([]*domain.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Connection{}
	for i := len(r.connections) - 1; i >= 0; i-- {
		c := r.connections[i]
		if c.Status == domain.ConnectionStatusConnected && (c.User1ID == userID || c.User2ID == userID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemoryRepository) findConnection(a, b uuid.UUID) *domain.Connection {
	for _, c := range r.connections {
		if (c.User1ID == a && c.User2ID == b) || (c.User1ID == b && c.User2ID == a) {
			return c
		}
	}
	return nil
}

// Profiles

func (r *MemoryRepository) GetProfile(_ context.Context, userID uuid.UUID) (*domain.ConnectProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return copyProfile(p), nil
}

func (r *MemoryRepository) UpsertProfile(_ context.Context, userID uuid.UUID, params domain.UpsertProfileParams) (*domain.ConnectProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	p, ok := r.profiles[userID]
	if !ok {
		p = &domain.ConnectProfile{UserID: userID, CreatedAt: now}
		r.profiles[userID] = p
	}
	p.Bio = params.Bio
	p.Photos = append([]string{}, params.Photos...)
	p.Interests = append([]string{}, params.Interests...)
	p.WhatYouSeek = params.WhatYouSeek
	p.Testimonial = params.Testimonial
	p.IsActive = params.IsActive
	p.UpdatedAt = now
	return copyProfile(p), nil
}

func (r *MemoryRepository) ListDiscoverable(_ context.Context, userID uuid.UUID, exclude []uuid.UUID, limit int) ([]*domain.ConnectProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	skip := make(map[uuid.UUID]bool, len(exclude)+1)
	skip[userID] = true
	for _, id := range exclude {
		skip[id] = true
	}

	out := []*domain.ConnectProfile{}
	for _, p := range r.profiles {
		if p.IsActive && !skip[p.UserID] {
			out = append(out, copyProfile(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyUser(u *domain.User) *domain.User {
	cp := *u
	return &cp
}

func copyChat(c *domain.Chat) *domain.Chat {
	cp := *c
	cp.Participants = append([]uuid.UUID(nil), c.Participants...)
	if c.AdminID != nil {
		id := *c.AdminID
		cp.AdminID = &id
	}
	if c.AdminExitsAt != nil {
		t := *c.AdminExitsAt
		cp.AdminExitsAt = &t
	}
	if c.LastMessage != nil {
		m := *c.LastMessage
		cp.LastMessage = &m
	}
	return &cp
}

func copyProfile(p *domain.ConnectProfile) *domain.ConnectProfile {
	cp := *p
	cp.Photos = append([]string{}, p.Photos...)
	cp.Interests = append([]string{}, p.Interests...)
	return &cp
}
