package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const discoverLimit = 50

// SwipeResult is returned by RecordSwipe.
type SwipeResult struct {
	Connected  bool        `json:"connected"`
	Message    string      `json:"message"`
	Connection *Connection `json:"connection,omitempty"`
}

// ConnectService runs Passion Connect: profiles, discovery and the swipe/match
// engine.
type ConnectService struct {
	swipes      SwipeRepository
	connections ConnectionRepository
	profiles    ProfileRepository
	chats       *ChatService
	events      EventPublisher
	notifier    Notifier
	logger      *zap.Logger
	pairLocks   *keyedMutex
}

func NewConnectService(swipes SwipeRepository, connections ConnectionRepository, profiles ProfileRepository, chats *ChatService, logger *zap.Logger) *ConnectService {
	return &ConnectService{
		swipes:      swipes,
		connections: connections,
		profiles:    profiles,
		chats:       chats,
		events:      noopPublisher{},
		logger:      logger,
		pairLocks:   newKeyedMutex(),
	}
}

func (s *ConnectService) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	s.events = p
}

func (s *ConnectService) SetNotifier(n Notifier) {
	s.notifier = n
}

// RecordSwipe stores a like or pass from actorID on targetID. A like that
// finds a reciprocal like creates the pair's Connection, exactly once.
func (s *ConnectService) RecordSwipe(ctx context.Context, actorID, targetID uuid.UUID, action string) (*SwipeResult, error) {
	act, err := ParseSwipeAction(action)
	if err != nil {
		return nil, err
	}
	if actorID == targetID {
		return nil, ErrSelfTarget
	}

	profile, err := s.profiles.GetProfile(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !profile.IsActive {
		return nil, ErrProfileNotFound
	}

	recorded := &SwipeResult{Connected: false, Message: "Swipe recorded"}

	if act == SwipePass {
		if _, err := s.swipes.CreateSwipe(ctx, actorID, targetID, SwipePass); err != nil {
			return nil, err
		}
		return recorded, nil
	}

	unlock := s.pairLocks.Lock(pairKey(actorID, targetID))
	defer unlock()

	exists, err := s.connections.ConnectionExists(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if exists {
		return recorded, nil
	}

	if _, err := s.swipes.CreateSwipe(ctx, actorID, targetID, SwipeLike); err != nil {
		return nil, err
	}

	mutual, err := s.swipes.HasSwipe(ctx, targetID, actorID, SwipeLike)
	if err != nil {
		return nil, err
	}
	if !mutual {
		return recorded, nil
	}

	conn, err := s.connections.CreateConnection(ctx, actorID, targetID)
	if err != nil {
		// Another instance matched the pair first.
		if errors.Is(err, ErrConflict) {
			return recorded, nil
		}
		return nil, err
	}

	s.logger.Info("connection created",
		zap.String("connection_id", conn.ID.String()),
		zap.String("user1_id", conn.User1ID.String()),
		zap.String("user2_id", conn.User2ID.String()),
	)
	s.onMatch(ctx, conn)

	return &SwipeResult{Connected: true, Message: "It's a match!", Connection: conn}, nil
}

// onMatch opens the pair's chat and tells both users. Failures here do not
// undo the match.
func (s *ConnectService) onMatch(ctx context.Context, conn *Connection) {
	if s.chats != nil {
		if _, err := s.chats.OpenChat(ctx, conn.User1ID, conn.User2ID); err != nil {
			s.logger.Warn("open match chat failed", zap.String("connection_id", conn.ID.String()), zap.Error(err))
		}
	}

	s.events.Matched(ctx, conn)

	if s.notifier == nil {
		return
	}
	data := map[string]string{
		"type":          "match",
		"connection_id": conn.ID.String(),
	}
	go func() {
		for _, userID := range []uuid.UUID{conn.User1ID, conn.User2ID} {
			if err := s.notifier.Notify(context.Background(), userID, "It's a match!", "You have a new connection", data); err != nil {
				s.logger.Warn("push notification failed", zap.String("user_id", userID.String()), zap.Error(err))
			}
		}
	}()
}

// ListConnections returns the caller's connections, newest first.
func (s *ConnectService) ListConnections(ctx context.Context, userID uuid.UUID) ([]*Connection, error) {
	return s.connections.GetConnectionsByUser(ctx, userID)
}

// GetProfile returns nil without error when the user has no profile yet.
func (s *ConnectService) GetProfile(ctx context.Context, userID uuid.UUID) (*ConnectProfile, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

func (s *ConnectService) UpsertProfile(ctx context.Context, userID uuid.UUID, params UpsertProfileParams) (*ConnectProfile, error) {
	if params.Photos == nil {
		params.Photos = []string{}
	}
	if params.Interests == nil {
		params.Interests = []string{}
	}
	return s.profiles.UpsertProfile(ctx, userID, params)
}

// Discover lists active profiles the caller has neither swiped on nor
// connected with.
func (s *ConnectService) Discover(ctx context.Context, userID uuid.UUID) ([]*ConnectProfile, error) {
	exclude, err := s.swipes.GetSwipedTargetIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	conns, err := s.connections.GetConnectionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range conns {
		exclude = append(exclude, c.Other(userID))
	}
	return s.profiles.ListDiscoverable(ctx, userID, exclude, discoverLimit)
}
