package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SwipeAction string

const (
	SwipeLike SwipeAction = "like"
	SwipePass SwipeAction = "pass"
)

func ParseSwipeAction(s string) (SwipeAction, error) {
	switch a := SwipeAction(s); a {
	case SwipeLike, SwipePass:
		return a, nil
	}
	return "", ErrInvalidSwipeAction
}

// Swipe is one entry of the append-only swipe log.
type Swipe struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"userId"`
	TargetUserID uuid.UUID   `json:"targetUserId"`
	Action       SwipeAction `json:"action"`
	CreatedAt    time.Time   `json:"createdAt"`
}

type ConnectionStatus string

const ConnectionStatusConnected ConnectionStatus = "CONNECTED"

// Connection is the symmetric result of a mutual like. At most one exists per
// unordered pair.
type Connection struct {
	ID          uuid.UUID        `json:"id"`
	User1ID     uuid.UUID        `json:"user1Id"`
	User2ID     uuid.UUID        `json:"user2Id"`
	Status      ConnectionStatus `json:"status"`
	ConnectedAt time.Time        `json:"connectedAt"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Other returns the member of the pair that is not userID.
func (c *Connection) Other(userID uuid.UUID) uuid.UUID {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// ConnectProfile is a user's Passion Connect card. Only active profiles are
// discoverable and swipeable.
type ConnectProfile struct {
	UserID      uuid.UUID `json:"userId"`
	Bio         string    `json:"bio"`
	Photos      []string  `json:"photos"`
	Interests   []string  `json:"interests"`
	WhatYouSeek string    `json:"whatYouSeek"`
	Testimonial string    `json:"testimonial"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UpsertProfileParams holds the editable profile fields.
type UpsertProfileParams struct {
	Bio         string
	Photos      []string
	Interests   []string
	WhatYouSeek string
	Testimonial string
	IsActive    bool
}

type SwipeRepository interface {
	CreateSwipe(ctx context.Context, userID, targetID uuid.UUID, action SwipeAction) (*Swipe, error)
	// HasSwipe reports whether any swipe userID -> targetID with action exists.
	HasSwipe(ctx context.Context, userID, targetID uuid.UUID, action SwipeAction) (bool, error)
	GetSwipedTargetIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type ConnectionRepository interface {
	ConnectionExists(ctx context.Context, a, b uuid.UUID) (bool, error)
	// CreateConnection returns an error wrapping ErrConflict when the pair is
	// already connected.
	CreateConnection(ctx context.Context, user1ID, user2ID uuid.UUID) (*Connection, error)
	GetConnectionsByUser(ctx context.Context, userID uuid.UUID) ([]*Connection, error)
}

type ProfileRepository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*ConnectProfile, error)
	UpsertProfile(ctx context.Context, userID uuid.UUID, params UpsertProfileParams) (*ConnectProfile, error)
	// ListDiscoverable returns active profiles other than userID, skipping
	// exclude, newest first.
	ListDiscoverable(ctx context.Context, userID uuid.UUID, exclude []uuid.UUID, limit int) ([]*ConnectProfile, error)
}
