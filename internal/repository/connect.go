package repository

import (
	"context"
	"errors"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateSwipe appends to the swipe log
func (r *PostgresRepository) CreateSwipe(ctx context.Context, userID, targetID uuid.UUID, action domain.SwipeAction) (*domain.Swipe, error) {
	var s domain.Swipe
	err := r.db.QueryRow(ctx, `
		INSERT INTO swipes (user_id, target_user_id, action)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, target_user_id, action, created_at
	`, userID, targetID, action).Scan(&s.ID, &s.UserID, &s.TargetUserID, &s.Action, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) HasSwipe(ctx context.Context, userID, targetID uuid.UUID, action domain.SwipeAction) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM swipes WHERE user_id = $1 AND target_user_id = $2 AND action = $3
		)
	`, userID, targetID, action).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) GetSwipedTargetIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT target_user_id FROM swipes WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// ConnectionExists checks the unordered pair
func (r *PostgresRepository) ConnectionExists(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM connections
			WHERE LEAST(user1_id, user2_id) = LEAST($1::uuid, $2::uuid)
			  AND GREATEST(user1_id, user2_id) = GREATEST($1::uuid, $2::uuid)
		)
	`, a, b).Scan(&exists)
	return exists, err
}

// CreateConnection relies on idx_connections_pair to reject a second
// connection for the same pair.
func (r *PostgresRepository) CreateConnection(ctx context.Context, user1ID, user2ID uuid.UUID) (*domain.Connection, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO connections (user1_id, user2_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, user1_id, user2_id, status, connected_at, created_at
	`, user1ID, user2ID, domain.ConnectionStatusConnected)

	conn, err := scanConnection(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConnectionExists
		}
		return nil, err
	}
	return conn, nil
}

func (r *PostgresRepository) GetConnectionsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Connection, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user1_id, user2_id, status, connected_at, created_at
		FROM connections
		WHERE (user1_id = $1 OR user2_id = $1) AND status = $2
		ORDER BY connected_at DESC
	`, userID, domain.ConnectionStatusConnected)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conns := []*domain.Connection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

const profileColumns = `user_id, bio, photos, interests, what_you_seek, testimonial, is_active, created_at, updated_at`

func (r *PostgresRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.ConnectProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM connect_profiles WHERE user_id = $1`
	return scanProfile(r.db.QueryRow(ctx, query, userID))
}

func (r *PostgresRepository) UpsertProfile(ctx context.Context, userID uuid.UUID, p domain.UpsertProfileParams) (*domain.ConnectProfile, error) {
	query := `
		INSERT INTO connect_profiles (user_id, bio, photos, interests, what_you_seek, testimonial, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			bio = EXCLUDED.bio,
			photos = EXCLUDED.photos,
			interests = EXCLUDED.interests,
			what_you_seek = EXCLUDED.what_you_seek,
			testimonial = EXCLUDED.testimonial,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING ` + profileColumns
	row := r.db.QueryRow(ctx, query, userID, p.Bio, p.Photos, p.Interests, p.WhatYouSeek, p.Testimonial, p.IsActive)
	return scanProfile(row)
}

func (r *PostgresRepository) ListDiscoverable(ctx context.Context, userID uuid.UUID, exclude []uuid.UUID, limit int) ([]*domain.ConnectProfile, error) {
	if exclude == nil {
		exclude = []uuid.UUID{}
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+profileColumns+`
		FROM connect_profiles
		WHERE is_active AND user_id <> $1 AND NOT (user_id = ANY($2))
		ORDER BY updated_at DESC
		LIMIT $3
	`, userID, exclude, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []*domain.ConnectProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func scanConnection(row pgx.Row) (*domain.Connection, error) {
	var c domain.Connection
	err := row.Scan(&c.ID, &c.User1ID, &c.User2ID, &c.Status, &c.ConnectedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanProfile(row pgx.Row) (*domain.ConnectProfile, error) {
	var p domain.ConnectProfile
	err := row.Scan(
		&p.UserID,
		&p.Bio,
		&p.Photos,
		&p.Interests,
		&p.WhatYouSeek,
		&p.Testimonial,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}
