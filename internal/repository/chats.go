package repository

import (
	"context"
	"errors"
	"time"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const chatColumns = `id, admin_id, is_admin_active, admin_exits_at, last_message,
	last_activity_at, created_at, updated_at`

// CreateChat inserts a chat with participants in the given order
func (r *PostgresRepository) CreateChat(ctx context.Context, participants []uuid.UUID) (*domain.Chat, error) {
	now := time.Now().UTC()
	chat := &domain.Chat{
		ID:             uuid.New(),
		Participants:   append([]uuid.UUID(nil), participants...),
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO chats (id, last_activity_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4)
		`, chat.ID, now, now, now)
		if err != nil {
			return err
		}
		return insertParticipants(ctx, tx, chat.ID, chat.Participants)
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// GetChatByID retrieves a chat with its participants
func (r *PostgresRepository) GetChatByID(ctx context.Context, chatID uuid.UUID) (*domain.Chat, error) {
	return loadChat(ctx, r.db, chatID, false)
}

func (r *PostgresRepository) FindDirectChat(ctx context.Context, a, b uuid.UUID) (*domain.Chat, error) {
	query := `
		SELECT c.id
		FROM chats c
		JOIN chat_participants pa ON pa.chat_id = c.id AND pa.user_id = $1
		JOIN chat_participants pb ON pb.chat_id = c.id AND pb.user_id = $2
		WHERE (c.admin_id IS NULL OR c.admin_id NOT IN ($1, $2))
		AND (
			SELECT COUNT(*) FROM chat_participants p
			WHERE p.chat_id = c.id AND (c.admin_id IS NULL OR p.user_id <> c.admin_id)
		) = 2
		ORDER BY c.created_at
		LIMIT 1
	`
	var id uuid.UUID
	if err := r.db.QueryRow(ctx, query, a, b).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}
	return loadChat(ctx, r.db, id, false)
}

// GetChatsByUserID lists the user's chats, most recent activity first
func (r *PostgresRepository) GetChatsByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE id IN (SELECT chat_id FROM chat_participants WHERE user_id = $1)
		ORDER BY last_activity_at DESC
		LIMIT $2
	`
	return r.listChats(ctx, query, userID, limit)
}

func (r *PostgresRepository) GetChatsByActiveAdmin(ctx context.Context, adminID uuid.UUID) ([]*domain.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE admin_id = $1 AND is_admin_active
		ORDER BY last_activity_at DESC
	`
	return r.listChats(ctx, query, adminID)
}

// AppendMessage locks the chat row, runs check, inserts msg and updates the
// denormalized last message in a single transaction.
func (r *PostgresRepository) AppendMessage(ctx context.Context, chatID uuid.UUID, msg *domain.ChatMessage, check domain.ChatMutation) (*domain.ChatMessage, error) {
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		chat, err := loadChat(ctx, tx, chatID, true)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(chat); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO chat_messages (id, chat_id, sender_id, content, type, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, msg.ID, chatID, msg.SenderID, msg.Content, msg.Type, msg.CreatedAt)
		if err != nil {
			return err
		}

		chat.Append(msg)
		_, err = tx.Exec(ctx, `
			UPDATE chats SET last_message = $2, last_activity_at = $3, updated_at = $4
			WHERE id = $1
		`, chatID, chat.LastMessage, chat.LastActivityAt, chat.UpdatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// UpdateChat applies mutate to the locked chat and persists membership and
// admin state. A mutation returning domain.ErrNoChange commits nothing.
func (r *PostgresRepository) UpdateChat(ctx context.Context, chatID uuid.UUID, mutate domain.ChatMutation) (*domain.Chat, error) {
	var out *domain.Chat
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		chat, err := loadChat(ctx, tx, chatID, true)
		if err != nil {
			return err
		}
		out = chat

		if err := mutate(chat); err != nil {
			return err
		}
		chat.UpdatedAt = time.Now().UTC()

		_, err = tx.Exec(ctx, `
			UPDATE chats SET admin_id = $2, is_admin_active = $3, admin_exits_at = $4, updated_at = $5
			WHERE id = $1
		`, chatID, chat.AdminID, chat.IsAdminActive, chat.AdminExitsAt, chat.UpdatedAt)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM chat_participants WHERE chat_id = $1`, chatID); err != nil {
			return err
		}
		return insertParticipants(ctx, tx, chatID, chat.Participants)
	})
	if errors.Is(err, domain.ErrNoChange) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetMessages returns every message of a chat in insertion order
func (r *PostgresRepository) GetMessages(ctx context.Context, chatID uuid.UUID) ([]*domain.ChatMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, chat_id, sender_id, content, type, created_at
		FROM chat_messages
		WHERE chat_id = $1
		ORDER BY seq
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*domain.ChatMessage{}
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.Type, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

func (r *PostgresRepository) GetChatIDsWithExpiredAdmin(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM chats
		WHERE is_admin_active AND admin_exits_at <= $1
	`, now)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *PostgresRepository) listChats(ctx context.Context, query string, args ...any) ([]*domain.Chat, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chats := []*domain.Chat{}
	byID := make(map[uuid.UUID]*domain.Chat)
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
		byID[chat.ID] = chat
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		return chats, nil
	}

	ids := make([]uuid.UUID, 0, len(chats))
	for _, c := range chats {
		ids = append(ids, c.ID)
	}
	prows, err := r.db.Query(ctx, `
		SELECT chat_id, user_id FROM chat_participants
		WHERE chat_id = ANY($1)
		ORDER BY chat_id, position
	`, ids)
	if err != nil {
		return nil, err
	}
	defer prows.Close()

	for prows.Next() {
		var chatID, userID uuid.UUID
		if err := prows.Scan(&chatID, &userID); err != nil {
			return nil, err
		}
		if c, ok := byID[chatID]; ok {
			c.Participants = append(c.Participants, userID)
		}
	}
	return chats, prows.Err()
}

func loadChat(ctx context.Context, q querier, chatID uuid.UUID, forUpdate bool) (*domain.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	chat, err := scanChat(q.QueryRow(ctx, query, chatID))
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT user_id FROM chat_participants WHERE chat_id = $1 ORDER BY position
	`, chatID)
	if err != nil {
		return nil, err
	}
	chat.Participants, err = pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func insertParticipants(ctx context.Context, tx pgx.Tx, chatID uuid.UUID, participants []uuid.UUID) error {
	batch := &pgx.Batch{}
	for i, p := range participants {
		batch.Queue(`INSERT INTO chat_participants (chat_id, user_id, position) VALUES ($1, $2, $3)`, chatID, p, i)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func scanChat(row pgx.Row) (*domain.Chat, error) {
	var chat domain.Chat
	err := row.Scan(
		&chat.ID,
		&chat.AdminID,
		&chat.IsAdminActive,
		&chat.AdminExitsAt,
		&chat.LastMessage,
		&chat.LastActivityAt,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}
	return &chat, nil
}
