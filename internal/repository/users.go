package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, full_name, email, password_hash, google_id, age, country, city,
	marital_status, role, avatar_url, fcm_token, created_at, updated_at`

// CreateUser creates a new user
func (r *PostgresRepository) CreateUser(ctx context.Context, params domain.CreateUserParams) (*domain.User, error) {
	role := params.Role
	if role == "" {
		role = domain.RoleUser
	}
	query := `
		INSERT INTO users (full_name, email, password_hash, google_id, age, country, city, marital_status, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + userColumns

	row := r.db.QueryRow(ctx, query,
		params.FullName,
		strings.ToLower(params.Email),
		params.PasswordHash,
		params.GoogleID,
		params.Age,
		params.Location.Country,
		params.Location.City,
		params.MaritalStatus,
		role,
	)

	user, err := scanUser(row)
	if err != nil && isUniqueViolation(err) {
		return nil, domain.ErrUserAlreadyExists
	}
	return user, err
}

// GetUserByID retrieves a user by ID
func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetUserByEmail retrieves a user by email
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, strings.ToLower(email)))
}

func (r *PostgresRepository) UpdateUserAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	query := `UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, id, avatarURL)
}

func (r *PostgresRepository) UpdateUserFCMToken(ctx context.Context, id uuid.UUID, token string) error {
	query := `UPDATE users SET fcm_token = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, id, token)
}

// FindAvailableAdmin picks the admin holding the fewest open admin windows,
// oldest account first on ties.
func (r *PostgresRepository) FindAvailableAdmin(ctx context.Context) (*domain.User, error) {
	query := `
		SELECT ` + prefixed("u", userColumns) + `
		FROM users u
		LEFT JOIN chats c ON c.admin_id = u.id AND c.is_admin_active
		WHERE u.role = 'ADMIN'
		GROUP BY u.id
		ORDER BY COUNT(c.id), u.created_at
		LIMIT 1
	`
	return scanUser(r.db.QueryRow(ctx, query))
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.GoogleID,
		&user.Age,
		&user.Location.Country,
		&user.Location.City,
		&user.MaritalStatus,
		&user.Role,
		&user.AvatarURL,
		&user.FCMToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// prefixed qualifies a comma separated column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
