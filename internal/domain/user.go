package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MaritalStatus drives which membership modules a user may enter.
type MaritalStatus string

const (
	MaritalStatusNotInRelationship MaritalStatus = "NOT_IN_RELATIONSHIP"
	MaritalStatusInRelationship    MaritalStatus = "IN_RELATIONSHIP"
	MaritalStatusMarried           MaritalStatus = "MARRIED"
)

// Valid reports whether s is a known status.
func (s MaritalStatus) Valid() bool {
	switch s {
	case MaritalStatusNotInRelationship, MaritalStatusInRelationship, MaritalStatusMarried:
		return true
	}
	return false
}

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type Location struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

// User represents a user in the domain layer
type User struct {
	ID            uuid.UUID     `json:"id"`
	FullName      string        `json:"fullName"`
	Email         string        `json:"email"`
	PasswordHash  *string       `json:"-"`
	GoogleID      *string       `json:"-"`
	Age           int           `json:"age"`
	Location      Location      `json:"location"`
	MaritalStatus MaritalStatus `json:"maritalStatus"`
	Role          Role          `json:"role"`
	AvatarURL     *string       `json:"avatarUrl,omitempty"`
	FCMToken      *string       `json:"-"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserResponse is the public representation of a user
type UserResponse struct {
	ID            uuid.UUID     `json:"id"`
	FullName      string        `json:"fullName"`
	Email         string        `json:"email"`
	Age           int           `json:"age"`
	Location      Location      `json:"location"`
	MaritalStatus MaritalStatus `json:"maritalStatus"`
	Role          Role          `json:"role"`
	AvatarURL     string        `json:"avatarUrl,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// ToResponse converts a User to a UserResponse
func (u *User) ToResponse() *UserResponse {
	response := &UserResponse{
		ID:            u.ID,
		FullName:      u.FullName,
		Email:         u.Email,
		Age:           u.Age,
		Location:      u.Location,
		MaritalStatus: u.MaritalStatus,
		Role:          u.Role,
		CreatedAt:     u.CreatedAt,
	}
	if u.AvatarURL != nil {
		response.AvatarURL = *u.AvatarURL
	}
	return response
}

// CreateUserParams holds parameters for user creation
type CreateUserParams struct {
	FullName      string
	Email         string
	PasswordHash  *string
	GoogleID      *string
	Age           int
	Location      Location
	MaritalStatus MaritalStatus
	Role          Role
}

// UserRepository defines user data access
type UserRepository interface {
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUserAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error
	UpdateUserFCMToken(ctx context.Context, id uuid.UUID, token string) error
	// FindAvailableAdmin returns the admin with the fewest active admin chats.
	FindAvailableAdmin(ctx context.Context) (*User, error)
}
