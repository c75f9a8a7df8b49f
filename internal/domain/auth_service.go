package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OgbonnaBlessed/passion-streams/internal/auth"
	"github.com/google/uuid"
)

// SignupParams holds the fields collected at email/password signup
type SignupParams struct {
	FullName      string
	Email         string
	Password      string
	Age           int
	Location      Location
	MaritalStatus MaritalStatus
}

// AuthResult is returned by every sign-in path
type AuthResult struct {
	User           *UserResponse `json:"user"`
	Token          string        `json:"token"`
	ExpiresAt      time.Time     `json:"expiresAt"`
	AllowedModules []Module      `json:"allowedModules"`
}

// AuthService handles authentication business logic
type AuthService struct {
	repo   UserRepository
	jwt    *auth.JWTManager
	google auth.GoogleVerifier
}

// NewAuthService creates a new auth service
func NewAuthService(repo UserRepository, jwt *auth.JWTManager, google auth.GoogleVerifier) *AuthService {
	return &AuthService{
		repo:   repo,
		jwt:    jwt,
		google: google,
	}
}

// Signup creates a USER account with email/password
func (s *AuthService) Signup(ctx context.Context, params SignupParams) (*AuthResult, error) {
	if params.Age < MinAge {
		return nil, fmt.Errorf("must be at least %d years old: %w", MinAge, ErrInvalidArgument)
	}
	if !params.MaritalStatus.Valid() {
		return nil, fmt.Errorf("invalid marital status: %w", ErrInvalidArgument)
	}

	passwordHash, err := auth.HashPassword(params.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, fmt.Errorf("%s: %w", err.Error(), ErrInvalidArgument)
		}
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		FullName:      params.FullName,
		Email:         params.Email,
		PasswordHash:  &passwordHash,
		Age:           params.Age,
		Location:      params.Location,
		MaritalStatus: params.MaritalStatus,
		Role:          RoleUser,
	})
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Login authenticates a user with email/password
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Google-only accounts have no password
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(password, *user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.issue(user)
}

// GoogleLogin signs in an existing account with a Google ID token. Accounts
// are only created through Signup.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (*AuthResult, error) {
	if s.google == nil || !s.google.IsConfigured() {
		return nil, ErrGoogleDisabled
	}

	googleUser, err := s.google.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrUnauthenticated)
	}

	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(googleUser.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSignupRequired
		}
		return nil, err
	}

	if googleUser.Picture != "" {
		if err := s.repo.UpdateUserAvatar(ctx, user.ID, googleUser.Picture); err != nil {
			return nil, err
		}
		user.AvatarURL = &googleUser.Picture
	}

	return s.issue(user)
}

// Authenticate resolves a bearer token to its user. Tokens for deleted users
// are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, ErrUnauthenticated)
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("user not found: %w", ErrUnauthenticated)
		}
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// UpdateDeviceToken stores the FCM registration token for push delivery
func (s *AuthService) UpdateDeviceToken(ctx context.Context, userID uuid.UUID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("device token is required: %w", ErrInvalidArgument)
	}
	return s.repo.UpdateUserFCMToken(ctx, userID, token)
}

func (s *AuthService) issue(user *User) (*AuthResult, error) {
	token, expiresAt, err := s.jwt.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:           user.ToResponse(),
		Token:          token,
		ExpiresAt:      expiresAt,
		AllowedModules: AllowedModules(user.MaritalStatus),
	}, nil
}
