package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Handlers and the realtime transport map these with errors.Is.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrAccessDenied    = errors.New("access denied")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)

var (
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrUserAlreadyExists  = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
	ErrSignupRequired     = fmt.Errorf("please sign up first with email and password: %w", ErrInvalidArgument)
	ErrGoogleDisabled     = fmt.Errorf("google sign-in is not configured: %w", ErrInvalidArgument)

	ErrChatNotFound       = fmt.Errorf("chat %w", ErrNotFound)
	ErrNoAdminAvailable   = fmt.Errorf("no admin available: %w", ErrNotFound)
	ErrNotParticipant     = fmt.Errorf("not a chat participant: %w", ErrAccessDenied)
	ErrEmptyMessage       = fmt.Errorf("message content is required: %w", ErrInvalidArgument)
	ErrInvalidMessageType = fmt.Errorf("invalid message type: %w", ErrInvalidArgument)

	ErrProfileNotFound    = fmt.Errorf("profile %w", ErrNotFound)
	ErrInvalidSwipeAction = fmt.Errorf("action must be like or pass: %w", ErrInvalidArgument)
	ErrSelfTarget         = fmt.Errorf("cannot target yourself: %w", ErrInvalidArgument)
	ErrConnectionExists   = fmt.Errorf("connection already exists: %w", ErrConflict)
)

// PublicMessage returns the client-safe text for err. Unknown errors collapse
// to fallback so store failures never leak detail.
func PublicMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrChatNotFound):
		return "Chat not found"
	case errors.Is(err, ErrNoAdminAvailable):
		return "No admin available"
	case errors.Is(err, ErrProfileNotFound):
		return "Profile not found"
	case errors.Is(err, ErrUserNotFound):
		return "User not found"
	case errors.Is(err, ErrAccessDenied), errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrConflict):
		return trimTaxonomy(err)
	default:
		return fallback
	}
}

// trimTaxonomy drops the ": <taxonomy>" suffix added by the wrapping above.
func trimTaxonomy(err error) string {
	msg := err.Error()
	for _, base := range []error{ErrAccessDenied, ErrInvalidArgument, ErrUnauthenticated, ErrConflict} {
		suffix := ": " + base.Error()
		if len(msg) > len(suffix) && msg[len(msg)-len(suffix):] == suffix {
			return msg[:len(msg)-len(suffix)]
		}
	}
	return msg
}

// IsClientError reports whether err belongs to the taxonomy and can be shown
// to the caller as is.
func IsClientError(err error) bool {
	for _, base := range []error{ErrUnauthenticated, ErrAccessDenied, ErrNotFound, ErrInvalidArgument, ErrConflict} {
		if errors.Is(err, base) {
			return true
		}
	}
	return false
}
