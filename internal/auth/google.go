package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/api/idtoken"
)

var (
	ErrInvalidGoogleToken = errors.New("invalid Google ID token")
	ErrGoogleEmailMissing = errors.New("email not found in Google token")
)

// GoogleUser represents the user info from Google
type GoogleUser struct {
	GoogleID      string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// GoogleVerifier is satisfied by GoogleAuthVerifier and by test fakes.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*GoogleUser, error)
	IsConfigured() bool
}

// GoogleAuthVerifier checks ID tokens issued to any of the configured
// client ids (web, Android, iOS).
type GoogleAuthVerifier struct {
	clientIDs []string
	validate  func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

func NewGoogleAuthVerifier(clientIDs []string) *GoogleAuthVerifier {
	ids := make([]string, 0, len(clientIDs))
	for _, id := range clientIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return &GoogleAuthVerifier{
		clientIDs: ids,
		validate:  idtoken.Validate,
	}
}

// VerifyIDToken verifies a Google ID token and returns the user info
func (v *GoogleAuthVerifier) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUser, error) {
	var payload *idtoken.Payload
	for _, clientID := range v.clientIDs {
		p, err := v.validate(ctx, idToken, clientID)
		if err == nil {
			payload = p
			break
		}
	}

	if payload == nil {
		return nil, ErrInvalidGoogleToken
	}

	// Extract user info from claims
	googleUser := &GoogleUser{}

	if sub, ok := payload.Claims["sub"].(string); ok {
		googleUser.GoogleID = sub
	} else {
		return nil, ErrInvalidGoogleToken
	}

	if email, ok := payload.Claims["email"].(string); ok {
		googleUser.Email = email
	} else {
		return nil, ErrGoogleEmailMissing
	}

	if verified, ok := payload.Claims["email_verified"].(bool); ok {
		googleUser.EmailVerified = verified
	}

	if name, ok := payload.Claims["name"].(string); ok {
		googleUser.Name = name
	}

	if picture, ok := payload.Claims["picture"].(string); ok {
		googleUser.Picture = picture
	}

	return googleUser, nil
}

// IsConfigured reports whether at least one client id is set.
func (v *GoogleAuthVerifier) IsConfigured() bool {
	return len(v.clientIDs) > 0
}
