package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"unauthenticated", domain.ErrInvalidCredentials, http.StatusUnauthorized, CodeUnauthorized, "invalid credentials"},
		{"access denied", domain.ErrNotParticipant, http.StatusForbidden, CodeForbidden, "not a chat participant"},
		{"not found", domain.ErrChatNotFound, http.StatusNotFound, CodeNotFound, "Chat not found"},
		{"wrapped not found", fmt.Errorf("invite: %w", domain.ErrNoAdminAvailable), http.StatusNotFound, CodeNotFound, "No admin available"},
		{"invalid argument", domain.ErrEmptyMessage, http.StatusBadRequest, CodeBadRequest, "message content is required"},
		{"conflict", domain.ErrUserAlreadyExists, http.StatusConflict, CodeConflict, "email already registered"},
		{"unknown", errors.New("pq: connection reset"), http.StatusInternalServerError, CodeInternal, "Failed to send message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			status := FromError(rec, tt.err, "Failed to send message")

			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)
		})
	}
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]string{"id": "42"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
		Error   *ErrorInfo        `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "42", body.Data["id"])
	assert.Nil(t, body.Error)
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())
}
