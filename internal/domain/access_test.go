package domain_test

import (
	"testing"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCheckModuleAccess(t *testing.T) {
	tests := []struct {
		name    string
		age     int
		status  domain.MaritalStatus
		module  domain.Module
		allowed bool
	}{
		{"single adult singles", 22, domain.MaritalStatusNotInRelationship, domain.ModulePassionSingles, true},
		{"single 25 connect", 25, domain.MaritalStatusNotInRelationship, domain.ModulePassionConnect, true},
		{"single 24 connect", 24, domain.MaritalStatusNotInRelationship, domain.ModulePassionConnect, false},
		{"in relationship connect", 30, domain.MaritalStatusInRelationship, domain.ModulePassionConnect, false},
		{"in relationship singles", 30, domain.MaritalStatusInRelationship, domain.ModulePassionSingles, true},
		{"married couples", 40, domain.MaritalStatusMarried, domain.ModulePassionCouples, true},
		{"married singles", 40, domain.MaritalStatusMarried, domain.ModulePassionSingles, false},
		{"minor", 17, domain.MaritalStatusNotInRelationship, domain.ModulePassionSingles, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &domain.User{Age: tt.age, MaritalStatus: tt.status}
			err := domain.CheckModuleAccess(u, tt.module)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrAccessDenied)
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Chat not found", domain.PublicMessage(domain.ErrChatNotFound, "x"))
	assert.Equal(t, "No admin available", domain.PublicMessage(domain.ErrNoAdminAvailable, "x"))
	assert.Equal(t, "not a chat participant", domain.PublicMessage(domain.ErrNotParticipant, "x"))
	assert.Equal(t, "message content is required", domain.PublicMessage(domain.ErrEmptyMessage, "x"))
	assert.Equal(t, "Failed", domain.PublicMessage(assert.AnError, "Failed"))

	assert.True(t, domain.IsClientError(domain.ErrSelfTarget))
	assert.False(t, domain.IsClientError(assert.AnError))
}
