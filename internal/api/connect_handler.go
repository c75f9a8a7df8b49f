package api

import (
	"net/http"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/OgbonnaBlessed/passion-streams/internal/middleware"
	"github.com/OgbonnaBlessed/passion-streams/pkg/response"
	"github.com/OgbonnaBlessed/passion-streams/pkg/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxProfilePhotos    = 6
	maxProfileInterests = 20
)

// ConnectHandler serves Passion Connect: profiles, discovery and swipes
type ConnectHandler struct {
	connectService *domain.ConnectService
	logger         *zap.Logger
}

func NewConnectHandler(connectService *domain.ConnectService, logger *zap.Logger) *ConnectHandler {
	return &ConnectHandler{
		connectService: connectService,
		logger:         logger,
	}
}

type swipeRequest struct {
	ProfileID string `json:"profileId"`
	Action    string `json:"action"`
}

type profileRequest struct {
	Bio         string   `json:"bio"`
	Photos      []string `json:"photos"`
	Interests   []string `json:"interests"`
	WhatYouSeek string   `json:"whatYouSeek"`
	Testimonial string   `json:"testimonial"`
	IsActive    *bool    `json:"isActive,omitempty"`
}

// GetProfile returns the caller's profile, or null when none exists yet
func (h *ConnectHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	profile, err := h.connectService.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch profile")
		return
	}

	response.OK(w, profile)
}

// UpsertProfile creates or replaces the caller's profile
func (h *ConnectHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	photos := validator.SanitizeList(req.Photos, maxProfilePhotos, 2048)
	for _, p := range photos {
		if !validator.ValidateURL(p) {
			response.BadRequest(w, "photos must be http(s) URLs")
			return
		}
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	profile, err := h.connectService.UpsertProfile(r.Context(), userID, domain.UpsertProfileParams{
		Bio:         validator.SanitizeString(req.Bio, 1000),
		Photos:      photos,
		Interests:   validator.SanitizeList(req.Interests, maxProfileInterests, 50),
		WhatYouSeek: validator.SanitizeString(req.WhatYouSeek, 500),
		Testimonial: validator.SanitizeString(req.Testimonial, 1000),
		IsActive:    active,
	})
	if err != nil {
		writeError(w, h.logger, err, "Failed to save profile")
		return
	}

	response.OK(w, profile)
}

// Discover lists profiles the caller has not swiped on yet
func (h *ConnectHandler) Discover(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	profiles, err := h.connectService.Discover(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to discover profiles")
		return
	}

	response.OK(w, profiles)
}

// Swipe records a like or pass on a profile
func (h *ConnectHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req swipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.ProfileID == "" || req.Action == "" {
		response.BadRequest(w, "Profile ID and action are required")
		return
	}
	targetID, err := uuid.Parse(req.ProfileID)
	if err != nil {
		response.BadRequest(w, "invalid profile id")
		return
	}

	result, err := h.connectService.RecordSwipe(r.Context(), userID, targetID, req.Action)
	if err != nil {
		writeError(w, h.logger, err, "Failed to swipe")
		return
	}

	response.OK(w, result)
}

// ListConnections returns the caller's matches
func (h *ConnectHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	conns, err := h.connectService.ListConnections(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch connections")
		return
	}

	response.OK(w, conns)
}
