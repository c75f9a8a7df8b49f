package api

import (
	"net/http"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/OgbonnaBlessed/passion-streams/internal/middleware"
	"github.com/OgbonnaBlessed/passion-streams/pkg/response"
	"github.com/OgbonnaBlessed/passion-streams/pkg/validator"
	"go.uber.org/zap"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *domain.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *domain.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	FullName      string          `json:"fullName"`
	Email         string          `json:"email"`
	Password      string          `json:"password"`
	Age           int             `json:"age"`
	Location      domain.Location `json:"location"`
	MaritalStatus string          `json:"maritalStatus"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest represents the Google sign-in request body
type GoogleLoginRequest struct {
	IDToken string `json:"idToken"`
}

// DeviceTokenRequest registers a device for push notifications
type DeviceTokenRequest struct {
	Token string `json:"token"`
}

// Signup handles email/password registration
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	var errs validator.ValidationErrors
	req.FullName = validator.SanitizeString(req.FullName, 100)
	if !validator.ValidateName(req.FullName) {
		errs.Add("fullName", "must be 2-100 characters")
	}
	req.Email = validator.SanitizeEmail(req.Email)
	if !validator.ValidateEmail(req.Email) {
		errs.Add("email", "invalid email address")
	}
	errs = append(errs, validator.ValidatePassword(req.Password)...)
	if !validator.ValidateAge(req.Age, domain.MinAge) {
		errs.Add("age", "must be at least 18")
	}
	if !validator.ValidateOneOf(req.MaritalStatus,
		string(domain.MaritalStatusNotInRelationship),
		string(domain.MaritalStatusInRelationship),
		string(domain.MaritalStatusMarried),
	) {
		errs.Add("maritalStatus", "must be NOT_IN_RELATIONSHIP, IN_RELATIONSHIP or MARRIED")
	}
	req.Location.Country = validator.SanitizeString(req.Location.Country, 100)
	req.Location.City = validator.SanitizeString(req.Location.City, 100)
	if req.Location.Country == "" || req.Location.City == "" {
		errs.Add("location", "country and city are required")
	}
	if errs.HasErrors() {
		response.BadRequest(w, errs.Error())
		return
	}

	result, err := h.authService.Signup(r.Context(), domain.SignupParams{
		FullName:      req.FullName,
		Email:         req.Email,
		Password:      req.Password,
		Age:           req.Age,
		Location:      req.Location,
		MaritalStatus: domain.MaritalStatus(req.MaritalStatus),
	})
	if err != nil {
		writeError(w, h.logger, err, "Signup failed")
		return
	}

	response.Created(w, result)
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	req.Email = validator.SanitizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		response.BadRequest(w, "Email and password are required")
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err, "Login failed")
		return
	}

	response.OK(w, result)
}

// GoogleLogin signs in with a Google ID token
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.IDToken == "" {
		response.BadRequest(w, "ID token is required")
		return
	}

	result, err := h.authService.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		writeError(w, h.logger, err, "Google login failed")
		return
	}

	response.OK(w, result)
}

// Me returns the current user with the modules they may enter
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	response.OK(w, map[string]any{
		"user":           user.ToResponse(),
		"allowedModules": domain.AllowedModules(user.MaritalStatus),
	})
}

// UpdateDeviceToken stores the caller's FCM registration token
func (h *AuthHandler) UpdateDeviceToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req DeviceTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.authService.UpdateDeviceToken(r.Context(), userID, req.Token); err != nil {
		writeError(w, h.logger, err, "Failed to save device token")
		return
	}

	response.NoContent(w)
}
