package api

import (
	"net/http"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/OgbonnaBlessed/passion-streams/internal/middleware"
	"github.com/OgbonnaBlessed/passion-streams/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatService *domain.ChatService
	logger      *zap.Logger
}

func NewChatHandler(chatService *domain.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

type openChatRequest struct {
	TargetUserID string `json:"targetUserId"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

// ListChats returns the caller's chats, most recently active first
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	chats, err := h.chatService.ListChats(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch chats")
		return
	}

	response.OK(w, chats)
}

// OpenChat returns the chat with another user, creating it if needed
func (h *ChatHandler) OpenChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req openChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	targetID, err := uuid.Parse(req.TargetUserID)
	if err != nil {
		response.BadRequest(w, "invalid target user id")
		return
	}

	chat, err := h.chatService.OpenChat(r.Context(), userID, targetID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to open chat")
		return
	}

	response.OK(w, chat)
}

// GetMessages returns the full message history of a chat
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.chatRequest(w, r)
	if !ok {
		return
	}

	messages, err := h.chatService.ListMessages(r.Context(), chatID, userID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch messages")
		return
	}

	response.OK(w, messages)
}

// SendMessage appends a message; connected room members get it over the
// websocket as well.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.chatRequest(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	msg, err := h.chatService.SendMessage(r.Context(), chatID, userID, req.Content, req.Type)
	if err != nil {
		writeError(w, h.logger, err, "Failed to send message")
		return
	}

	response.Created(w, msg)
}

// InviteAdmin brings an admin into the chat for a limited window
func (h *ChatHandler) InviteAdmin(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.chatRequest(w, r)
	if !ok {
		return
	}

	chat, err := h.chatService.InviteAdmin(r.Context(), chatID, userID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to invite admin")
		return
	}

	response.OK(w, chat)
}

// RemoveAdmin ends an admin window early
func (h *ChatHandler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := h.chatRequest(w, r)
	if !ok {
		return
	}

	chat, err := h.chatService.RemoveAdmin(r.Context(), chatID, userID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to remove admin")
		return
	}

	response.OK(w, chat)
}

// ListAdminChats returns the chats the calling admin is currently part of
func (h *ChatHandler) ListAdminChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	chats, err := h.chatService.ListAdminChats(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to fetch admin chats")
		return
	}

	response.OK(w, chats)
}

func (h *ChatHandler) chatRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return uuid.Nil, uuid.Nil, false
	}
	chatID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid chat id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, chatID, true
}
