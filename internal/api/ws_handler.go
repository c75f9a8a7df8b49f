package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/OgbonnaBlessed/passion-streams/internal/auth"
	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/OgbonnaBlessed/passion-streams/internal/middleware"
	"github.com/OgbonnaBlessed/passion-streams/internal/realtime"
	"github.com/OgbonnaBlessed/passion-streams/pkg/response"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSHandler authenticates the handshake and hands the upgraded connection to
// the realtime hub.
type WSHandler struct {
	authn    middleware.Authenticator
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWSHandler creates a websocket handler. An empty frontendURL accepts any
// origin.
func NewWSHandler(authn middleware.Authenticator, hub *realtime.Hub, frontendURL string, logger *zap.Logger) *WSHandler {
	origins := allowedOrigins(frontendURL)
	return &WSHandler{
		authn:  authn,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(origins) == 0 || origin == "" {
					return true
				}
				_, ok := origins[strings.TrimRight(origin, "/")]
				return ok
			},
		},
	}
}

// ServeWS handles GET /ws. The token comes from the Authorization header or,
// for browsers, the token query parameter.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		response.Unauthorized(w, "missing token")
		return
	}

	user, err := h.authn.Authenticate(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			response.Unauthorized(w, "token has expired")
		case errors.Is(err, domain.ErrUnauthenticated):
			response.Unauthorized(w, "invalid token")
		default:
			h.logger.Error("websocket authentication failed", zap.Error(err))
			response.InternalError(w, "Authentication error")
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := realtime.NewClient(h.hub, conn, user.ID)
	if err := h.hub.Register(client); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	h.logger.Debug("websocket connected",
		zap.String("user_id", user.ID.String()),
		zap.String("client_id", client.ID),
	)
	client.Run()
}

func allowedOrigins(frontendURL string) map[string]struct{} {
	origins := make(map[string]struct{})
	for _, o := range strings.Split(frontendURL, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Scheme != "" && u.Host != "" {
			origins[u.Scheme+"://"+u.Host] = struct{}{}
		}
	}
	return origins
}
