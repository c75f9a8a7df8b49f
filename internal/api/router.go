package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/OgbonnaBlessed/passion-streams/internal/middleware"
	"go.uber.org/zap"
)

// Router holds all handlers and creates the chi router
type Router struct {
	authHandler    *AuthHandler
	chatHandler    *ChatHandler
	connectHandler *ConnectHandler
	wsHandler      *WSHandler
	healthHandler  *HealthHandler
	authn          middleware.Authenticator
	frontendURL    string
	logger         *zap.Logger
}

// NewRouter creates a new router
func NewRouter(
	authHandler *AuthHandler,
	chatHandler *ChatHandler,
	connectHandler *ConnectHandler,
	wsHandler *WSHandler,
	healthHandler *HealthHandler,
	authn middleware.Authenticator,
	frontendURL string,
	logger *zap.Logger,
) *Router {
	return &Router{
		authHandler:    authHandler,
		chatHandler:    chatHandler,
		connectHandler: connectHandler,
		wsHandler:      wsHandler,
		healthHandler:  healthHandler,
		authn:          authn,
		frontendURL:    frontendURL,
		logger:         logger,
	}
}

// Setup configures and returns the chi router
func (rt *Router) Setup() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(middleware.CORSMiddleware(rt.frontendURL))

	// The websocket handshake must not go through the compressor.
	r.Get("/ws", rt.wsHandler.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Compress(5))

		// Health endpoints (no auth required)
		r.Route("/health", func(r chi.Router) {
			r.Get("/", rt.healthHandler.Health)
			r.Get("/ready", rt.healthHandler.Ready)
			r.Get("/live", rt.healthHandler.Live)
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/signup", rt.authHandler.Signup)
				r.Post("/login", rt.authHandler.Login)
				r.Post("/google", rt.authHandler.GoogleLogin)
			})

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthMiddleware(rt.authn, rt.logger))

				r.Get("/me", rt.authHandler.Me)
				r.Post("/me/device-token", rt.authHandler.UpdateDeviceToken)

				r.Route("/chat", func(r chi.Router) {
					r.Get("/", rt.chatHandler.ListChats)
					r.Post("/", rt.chatHandler.OpenChat)
					r.Get("/{id}/messages", rt.chatHandler.GetMessages)
					r.Post("/{id}/messages", rt.chatHandler.SendMessage)
					r.Post("/{id}/invite-admin", rt.chatHandler.InviteAdmin)
					r.Post("/{id}/remove-admin", rt.chatHandler.RemoveAdmin)
				})

				r.Route("/admin", func(r chi.Router) {
					r.Use(middleware.RequireRole(domain.RoleAdmin))
					r.Get("/chats", rt.chatHandler.ListAdminChats)
				})

				r.Route("/connect", func(r chi.Router) {
					r.Use(middleware.RequireModule(domain.ModulePassionConnect))
					r.Get("/profile", rt.connectHandler.GetProfile)
					r.Post("/profile", rt.connectHandler.UpsertProfile)
					r.Get("/discover", rt.connectHandler.Discover)
					r.Post("/swipe", rt.connectHandler.Swipe)
					r.Get("/connections", rt.connectHandler.ListConnections)
				})
			})
		})
	})

	return r
}
