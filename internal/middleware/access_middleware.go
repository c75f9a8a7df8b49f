package middleware

import (
	"net/http"

	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/OgbonnaBlessed/passion-streams/pkg/response"
)

// RequireModule enforces the age and marital-status rules for module.
// It must run after AuthMiddleware.
func RequireModule(module domain.Module) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}
			if err := domain.CheckModuleAccess(user, module); err != nil {
				response.Forbidden(w, domain.PublicMessage(err, "Access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole admits only users holding role.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}
			if user.Role != role {
				response.Forbidden(w, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
