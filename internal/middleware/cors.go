package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORSMiddleware allows the configured frontend origins, or every origin when
// none is configured (mobile clients send no Origin).
func CORSMiddleware(frontendURL string) func(next http.Handler) http.Handler {
	origins := []string{"*"}
	allowCredentials := false
	if frontendURL != "" {
		origins = origins[:0]
		for _, o := range strings.Split(frontendURL, ",") {
			if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
				origins = append(origins, o)
			}
		}
		allowCredentials = true
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-CSRF-Token",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"Link",
			"X-Request-Id",
		},
		AllowCredentials: allowCredentials,
		// Cache preflight requests for 5 minutes
		MaxAge: 300,
	})
}
