package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var exposedHeaders = []string{SessionIDHeader, requestIDHeader}

// CORS returns middleware that applies the configured allowed origins.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	wildcard := false
	for _, origin := range origins {
		if origin == "*" {
			wildcard = true
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With",
			SessionIDHeader, GuestSessionIDHeader,
		},
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}).Handler
}
