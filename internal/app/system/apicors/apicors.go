// Package apicors provides CORS middleware for the log API.
//
// Log clients are apps and operator tools on arbitrary origins, so any
// origin may call the API. Credentials travel as parameters or as cookies
// set by the API itself; the browser never needs to attach them cross-site,
// so AllowCredentials stays false.
package apicors

import (
	"net/http"

	"github.com/go-chi/cors"
)

// Middleware returns permissive CORS middleware for the API:
//   - any origin (Access-Control-Allow-Origin: *)
//   - no credentials
//   - GET, PUT, POST and OPTIONS with common headers
//   - preflight answered directly and cached for 24 hours
func Middleware() func(http.Handler) http.Handler {
	return cors.Handler(options(nil))
}

// MiddlewareWithOrigins returns CORS middleware that only allows the given
// origins.
//
// Usage:
//
//	r.Use(apicors.MiddlewareWithOrigins("https://ops.example.com"))
func MiddlewareWithOrigins(allowedOrigins ...string) func(http.Handler) http.Handler {
	return cors.Handler(options(allowedOrigins))
}

func options(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Bookmark", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	}
}
