// Package apicors provides CORS middleware for the API endpoints, which
// authenticate with bearer tokens instead of cookies.
//
// With bearer tokens:
//   - Credentials (cookies) are not needed, so AllowCredentials can be false
//   - Origins can be "*" (any origin) since there are no cookies to protect
//
// Browser clients of the storage API run on arbitrary origins, so the
// default here is the permissive form; MiddlewareWithOrigins exists for
// deployments that want to pin the web app's domain.
package apicors

import (
	"net/http"
)

// Middleware returns CORS middleware suitable for bearer-token
// authenticated endpoints.
//
// This middleware:
//   - Allows any origin (Access-Control-Allow-Origin: *)
//   - Does not allow credentials (no cookies involved)
//   - Allows the methods and headers the file API uses
//   - Handles preflight OPTIONS requests
//
// Usage in routes.go:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(apicors.Middleware())
//	    r.Use(tokens.RequireUser)
//	    r.Mount("/files", fileRoutes)
//	})
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			// Handle preflight OPTIONS request
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// MiddlewareWithOrigins returns CORS middleware that only allows specific
// origins. Use this when the web app's domain is known at deploy time.
//
// Usage:
//
//	r.Use(apicors.MiddlewareWithOrigins("https://app.example.com"))
func MiddlewareWithOrigins(allowedOrigins ...string) func(http.Handler) http.Handler {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				if _, allowed := originSet[origin]; allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
				}
				// If origin not allowed, don't set CORS headers (browser will block)
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// FromOrigins picks the middleware matching a configured origin list: the
// pinned variant when origins are given, the permissive one otherwise.
func FromOrigins(allowedOrigins ...string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return Middleware()
	}
	return MiddlewareWithOrigins(allowedOrigins...)
}
