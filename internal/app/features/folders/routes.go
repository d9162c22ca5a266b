package folders

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the folder API endpoints.
//
// When mounted at /folders:
//   - POST /folders/create - create a folder
//
// Authentication is via bearer token; cors comes from the apicors
// package.
func Routes(h *Handler, cors, requireUser func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(cors)
	r.Use(requireUser)

	r.Post("/create", h.Create)

	return r
}
