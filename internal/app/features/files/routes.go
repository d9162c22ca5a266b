package files

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the file API endpoints.
//
// When mounted at /files:
//   - GET    /files                    - list entries
//   - POST   /files/upload             - upload a file
//   - POST   /files/uplode             - upload a file (legacy spelling)
//   - PATCH  /files/{fileID}/trash     - toggle the trash flag
//   - PATCH  /files/{fileID}/star      - toggle the star flag
//   - DELETE /files/{fileID}/delete    - permanently delete an entry
//   - DELETE /files/empty-trash        - permanently delete all trash
//
// Authentication is via bearer token; requireUser is the token
// middleware from the auth package. cors comes from the apicors package:
// permissive by default since tokens, not cookies, carry the identity,
// or pinned to configured origins.
func Routes(h *Handler, cors, requireUser func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(cors)
	r.Use(requireUser)

	r.Get("/", h.List)
	r.Post("/upload", h.Upload)
	// The web client shipped with this misspelling; existing deployments
	// still call it.
	r.Post("/uplode", h.Upload)
	r.Delete("/empty-trash", h.EmptyTrash)

	r.Route("/{fileID}", func(fr chi.Router) {
		fr.Patch("/trash", h.ToggleTrash)
		fr.Patch("/star", h.ToggleStar)
		fr.Delete("/delete", h.Delete)
		// Older clients sent empty-trash with a placeholder id in the
		// path; the id is ignored.
		fr.Delete("/empty-trash", h.EmptyTrash)
	})

	return r
}
