// internal/app/features/sessionapi/routes.go
package sessionapi

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /api/session.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Current)
	r.Delete("/", h.Clear)
	return r
}
