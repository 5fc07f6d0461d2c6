// internal/app/features/feedapi/routes.go
package feedapi

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /api/feed.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{code}", h.List)
	r.Get("/{code}/stream", h.Stream)
	return r
}
