// internal/app/features/communities/routes.go
package communities

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /api/communities.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/join", h.Join)
	r.Get("/stream", h.Stream)
	r.Get("/{code}", h.View)
	return r
}
