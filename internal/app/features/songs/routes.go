// internal/app/features/songs/routes.go
package songs

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /api/songs.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Submit)
	r.Get("/search", h.SearchTracks)
	return r
}

// SubmissionRoutes returns the subrouter mounted under /api/submission.
func SubmissionRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/eligibility", h.Eligibility)
	return r
}
