// internal/app/features/feedapi/feed.go
package feedapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/app/system/httpjson"
	"github.com/melodykit/melodyshare/internal/app/system/sse"
	"github.com/melodykit/melodyshare/internal/domain/apperr"
	"github.com/melodykit/melodyshare/internal/domain/models"
)

// List handles GET /api/feed/{code}: the ordered song list, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		httpjson.Error(w, h.Log, apperr.Validation("code", "a community code is required"))
		return
	}

	songs, err := h.Songs.ListByCommunity(r.Context(), code, h.Limit)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, songs)
}

// Stream handles GET /api/feed/{code}/stream: an SSE stream that pushes the
// full ordered list on every change, starting with the current snapshot.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		httpjson.Error(w, h.Log, apperr.Validation("code", "a community code is required"))
		return
	}

	// The hub callback must never block on a slow client, so deliveries
	// land in a coalescing buffer: an unread snapshot is replaced by the
	// newer one.
	updates := make(chan []models.Song, 1)
	unsubscribe, err := h.Hub.Subscribe(code, func(songs []models.Song) {
		select {
		case <-updates:
		default:
		}
		updates <- songs
	})
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	defer unsubscribe()

	f, err := sse.Prepare(w)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case songs := <-updates:
			if err := sse.Send(w, f, songs); err != nil {
				h.Log.Debug("feed stream closed", zap.String("community", code), zap.Error(err))
				return
			}
		}
	}
}
