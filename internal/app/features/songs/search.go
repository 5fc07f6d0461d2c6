// internal/app/features/songs/search.go
package songs

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/app/system/httpjson"
	"github.com/melodykit/melodyshare/internal/app/system/spotify"
	"github.com/melodykit/melodyshare/internal/domain/apperr"
)

// SearchTracks handles GET /api/songs/search?q=. An empty result set is a
// valid 200 with an empty array.
func (h *Handler) SearchTracks(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		httpjson.Error(w, h.Log, apperr.Validation("q", "a search query is required"))
		return
	}

	tracks, err := h.Search.Search(r.Context(), q)
	if err != nil {
		h.Log.Error("track search failed", zap.String("query", q), zap.Error(err))
		httpjson.Write(w, http.StatusBadGateway,
			httpjson.ErrorBody{Error: "track search is temporarily unavailable"})
		return
	}
	if tracks == nil {
		tracks = []spotify.Track{}
	}
	httpjson.Write(w, http.StatusOK, tracks)
}
