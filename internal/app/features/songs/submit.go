// internal/app/features/songs/submit.go
package songs

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/melodykit/melodyshare/internal/app/service/submission"
	"github.com/melodykit/melodyshare/internal/app/system/httpjson"
	"github.com/melodykit/melodyshare/internal/app/system/session"
	"github.com/melodykit/melodyshare/internal/app/system/spotify"
	"github.com/melodykit/melodyshare/internal/domain/apperr"
)

type submitRequest struct {
	Track spotify.Track `json:"track"`
	Mood  string        `json:"mood,omitempty"`
}

// Submit handles POST /api/songs. Identity comes from the session; the
// submission service re-validates everything against the stores.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Current(r)
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized,
			httpjson.ErrorBody{Error: "join a community to share songs"})
		return
	}
	userID, err := primitive.ObjectIDFromHex(sess.UserID)
	if err != nil {
		httpjson.Write(w, http.StatusUnauthorized,
			httpjson.ErrorBody{Error: "session is stale, rejoin your community"})
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, h.Log, apperr.Validation("body", "malformed JSON"))
		return
	}

	saved, err := h.Submission.Submit(r.Context(), submission.Request{
		UserID:     userID,
		Title:      req.Track.Title,
		Artist:     strings.Join(req.Track.Artists, ", "),
		AlbumArt:   req.Track.AlbumArtURL,
		SpotifyURI: req.Track.URI,
		SpotifyID:  req.Track.ID,
		Mood:       req.Mood,
	})
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	httpjson.Write(w, http.StatusCreated, saved)
}

// Eligibility handles GET /api/submission/eligibility: may the current user
// submit now, and if not, how long until they may.
func (h *Handler) Eligibility(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Current(r)
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized,
			httpjson.ErrorBody{Error: "join a community to share songs"})
		return
	}
	userID, err := primitive.ObjectIDFromHex(sess.UserID)
	if err != nil {
		httpjson.Write(w, http.StatusUnauthorized,
			httpjson.ErrorBody{Error: "session is stale, rejoin your community"})
		return
	}

	can, retry, err := h.Submission.CanSubmit(r.Context(), userID)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	resp := struct {
		CanSubmit         bool  `json:"can_submit"`
		RetryAfterSeconds int64 `json:"retry_after_seconds,omitempty"`
	}{CanSubmit: can}
	if !can {
		resp.RetryAfterSeconds = int64(retry.Seconds())
		if resp.RetryAfterSeconds < 1 {
			resp.RetryAfterSeconds = 1
		}
	}
	httpjson.Write(w, http.StatusOK, resp)
}
