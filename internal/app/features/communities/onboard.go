// internal/app/features/communities/onboard.go
package communities

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/app/service/membership"
	"github.com/melodykit/melodyshare/internal/app/system/httpjson"
	"github.com/melodykit/melodyshare/internal/app/system/ratelimit"
	"github.com/melodykit/melodyshare/internal/app/system/session"
	"github.com/melodykit/melodyshare/internal/domain/apperr"
)

// Create handles POST /api/communities: create a community and make the
// caller its first member.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, h.Log, apperr.Validation("body", "malformed JSON"))
		return
	}

	ip := ratelimit.ClientIP(r)
	if !h.Limiter.Allow(ip, req.Username) {
		httpjson.Write(w, http.StatusTooManyRequests,
			httpjson.ErrorBody{Error: "too many attempts, slow down"})
		return
	}

	res, err := h.Membership.CreateCommunity(r.Context(), req.Name, req.Username, req.Guest)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	h.Limiter.Reset(ip, req.Username)
	h.saveSession(w, r, res)
	httpjson.Write(w, http.StatusCreated, onboardResponse{
		Community: h.toPayload(res.Community),
		User:      toUserPayload(res.User),
	})
}

// Join handles POST /api/communities/join: enter a community by join code or
// by the community id a share link carries.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, h.Log, apperr.Validation("body", "malformed JSON"))
		return
	}

	ip := ratelimit.ClientIP(r)
	if !h.Limiter.Allow(ip, req.Username) {
		httpjson.Write(w, http.StatusTooManyRequests,
			httpjson.ErrorBody{Error: "too many attempts, slow down"})
		return
	}

	res, err := h.Membership.JoinCommunity(r.Context(), req.CodeOrID, req.Username, req.Guest)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	h.Limiter.Reset(ip, req.Username)
	h.saveSession(w, r, res)
	httpjson.Write(w, http.StatusOK, onboardResponse{
		Community: h.toPayload(res.Community),
		User:      toUserPayload(res.User),
	})
}

// saveSession caches the onboarding outcome client-side. The session is
// advisory; a failed write is logged and the response proceeds.
func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, res membership.Result) {
	if err := h.Sessions.Save(w, r, session.Session{
		UserID:        res.User.ID.Hex(),
		Username:      res.User.Username,
		CommunityCode: res.User.CommunityCode,
	}); err != nil {
		h.Log.Warn("session save failed", zap.Error(err))
	}
}
