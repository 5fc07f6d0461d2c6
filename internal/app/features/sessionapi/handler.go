// internal/app/features/sessionapi/handler.go
package sessionapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/app/system/httpjson"
	"github.com/melodykit/melodyshare/internal/app/system/session"
)

// Handler exposes the advisory session: what this browser last onboarded
// as. Clients use it to skip the onboarding screen; membership truth stays
// in the stores.
type Handler struct {
	Sessions *session.Manager
	Log      *zap.Logger
}

func NewHandler(sessions *session.Manager, logger *zap.Logger) *Handler {
	return &Handler{Sessions: sessions, Log: logger}
}

type sessionPayload struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	CommunityCode string `json:"community_code,omitempty"`
}

// Current handles GET /api/session. No session answers 204.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.Current(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpjson.Write(w, http.StatusOK, sessionPayload{
		UserID:        sess.UserID,
		Username:      sess.Username,
		CommunityCode: sess.CommunityCode,
	})
}

// Clear handles DELETE /api/session.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Clear(w, r); err != nil {
		h.Log.Warn("session clear failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
