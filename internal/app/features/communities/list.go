// internal/app/features/communities/list.go
package communities

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/melodykit/melodyshare/internal/app/system/httpjson"
)

// List handles GET /api/communities.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Registry.List(r.Context())
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, h.toPayloads(list))
}

// View handles GET /api/communities/{code}: lookup by join code,
// case-insensitive.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	c, err := h.Registry.GetByCode(r.Context(), code)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, h.toPayload(c))
}
