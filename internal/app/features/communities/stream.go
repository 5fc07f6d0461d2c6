// internal/app/features/communities/stream.go
package communities

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/app/system/httpjson"
	"github.com/melodykit/melodyshare/internal/app/system/sse"
)

// watchPollInterval drives the registry watch fallback on deployments
// without change streams.
const watchPollInterval = 5 * time.Second

// Stream handles GET /api/communities/stream: an SSE feed that pushes the
// full community list on every change. The connection ends when the client
// goes away.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ch, err := h.Registry.Watch(r.Context(), watchPollInterval)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	f, err := sse.Prepare(w)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	for list := range ch {
		if err := sse.Send(w, f, h.toPayloads(list)); err != nil {
			h.Log.Debug("community stream closed", zap.Error(err))
			return
		}
	}
}
