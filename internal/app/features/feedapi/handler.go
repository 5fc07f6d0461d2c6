// internal/app/features/feedapi/handler.go
package feedapi

import (
	"context"

	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/app/feed"
	"github.com/melodykit/melodyshare/internal/domain/models"
)

// DefaultFeedLimit caps how many songs a feed read returns.
const DefaultFeedLimit = 100

// Lister is the slice of the song store this feature reads from.
type Lister interface {
	ListByCommunity(ctx context.Context, code string, limit int64) ([]models.Song, error)
}

// Handler serves a community's song feed, as a one-shot list and as a live
// SSE stream backed by the feed hub.
type Handler struct {
	Songs Lister
	Hub   *feed.Hub
	Limit int64
	Log   *zap.Logger
}

func NewHandler(songs Lister, hub *feed.Hub, limit int64, logger *zap.Logger) *Handler {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	return &Handler{
		Songs: songs,
		Hub:   hub,
		Limit: limit,
		Log:   logger,
	}
}
