// internal/app/features/songs/handler.go
package songs

import (
	"context"

	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/app/service/submission"
	"github.com/melodykit/melodyshare/internal/app/system/spotify"
)

// TrackSearcher is the slice of the search provider this feature needs.
type TrackSearcher interface {
	Search(ctx context.Context, q string) ([]spotify.Track, error)
}

// Handler is the shared dependency container for the songs feature:
// submitting a song and searching for tracks.
type Handler struct {
	Submission *submission.Service
	Search     TrackSearcher
	Log        *zap.Logger
}

func NewHandler(svc *submission.Service, search TrackSearcher, logger *zap.Logger) *Handler {
	return &Handler{
		Submission: svc,
		Search:     search,
		Log:        logger,
	}
}
