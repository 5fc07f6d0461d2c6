// internal/app/features/communities/handler.go
package communities

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/app/service/membership"
	"github.com/melodykit/melodyshare/internal/app/system/ratelimit"
	"github.com/melodykit/melodyshare/internal/app/system/session"
	"github.com/melodykit/melodyshare/internal/domain/models"
)

// Registry is the slice of the community store this feature reads from.
// Writes go through the membership service only.
type Registry interface {
	List(ctx context.Context) ([]models.Community, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Community, error)
	GetByCode(ctx context.Context, code string) (models.Community, error)
	Watch(ctx context.Context, pollInterval time.Duration) (<-chan []models.Community, error)
}

// Handler is the shared dependency container for the communities feature.
type Handler struct {
	Membership *membership.Service
	Registry   Registry
	Sessions   *session.Manager
	Limiter    *ratelimit.OnboardLimiter
	BaseURL    string
	Log        *zap.Logger
}

// NewHandler constructs a communities Handler. Called from the bootstrap
// BuildHandler function where the services are already wired.
func NewHandler(svc *membership.Service, registry Registry, sessions *session.Manager,
	limiter *ratelimit.OnboardLimiter, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Membership: svc,
		Registry:   registry,
		Sessions:   sessions,
		Limiter:    limiter,
		BaseURL:    baseURL,
		Log:        logger,
	}
}
