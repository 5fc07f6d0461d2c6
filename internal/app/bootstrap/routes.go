// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/app/feed"
	communitiesfeature "github.com/melodykit/melodyshare/internal/app/features/communities"
	feedfeature "github.com/melodykit/melodyshare/internal/app/features/feedapi"
	healthfeature "github.com/melodykit/melodyshare/internal/app/features/health"
	sessionfeature "github.com/melodykit/melodyshare/internal/app/features/sessionapi"
	songsfeature "github.com/melodykit/melodyshare/internal/app/features/songs"
	"github.com/melodykit/melodyshare/internal/app/service/membership"
	"github.com/melodykit/melodyshare/internal/app/service/submission"
	communitystore "github.com/melodykit/melodyshare/internal/app/store/communities"
	songstore "github.com/melodykit/melodyshare/internal/app/store/songs"
	userstore "github.com/melodykit/melodyshare/internal/app/store/users"
	"github.com/melodykit/melodyshare/internal/app/system/ratelimit"
	"github.com/melodykit/melodyshare/internal/app/system/session"
	"github.com/melodykit/melodyshare/internal/app/system/spotify"
	"github.com/melodykit/melodyshare/internal/app/system/timeouts"
	"github.com/melodykit/melodyshare/internal/app/system/txn"
	"github.com/melodykit/melodyshare/internal/domain/models"
)

// feedPollInterval drives the song watch fallback on deployments without
// change streams.
const feedPollInterval = 5 * time.Second

// feedHub is closed from the Shutdown hook; WAFFLE's hook signatures give
// BuildHandler and Shutdown no shared state besides DBDeps.
var feedHub *feed.Hub

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It wires the stores, the two services,
// the feed hub, and the JSON API features.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := session.NewManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	users := userstore.New(deps.MongoDatabase)
	communities := communitystore.New(deps.MongoDatabase)
	songs := songstore.New(deps.MongoDatabase)

	membershipSvc := membership.New(users, communities, logger)
	submissionSvc := submission.New(users, songs,
		transactionRunner(deps.MongoClient, logger),
		submission.Config{
			Cooldown:    appCfg.SubmissionCooldown,
			RequireMood: appCfg.RequireMood,
		}, logger)

	spotifyClient := spotify.NewClient(spotify.Config{
		ClientID:     appCfg.SpotifyClientID,
		ClientSecret: appCfg.SpotifyClientSecret,
		SearchLimit:  appCfg.SpotifySearchLimit,
	}, logger)

	feedHub = feed.NewHub(func(ctx context.Context, code string) (<-chan []models.Song, error) {
		return songs.Watch(ctx, code, int64(appCfg.FeedLimit), feedPollInterval)
	}, logger)

	onboardLimiter := ratelimit.NewOnboardLimiter(
		appCfg.OnboardRateLimit, appCfg.OnboardRateLimit, appCfg.OnboardRateWindow)

	r := chi.NewRouter()

	// Session middleware: loads the advisory session into context for all
	// handlers via session.Current(r).
	r.Use(sessionMgr.Load)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	communitiesHandler := communitiesfeature.NewHandler(
		membershipSvc, communities, sessionMgr, onboardLimiter, appCfg.BaseURL, logger)
	r.Mount("/api/communities", communitiesfeature.Routes(communitiesHandler))

	songsHandler := songsfeature.NewHandler(submissionSvc, spotifyClient, logger)
	r.Mount("/api/songs", songsfeature.Routes(songsHandler))
	r.Mount("/api/submission", songsfeature.SubmissionRoutes(songsHandler))

	feedHandler := feedfeature.NewHandler(songs, feedHub, int64(appCfg.FeedLimit), logger)
	r.Mount("/api/feed", feedfeature.Routes(feedHandler))

	sessionHandler := sessionfeature.NewHandler(sessionMgr, logger)
	r.Mount("/api/session", sessionfeature.Routes(sessionHandler))

	logger.Info("routes mounted")
	return r, nil
}

// transactionRunner probes whether this deployment can run multi-document
// transactions. When it cannot (standalone mongod), the submission service
// gets a nil runner and uses its sequential-write path.
func transactionRunner(client *mongo.Client, logger *zap.Logger) submission.TxnRunner {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()

	err := txn.WithTransaction(ctx, client, func(context.Context) error { return nil })
	if err != nil {
		if txn.IsNotSupported(err) {
			logger.Info("transactions unsupported; submissions use sequential writes")
		} else {
			logger.Warn("transaction probe failed; submissions use sequential writes", zap.Error(err))
		}
		return nil
	}

	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return txn.WithTransaction(ctx, client, fn)
	}
}
