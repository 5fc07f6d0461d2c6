// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/app/service/submission"
	"github.com/melodykit/melodyshare/internal/app/system/spotify"
)

// appConfigKeys defines the configuration keys for MelodyShare.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: MELODYSHARE_MONGO_URI, MELODYSHARE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "melodyshare", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "melodyshare-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Spotify client-credentials for track search
	{Name: "spotify_client_id", Default: "", Desc: "Spotify API client ID"},
	{Name: "spotify_client_secret", Default: "", Desc: "Spotify API client secret"},
	{Name: "spotify_search_limit", Default: 10, Desc: "Track search results per query (max 10)"},

	// Submission policy
	{Name: "submission_cooldown", Default: "24h", Desc: "Minimum time between song submissions per user"},
	{Name: "require_mood", Default: false, Desc: "Reject song submissions that carry no mood"},

	// Feed
	{Name: "feed_limit", Default: 100, Desc: "Max songs returned per community feed"},

	// Onboarding abuse protection
	{Name: "onboard_rate_limit", Default: 20, Desc: "Onboarding attempts allowed per IP per window"},
	{Name: "onboard_rate_window", Default: "1m", Desc: "Onboarding rate limit window"},

	// Base URL for shareable join links
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for shareable join links"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, MELODYSHARE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MELODYSHARE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		SpotifyClientID:     appValues.String("spotify_client_id"),
		SpotifyClientSecret: appValues.String("spotify_client_secret"),
		SpotifySearchLimit:  appValues.Int("spotify_search_limit"),

		SubmissionCooldown: appValues.Duration("submission_cooldown", submission.DefaultCooldown),
		RequireMood:        appValues.Bool("require_mood"),

		FeedLimit: appValues.Int("feed_limit"),

		OnboardRateLimit:  appValues.Int("onboard_rate_limit"),
		OnboardRateWindow: appValues.Duration("onboard_rate_window", time.Minute),

		BaseURL: appValues.String("base_url"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation, catching
// configuration errors before any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.SpotifySearchLimit < 1 || appCfg.SpotifySearchLimit > spotify.MaxSearchResults {
		return fmt.Errorf("spotify_search_limit must be between 1 and %d", spotify.MaxSearchResults)
	}
	if appCfg.SubmissionCooldown <= 0 {
		return fmt.Errorf("submission_cooldown must be positive")
	}
	if appCfg.FeedLimit < 1 {
		return fmt.Errorf("feed_limit must be at least 1")
	}

	if appCfg.SpotifyClientID == "" || appCfg.SpotifyClientSecret == "" {
		logger.Warn("spotify credentials not configured; track search will fail until they are set")
	}

	return nil
}
