// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles
// framework-level settings (ports, TLS, logging level, CORS); AppConfig is
// everything specific to MelodyShare.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for the advisory session
	SessionDomain string // Cookie domain (blank means current host)

	// Spotify track search
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifySearchLimit  int // results per search, hard-capped at 10

	// Submission policy
	SubmissionCooldown time.Duration // sliding window between songs per user
	RequireMood        bool          // reject submissions without a mood

	// Feed
	FeedLimit int // max songs returned per feed read

	// Onboarding abuse protection
	OnboardRateLimit  int           // attempts per window per IP
	OnboardRateWindow time.Duration //

	// Base URL for shareable join links
	BaseURL string // e.g. "https://melodyshare.app"
}
