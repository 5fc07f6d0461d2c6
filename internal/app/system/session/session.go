// Package session keeps the advisory client cache: which user and community
// this browser last onboarded as. It is a convenience so a returning visit
// skips re-joining; the authoritative membership state always lives in the
// user and community stores, and handlers re-validate against them.
package session

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	userIDKey        = "user_id"
	usernameKey      = "username"
	communityCodeKey = "community_code"
)

// Session is what we cache client-side and inject into r.Context().
type Session struct {
	UserID        string
	Username      string
	CommunityCode string
}

type ctxKey string

const currentSessionKey ctxKey = "currentSession"

// Manager owns the cookie store. It is an explicit dependency passed to the
// handlers that need it; there is no package-global store.
type Manager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewManager builds a Manager. An empty sessionKey gets a random key, which
// invalidates sessions on restart; fine for dev, logged so production
// deployments notice.
func NewManager(sessionKey, name, domain string, secure bool, logger *zap.Logger) (*Manager, error) {
	if name == "" {
		return nil, fmt.Errorf("session cookie name is empty")
	}
	key := []byte(sessionKey)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		logger.Warn("session key not configured; generated an ephemeral key (sessions reset on restart)")
	} else if len(key) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(key)))
	}

	store := sessions.NewCookieStore(key)
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	// Secure (prod) cookies use SameSite=None for cross-site contexts;
	// Lax is fine over http://localhost.
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &Manager{store: store, name: name, log: logger}, nil
}

// Current returns the session from context and a "found?" flag.
func Current(r *http.Request) (Session, bool) {
	s, ok := r.Context().Value(currentSessionKey).(Session)
	return s, ok
}

// Load injects the session into context when the cookie carries one.
func (m *Manager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := m.store.Get(r, m.name)

		if id := getString(sess, userIDKey); id != "" {
			r = withSession(r, Session{
				UserID:        id,
				Username:      getString(sess, usernameKey),
				CommunityCode: getString(sess, communityCodeKey),
			})
		}
		next.ServeHTTP(w, r)
	})
}

// Save writes the session cookie.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s Session) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[userIDKey] = s.UserID
	sess.Values[usernameKey] = s.Username
	sess.Values[communityCodeKey] = s.CommunityCode
	return sess.Save(r, w)
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Options.MaxAge = -1
	sess.Values = map[interface{}]interface{}{}
	return sess.Save(r, w)
}

// WithTestSession injects a session directly into the request context,
// bypassing the cookie round-trip. For handler tests.
func WithTestSession(r *http.Request, s Session) *http.Request {
	return withSession(r, s)
}

// helpers

func withSession(r *http.Request, s Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentSessionKey, s))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
