// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter provides rate limiting using a sliding window algorithm.
// It is safe for concurrent use.
//
// This protects the HTTP surface (onboarding abuse, join-code guessing);
// the one-song-per-24h cooldown is domain logic and lives in the
// submission service, not here.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int           // max requests per window
	duration time.Duration // window duration
	cleanup  time.Duration // how often to clean old entries
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a new rate limiter.
// limit: maximum requests allowed per duration
// duration: the time window for counting requests
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		cleanup:  duration * 2, // cleanup entries older than 2x duration
	}
	go l.cleanupLoop()
	return l
}

// Allow checks if a request from the given key should be allowed.
// Returns true if allowed, false if rate limited.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]

	// If no window exists or window expired, create new one
	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{
			count:     1,
			expiresAt: now.Add(l.duration),
		}
		return true
	}

	// Window still active - check limit
	if w.count >= l.limit {
		return false
	}

	w.count++
	return true
}

// Remaining returns how many requests are left for this key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]

	if !exists || now.After(w.expiresAt) {
		return l.limit
	}

	remaining := l.limit - w.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset clears the rate limit for a specific key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// cleanupLoop periodically removes expired entries to prevent memory leaks.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, w := range l.windows {
			if now.After(w.expiresAt) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// OnboardLimiter provides specialized rate limiting for the create/join
// endpoints. It tracks both IP-based and username-based windows to slow:
// - join-code guessing from a single client
// - targeted squatting of a specific username from many IPs
type OnboardLimiter struct {
	ipLimiter       *Limiter
	usernameLimiter *Limiter
}

// NewOnboardLimiter creates a limiter configured for onboarding protection.
// ipLimit requests per window per IP; usernameLimit per window per username.
func NewOnboardLimiter(ipLimit, usernameLimit int, window time.Duration) *OnboardLimiter {
	return &OnboardLimiter{
		ipLimiter:       New(ipLimit, window),
		usernameLimiter: New(usernameLimit, window),
	}
}

// Allow reports whether an onboarding attempt from this IP for this
// username should proceed. Both windows must have capacity.
func (ol *OnboardLimiter) Allow(ip, username string) bool {
	if !ol.ipLimiter.Allow("ip:" + ip) {
		return false
	}
	if username != "" && !ol.usernameLimiter.Allow("user:"+strings.ToLower(username)) {
		return false
	}
	return true
}

// Reset clears both windows for a successful onboarding, so a legitimate
// user who retried a few times is not penalized on their next visit.
func (ol *OnboardLimiter) Reset(ip, username string) {
	ol.ipLimiter.Reset("ip:" + ip)
	if username != "" {
		ol.usernameLimiter.Reset("user:" + strings.ToLower(username))
	}
}
