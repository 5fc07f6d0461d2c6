package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowWithinLimit(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("key") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("key") {
		t.Error("fourth request should be rejected")
	}
}

func TestLimiter_IndependentKeys(t *testing.T) {
	l := New(1, time.Minute)

	if !l.Allow("a") {
		t.Error("first request for a should be allowed")
	}
	if !l.Allow("b") {
		t.Error("first request for b should be allowed")
	}
	if l.Allow("a") {
		t.Error("second request for a should be rejected")
	}
}

func TestLimiter_WindowExpiry(t *testing.T) {
	l := New(1, 10*time.Millisecond)

	if !l.Allow("key") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("key") {
		t.Fatal("second request inside window should be rejected")
	}

	time.Sleep(20 * time.Millisecond)

	if !l.Allow("key") {
		t.Error("request after window expiry should be allowed")
	}
}

func TestLimiter_Remaining(t *testing.T) {
	l := New(3, time.Minute)

	if got := l.Remaining("key"); got != 3 {
		t.Errorf("Remaining before any request: got %d, want 3", got)
	}
	l.Allow("key")
	if got := l.Remaining("key"); got != 2 {
		t.Errorf("Remaining after one request: got %d, want 2", got)
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)

	l.Allow("key")
	if l.Allow("key") {
		t.Fatal("second request should be rejected")
	}
	l.Reset("key")
	if !l.Allow("key") {
		t.Error("request after reset should be allowed")
	}
}

func TestOnboardLimiter_IPAndUsername(t *testing.T) {
	ol := NewOnboardLimiter(2, 1, time.Minute)

	if !ol.Allow("1.2.3.4", "alice") {
		t.Fatal("first attempt should be allowed")
	}
	// Same username from a different IP: username window is exhausted.
	if ol.Allow("5.6.7.8", "alice") {
		t.Error("second attempt for the same username should be rejected")
	}
	// Different username from the first IP still fits the IP window.
	if !ol.Allow("1.2.3.4", "bob") {
		t.Error("different username from same IP should be allowed")
	}
	// IP window now exhausted.
	if ol.Allow("1.2.3.4", "carol") {
		t.Error("third attempt from same IP should be rejected")
	}
}

func TestOnboardLimiter_UsernameCaseInsensitive(t *testing.T) {
	ol := NewOnboardLimiter(10, 1, time.Minute)

	if !ol.Allow("1.2.3.4", "Alice") {
		t.Fatal("first attempt should be allowed")
	}
	if ol.Allow("1.2.3.4", "ALICE") {
		t.Error("case-variant username should share the window")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"remote addr with port", "10.0.0.1:1234", "", "", "10.0.0.1"},
		{"remote addr without port", "10.0.0.2", "", "", "10.0.0.2"},
		{"x-forwarded-for single", "10.0.0.1:1234", "203.0.113.7", "", "203.0.113.7"},
		{"x-forwarded-for list", "10.0.0.1:1234", "203.0.113.7, 10.0.0.9", "", "203.0.113.7"},
		{"x-real-ip", "10.0.0.1:1234", "", "203.0.113.8", "203.0.113.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
