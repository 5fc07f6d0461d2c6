package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/melodykit/melodyshare/internal/app/system/session"
)

// TestUser represents a signed-in visitor for handler tests.
type TestUser struct {
	ID            string
	Username      string
	CommunityCode string
}

// Listener returns a TestUser who belongs to a community.
func Listener(username, communityCode string) TestUser {
	return TestUser{
		ID:            primitive.NewObjectID().Hex(),
		Username:      username,
		CommunityCode: communityCode,
	}
}

// WithUser adds a session to the request context for testing handlers that
// require one. This bypasses the cookie middleware entirely.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return session.WithTestSession(r, session.Session{
		UserID:        user.ID,
		Username:      user.Username,
		CommunityCode: user.CommunityCode,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates an HTTP request carrying a JSON body.
func NewJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewSessionRequest creates an HTTP request with a user session in context.
func NewSessionRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// NewSessionJSONRequest creates a JSON request with a user session in context.
func NewSessionJSONRequest(method, target, body string, user TestUser) *http.Request {
	return WithUser(NewJSONRequest(method, target, body), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// AssertJSON checks the Content-Type header declares JSON.
func (r *ResponseRecorder) AssertJSON(t interface{ Errorf(string, ...any) }) {
	ct := r.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
}
