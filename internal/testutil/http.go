package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/dalemusser/droppic/internal/app/system/auth"
)

// TestUser represents a caller identity for testing HTTP handlers.
type TestUser struct {
	ID string
}

// DefaultUser returns the TestUser most handler tests act as.
func DefaultUser() TestUser {
	return TestUser{ID: "user_test_1"}
}

// OtherUser returns a second TestUser for ownership isolation tests.
func OtherUser() TestUser {
	return TestUser{ID: "user_test_2"}
}

// WithUser adds a principal to the request context for testing
// authenticated handlers. This bypasses the token middleware and injects
// the caller directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.Principal{UserID: user.ID})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}

// NewAuthenticatedRequest creates an HTTP request with a principal in
// context.
func NewAuthenticatedRequest(method, target string, body io.Reader, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, body), user)
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
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t interface {
	Fatalf(string, ...any)
}, v any) {
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response body: %v (body: %s)", err, r.Body.String())
	}
}
