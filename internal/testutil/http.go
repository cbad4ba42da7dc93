package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/strataconvert/internal/app/system/auth"
	"github.com/dalemusser/strataconvert/internal/app/system/idtoken"
)

// StaticVerifier is a token verifier with fixed answers, for exercising
// authenticated handlers without a live identity provider. Tokens present
// in Identities verify to the mapped identity; everything else fails with
// idtoken.ErrInvalidToken.
type StaticVerifier struct {
	Identities map[string]*idtoken.Identity
}

// NewStaticVerifier returns a verifier that accepts the given token for
// the given email address.
func NewStaticVerifier(token, email string) *StaticVerifier {
	return &StaticVerifier{
		Identities: map[string]*idtoken.Identity{
			token: {UID: "uid-" + email, Email: email, EmailVerified: true},
		},
	}
}

func (v *StaticVerifier) Verify(_ context.Context, rawToken string) (*idtoken.Identity, error) {
	if id, ok := v.Identities[rawToken]; ok {
		return id, nil
	}
	return nil, idtoken.ErrInvalidToken
}

// TestIdentity returns a verified identity for the given email.
func TestIdentity(email string) *idtoken.Identity {
	return &idtoken.Identity{UID: "uid-" + email, Email: email, EmailVerified: true}
}

// WithIdentity adds an identity to the request context for testing handlers
// behind the auth middleware. This bypasses token verification entirely.
func WithIdentity(r *http.Request, id *idtoken.Identity) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), id))
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}

// NewAuthenticatedRequest creates an HTTP request with an identity in context.
func NewAuthenticatedRequest(method, target string, body io.Reader, email string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return WithIdentity(req, TestIdentity(email))
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
	body := r.Body.String()
	if !strings.Contains(body, expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
