// Package auth provides request authentication for the JSON API.
//
// Every authenticated route is protected by RequireIdentity, which resolves
// the caller's bearer token to a verified identity before any route logic
// runs. The verified identity, never a client-supplied field, is what the
// history layer persists and filters by.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/dalemusser/strataconvert/internal/app/system/idtoken"
	"github.com/dalemusser/strataconvert/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// maxTokenBodyBytes bounds how much of a request body is buffered while
// looking for an embedded token field.
const maxTokenBodyBytes = 1 << 20 // 1 MiB

type ctxKey int

const identityKey ctxKey = iota

// RequireIdentity returns middleware that authenticates the request.
//
// The token is taken from the JSON body's "token" field when present, falling
// back to the Authorization header (a "Bearer " prefix is tolerated and
// stripped). Exactly one source is used. The request body is restored so
// downstream handlers can decode it again.
//
// Responses on failure match the API contract:
//   - no token in either location: 401 {"error":"No token provided"}
//   - verification rejected:       401 {"error":"Invalid token"}
func RequireIdentity(verifier idtoken.Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				logger.Debug("request rejected: no token",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
				)
				jsonutil.Unauthorized(w, "No token provided")
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Warn("request rejected: token verification failed",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				jsonutil.Unauthorized(w, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// extractToken pulls the token from the request: body field first, header
// fallback. The body is rewound for the handler either way.
func extractToken(r *http.Request) string {
	if token := tokenFromBody(r); token != "" {
		return token
	}
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// tokenFromBody peeks at a JSON request body for an explicit "token" field.
func tokenFromBody(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "application/json") {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxTokenBodyBytes))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}

	var in struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return ""
	}
	return strings.TrimSpace(in.Token)
}

// WithIdentity returns a context carrying a verified identity.
// Exposed for tests that call handlers directly.
func WithIdentity(ctx context.Context, id *idtoken.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the verified identity set by RequireIdentity,
// or nil when the request was not authenticated.
func IdentityFromContext(ctx context.Context) *idtoken.Identity {
	id, ok := ctx.Value(identityKey).(*idtoken.Identity)
	if !ok {
		return nil
	}
	return id
}
