package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/strataconvert/internal/app/system/idtoken"
	"go.uber.org/zap"
)

// fakeVerifier accepts a single token and rejects everything else.
type fakeVerifier struct {
	token    string
	identity *idtoken.Identity
}

func (v *fakeVerifier) Verify(_ context.Context, rawToken string) (*idtoken.Identity, error) {
	if rawToken == v.token {
		return v.identity, nil
	}
	return nil, idtoken.ErrInvalidToken
}

func newTestChain(t *testing.T) (http.Handler, *idtoken.Identity) {
	t.Helper()
	identity := &idtoken.Identity{UID: "uid-1", Email: "alice@example.com", EmailVerified: true}
	verifier := &fakeVerifier{token: "good-token", identity: identity}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return RequireIdentity(verifier, zap.NewNop())(inner), identity
}

func TestRequireIdentity(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		handler, _ := newTestChain(t)

		req := httptest.NewRequest(http.MethodPost, "/api/save-history", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		var resp map[string]string
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp["error"] != "No token provided" {
			t.Errorf("error = %q, want %q", resp["error"], "No token provided")
		}
	})

	t.Run("invalid token in header", func(t *testing.T) {
		handler, _ := newTestChain(t)

		req := httptest.NewRequest(http.MethodPost, "/api/save-history", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		var resp map[string]string
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp["error"] != "Invalid token" {
			t.Errorf("error = %q, want %q", resp["error"], "Invalid token")
		}
	})

	t.Run("valid token in Authorization header", func(t *testing.T) {
		handler, _ := newTestChain(t)

		req := httptest.NewRequest(http.MethodGet, "/api/get-history", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("bare header token without Bearer prefix", func(t *testing.T) {
		handler, _ := newTestChain(t)

		req := httptest.NewRequest(http.MethodGet, "/api/get-history", nil)
		req.Header.Set("Authorization", "good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("valid token in JSON body", func(t *testing.T) {
		handler, _ := newTestChain(t)

		body, _ := json.Marshal(map[string]string{"token": "good-token"})
		req := httptest.NewRequest(http.MethodPost, "/auth", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("body token wins over header token", func(t *testing.T) {
		handler, _ := newTestChain(t)

		body, _ := json.Marshal(map[string]string{"token": "bad-token"})
		req := httptest.NewRequest(http.MethodPost, "/auth", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		// The embedded token is used and rejected; the header is not consulted.
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("body is restored for the handler", func(t *testing.T) {
		identity := &idtoken.Identity{UID: "uid-1", Email: "alice@example.com"}
		verifier := &fakeVerifier{token: "good-token", identity: identity}

		var got map[string]interface{}
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("handler could not re-decode body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		})
		handler := RequireIdentity(verifier, zap.NewNop())(inner)

		body, _ := json.Marshal(map[string]interface{}{"token": "good-token", "from": "USD"})
		req := httptest.NewRequest(http.MethodPost, "/api/save-history", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if got["from"] != "USD" {
			t.Errorf("handler saw from = %v, want USD", got["from"])
		}
	})

	t.Run("identity reaches the handler", func(t *testing.T) {
		identity := &idtoken.Identity{UID: "uid-9", Email: "carol@example.com"}
		verifier := &fakeVerifier{token: "carol-token", identity: identity}

		var seen *idtoken.Identity
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = IdentityFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})
		handler := RequireIdentity(verifier, zap.NewNop())(inner)

		req := httptest.NewRequest(http.MethodGet, "/api/get-history", nil)
		req.Header.Set("Authorization", "Bearer carol-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if seen == nil || seen.Email != "carol@example.com" {
			t.Errorf("handler identity = %+v, want carol@example.com", seen)
		}
	})

	t.Run("non-JSON body falls back to header", func(t *testing.T) {
		handler, _ := newTestChain(t)

		req := httptest.NewRequest(http.MethodPost, "/api/save-history", bytes.NewReader([]byte("a=b")))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})
}

func TestIdentityFromContext(t *testing.T) {
	if got := IdentityFromContext(context.Background()); got != nil {
		t.Errorf("IdentityFromContext on empty context = %+v, want nil", got)
	}

	id := &idtoken.Identity{Email: "alice@example.com"}
	ctx := WithIdentity(context.Background(), id)
	if got := IdentityFromContext(ctx); got != id {
		t.Errorf("IdentityFromContext = %+v, want the stored identity", got)
	}
}
