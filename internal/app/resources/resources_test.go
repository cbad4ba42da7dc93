package resources

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAssetsHandler(t *testing.T) {
	handler := AssetsHandler("/assets")

	t.Run("serves embedded css", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/assets/css/styles.css", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if !strings.Contains(rec.Body.String(), "body") {
			t.Error("stylesheet body looks empty")
		}
	})

	t.Run("serves embedded js", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/assets/js/app.js", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("missing asset is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/assets/js/nope.js", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestSPAHandler(t *testing.T) {
	handler := SPAHandler()

	for _, path := range []string{"/", "/history", "/some/deep/client/route"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q, want text/html", ct)
			}
			if !strings.Contains(rec.Body.String(), "<!DOCTYPE html>") {
				t.Error("response should be the client entry document")
			}
		})
	}
}
