// Package errorlog captures failed API responses to the api_errors
// collection so integration problems can be inspected after the fact.
package errorlog

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/strataconvert/internal/app/store/apierrors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds configuration for the error-capture middleware.
type Config struct {
	Store  *apierrors.Store
	Logger *zap.Logger

	// MaxBodyPreview bounds how many bytes of the request body are kept.
	// Zero disables request body capture.
	MaxBodyPreview int
}

// Middleware returns middleware that records any request ending with a
// status >= 400. Recording happens after the response is written and never
// blocks it.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			var bodyPreview string
			if cfg.MaxBodyPreview > 0 && r.Body != nil && r.ContentLength > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, int64(cfg.MaxBodyPreview)+1))
				if err == nil {
					if len(body) > cfg.MaxBodyPreview {
						bodyPreview = string(body[:cfg.MaxBodyPreview]) + "..."
					} else {
						bodyPreview = string(body)
					}
					// Restore the body for the handler chain.
					rest, _ := io.ReadAll(r.Body)
					r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), bytes.NewReader(rest)))
				}
			}

			wrapped := &captureWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			if wrapped.statusCode < 400 {
				return
			}

			entry := apierrors.Entry{
				RequestID:   uuid.New().String(),
				Method:      r.Method,
				Path:        r.URL.Path,
				Query:       r.URL.RawQuery,
				RemoteIP:    clientIP(r),
				StatusCode:  wrapped.statusCode,
				ErrorBody:   wrapped.errBody.String(),
				BodyPreview: bodyPreview,
				DurationMs:  time.Since(start).Milliseconds(),
				OccurredAt:  start.UTC(),
			}

			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				if err := cfg.Store.Create(ctx, entry); err != nil {
					cfg.Logger.Error("failed to record API error",
						zap.String("path", entry.Path),
						zap.Int("status", entry.StatusCode),
						zap.Error(err),
					)
				}
			}()
		})
	}
}

// maxErrorBodyBytes bounds how much of an error response body is captured.
const maxErrorBodyBytes = 500

// captureWriter records the status code and, for error responses, a bounded
// copy of the body.
type captureWriter struct {
	http.ResponseWriter
	statusCode int
	wroteCode  bool
	errBody    bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	if !cw.wroteCode {
		cw.statusCode = code
		cw.wroteCode = true
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.statusCode >= 400 && cw.errBody.Len() < maxErrorBodyBytes {
		remain := maxErrorBodyBytes - cw.errBody.Len()
		if len(b) > remain {
			cw.errBody.Write(b[:remain])
		} else {
			cw.errBody.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

func (cw *captureWriter) Flush() {
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// clientIP extracts the originating client IP, preferring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		return strings.TrimSpace(xr)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
