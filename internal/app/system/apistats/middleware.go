// Package apistats records per-operation API request statistics.
package apistats

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/strataconvert/internal/app/store/apirequests"
	"go.uber.org/zap"
)

// Recorder persists request statistics. It is shared across handlers; the
// bucket duration can be changed at runtime.
type Recorder struct {
	store          *apirequests.Store
	logger         *zap.Logger
	mu             sync.RWMutex
	bucketDuration time.Duration
}

// NewRecorder creates a recorder writing to the given store.
func NewRecorder(store *apirequests.Store, logger *zap.Logger, bucketDuration time.Duration) *Recorder {
	return &Recorder{
		store:          store,
		logger:         logger,
		bucketDuration: bucketDuration,
	}
}

// SetBucketDuration updates the bucket duration for new recordings.
func (r *Recorder) SetBucketDuration(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bucketDuration = d
}

// Record persists one request's statistics asynchronously so responses are
// never delayed by stats writes.
func (r *Recorder) Record(op apirequests.Operation, durationMs int64, isError bool) {
	r.mu.RLock()
	bucketDuration := r.bucketDuration
	r.mu.RUnlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := r.store.Record(ctx, op, bucketDuration, durationMs, isError); err != nil {
			r.logger.Error("failed to record API stats",
				zap.String("operation", string(op)),
				zap.Error(err),
			)
		}
	}()
}

// Middleware returns HTTP middleware recording stats for one operation.
// A nil recorder disables recording (used in tests).
func Middleware(recorder *Recorder, op apirequests.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			recorder.Record(op, time.Since(start).Milliseconds(), wrapped.statusCode >= 400)
		})
	}
}

// responseWrapper captures the status code written by a handler.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWrapper) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
