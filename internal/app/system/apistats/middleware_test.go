package apistats

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/strataconvert/internal/app/store/apirequests"
	"github.com/dalemusser/strataconvert/internal/testutil"
	"go.uber.org/zap"
)

// waitForBucket polls until the async recorder has flushed a bucket with the
// expected number of requests.
func waitForBucket(t *testing.T, store *apirequests.Store, op apirequests.Operation, wantRequests int64) apirequests.Bucket {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		ctx, cancel := testutil.TestContext()
		now := time.Now().UTC()
		buckets, err := store.GetRange(ctx, op, now.Add(-2*time.Hour), now.Add(time.Hour))
		cancel()
		if err != nil {
			t.Fatalf("GetRange() error = %v", err)
		}
		if len(buckets) == 1 && buckets[0].Requests >= wantRequests {
			return buckets[0]
		}
		if time.Now().After(deadline) {
			t.Fatalf("buckets = %+v, want one bucket with %d requests", buckets, wantRequests)
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func TestMiddleware(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := apirequests.New(db)
	recorder := NewRecorder(store, zap.NewNop(), time.Hour)

	handler := Middleware(recorder, apirequests.OpConvert)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("fail") != "" {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/convert", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/convert?fail=1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	b := waitForBucket(t, store, apirequests.OpConvert, 4)
	if b.Requests != 4 {
		t.Errorf("requests = %d, want 4", b.Requests)
	}
	if b.Errors != 1 {
		t.Errorf("errors = %d, want 1", b.Errors)
	}
	if b.Operation != apirequests.OpConvert {
		t.Errorf("operation = %q, want %q", b.Operation, apirequests.OpConvert)
	}
}

func TestMiddleware_NilRecorder(t *testing.T) {
	called := false
	handler := Middleware(nil, apirequests.OpAuth)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodPost, "/auth", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("handler should run when no recorder is configured")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRecorder_SetBucketDuration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := apirequests.New(db)
	recorder := NewRecorder(store, zap.NewNop(), time.Hour)

	recorder.SetBucketDuration(15 * time.Minute)
	recorder.Record(apirequests.OpCurrencies, 12, false)

	b := waitForBucket(t, store, apirequests.OpCurrencies, 1)
	if b.BucketDuration != "15m0s" {
		t.Errorf("bucket_duration = %q, want 15m0s", b.BucketDuration)
	}
}
