package rates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeRateServer mimics the upstream rate API: a /currencies listing and a
// /latest pair lookup that 404s unknown codes.
func fakeRateServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()

	currencies := map[string]string{
		"USD": "United States Dollar",
		"EUR": "Euro",
		"JPY": "Japanese Yen",
	}
	pairRates := map[string]float64{
		"USD:EUR": 0.92,
		"EUR:JPY": 160.5,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		switch r.URL.Path {
		case "/currencies":
			json.NewEncoder(w).Encode(currencies)
		case "/latest":
			from := r.URL.Query().Get("from")
			to := r.URL.Query().Get("to")
			rate, ok := pairRates[from+":"+to]
			if !ok {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"base":  from,
				"rates": map[string]float64{to: rate},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Currencies(t *testing.T) {
	var hits atomic.Int64
	srv := fakeRateServer(t, &hits)

	c := NewClient(Config{BaseURL: srv.URL, CacheTTL: time.Minute}, NewMemoryCache(), zap.NewNop())
	ctx := context.Background()

	got, err := c.Currencies(ctx)
	if err != nil {
		t.Fatalf("Currencies() error = %v", err)
	}
	if got["EUR"] != "Euro" {
		t.Errorf("EUR = %q, want Euro", got["EUR"])
	}
	if len(got) != 3 {
		t.Errorf("currency count = %d, want 3", len(got))
	}

	// Second call is served from the cache.
	before := hits.Load()
	if _, err := c.Currencies(ctx); err != nil {
		t.Fatalf("Currencies() second call error = %v", err)
	}
	if hits.Load() != before {
		t.Errorf("second call hit upstream %d more times, want 0", hits.Load()-before)
	}
}

func TestClient_Convert(t *testing.T) {
	var hits atomic.Int64
	srv := fakeRateServer(t, &hits)

	c := NewClient(Config{BaseURL: srv.URL, CacheTTL: time.Minute}, NewMemoryCache(), zap.NewNop())
	ctx := context.Background()

	t.Run("basic conversion", func(t *testing.T) {
		conv, err := c.Convert(ctx, 100, "USD", "EUR")
		if err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if conv.Rate != 0.92 {
			t.Errorf("rate = %v, want 0.92", conv.Rate)
		}
		if conv.Result != 92 {
			t.Errorf("result = %v, want 92", conv.Result)
		}
		if conv.From != "USD" || conv.To != "EUR" || conv.Amount != 100 {
			t.Errorf("echoed request = %+v", conv)
		}
	})

	t.Run("pair rate is cached", func(t *testing.T) {
		before := hits.Load()
		if _, err := c.Convert(ctx, 250, "USD", "EUR"); err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if hits.Load() != before {
			t.Errorf("cached pair hit upstream %d more times, want 0", hits.Load()-before)
		}
	})

	t.Run("same currency short-circuits", func(t *testing.T) {
		before := hits.Load()
		conv, err := c.Convert(ctx, 42, "USD", "USD")
		if err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if conv.Rate != 1 || conv.Result != 42 {
			t.Errorf("conv = %+v, want rate 1 result 42", conv)
		}
		if hits.Load() != before {
			t.Error("same-currency conversion should not hit upstream")
		}
	})

	t.Run("unknown currency", func(t *testing.T) {
		_, err := c.Convert(ctx, 10, "USD", "XXX")
		if !errors.Is(err, ErrUnknownCurrency) {
			t.Errorf("Convert() error = %v, want ErrUnknownCurrency", err)
		}
	})
}

func TestClient_UpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, NewMemoryCache(), zap.NewNop())
	ctx := context.Background()

	if _, err := c.Currencies(ctx); !errors.Is(err, ErrUpstream) {
		t.Errorf("Currencies() error = %v, want ErrUpstream", err)
	}
	if _, err := c.Convert(ctx, 1, "USD", "EUR"); !errors.Is(err, ErrUpstream) {
		t.Errorf("Convert() error = %v, want ErrUpstream", err)
	}
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	t.Run("miss on absent key", func(t *testing.T) {
		_, err := cache.Get(ctx, "nope")
		if !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Get() error = %v, want ErrCacheMiss", err)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		if err := cache.Set(ctx, "k", "v", time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, err := cache.Get(ctx, "k")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != "v" {
			t.Errorf("Get() = %q, want v", got)
		}
	})

	t.Run("expired entry misses", func(t *testing.T) {
		if err := cache.Set(ctx, "gone", "v", -time.Second); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if _, err := cache.Get(ctx, "gone"); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Get() error = %v, want ErrCacheMiss", err)
		}
	})
}
