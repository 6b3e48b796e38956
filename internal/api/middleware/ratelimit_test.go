package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/muaina/portal/internal/cache"
	"github.com/muaina/portal/internal/ratelimit"
)

func newTestLimiter(t *testing.T) *ratelimit.Limiter {
	t.Helper()
	store := cache.NewMemory()
	t.Cleanup(func() { store.Close() })
	return ratelimit.New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := newTestLimiter(t)
	rule := ratelimit.Rule{Window: time.Minute, MaxRequests: 2}

	handler := RateLimit(limiter, "test", rule)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:54321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := do(); rec.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want 200", i+1, rec.Code)
		}
	}

	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("got status %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("remaining = %q, want 0", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimitMiddlewareSeparateClients(t *testing.T) {
	limiter := newTestLimiter(t)
	rule := ratelimit.Rule{Window: time.Minute, MaxRequests: 1}

	handler := RateLimit(limiter, "test", rule)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("203.0.113.7:1000"); code != http.StatusOK {
		t.Fatalf("first client: got %d, want 200", code)
	}
	if code := do("203.0.113.8:1000"); code != http.StatusOK {
		t.Fatalf("second client should have its own budget, got %d", code)
	}
	if code := do("203.0.113.7:2000"); code != http.StatusTooManyRequests {
		t.Fatalf("first client second request: got %d, want 429", code)
	}
}
