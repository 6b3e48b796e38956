package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/muaina/portal/internal/cache"
	"github.com/muaina/portal/internal/config"
	"github.com/muaina/portal/internal/queue"
)

func testRouter(t *testing.T, maxRequests int) http.Handler {
	t.Helper()

	store := cache.NewMemory()
	t.Cleanup(store.Close)

	cfg := &config.Config{}
	cfg.Server.AllowedOrigins = "*"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.RateLimit = config.RateLimitConfig{
		AuthWindow:      time.Minute,
		AuthMaxRequests: 5,
		APIWindow:       time.Minute,
		APIMaxRequests:  maxRequests,
	}

	qc := queue.NewClient(cfg.Redis)
	t.Cleanup(func() { qc.Close() })

	return NewRouter(cfg, nil, store, qc).Handler()
}

// Traffic that never authenticates still consumes rate limit budget: the
// relaxed rule is mounted ahead of the JWT middleware and keys on IP.
func TestRouterLimitsUnauthenticatedTraffic(t *testing.T) {
	h := testRouter(t, 1)

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		req.RemoteAddr = "203.0.113.9:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	if first.Code != http.StatusUnauthorized {
		t.Fatalf("first request: got %d, want 401", first.Code)
	}
	if first.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("first request was not counted by the limiter")
	}

	second := do()
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
}

func TestRouterLimitsPublicRoutes(t *testing.T) {
	h := testRouter(t, 2)

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "203.0.113.10:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := do(); code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, code)
		}
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Fatalf("third request: got %d, want 429", code)
	}
}
