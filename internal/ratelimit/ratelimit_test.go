package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/muaina/portal/internal/cache"
)

func testLimiter(t *testing.T) *Limiter {
	t.Helper()
	store := cache.NewMemory()
	t.Cleanup(store.Close)
	return New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCheckDeniesAfterMax(t *testing.T) {
	l := testLimiter(t)
	ctx := context.Background()
	rule := Rule{Window: time.Hour, MaxRequests: 3}

	for i := 0; i < 3; i++ {
		res := l.Check(ctx, "auth:login", "10.0.0.1", rule)
		if !res.Allowed {
			t.Fatalf("request %d unexpectedly denied", i+1)
		}
		if want := 3 - (i + 1); res.Remaining != want {
			t.Errorf("request %d: remaining = %d, want %d", i+1, res.Remaining, want)
		}
	}

	res := l.Check(ctx, "auth:login", "10.0.0.1", rule)
	if res.Allowed {
		t.Fatal("fourth request should be denied")
	}
	if res.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", res.Remaining)
	}
	if !res.ResetAt.After(time.Now()) {
		t.Errorf("ResetAt %v should be in the future", res.ResetAt)
	}
}

func TestCheckIsolatesKeys(t *testing.T) {
	l := testLimiter(t)
	ctx := context.Background()
	rule := Rule{Window: time.Hour, MaxRequests: 1}

	if res := l.Check(ctx, "auth:login", "10.0.0.1", rule); !res.Allowed {
		t.Fatal("first identity denied")
	}
	if res := l.Check(ctx, "auth:login", "10.0.0.1", rule); res.Allowed {
		t.Fatal("first identity should be exhausted")
	}
	if res := l.Check(ctx, "auth:login", "10.0.0.2", rule); !res.Allowed {
		t.Fatal("second identity should have its own counter")
	}
	if res := l.Check(ctx, "api", "10.0.0.1", rule); !res.Allowed {
		t.Fatal("same identity under another scope should have its own counter")
	}
}

func TestCheckNewWindowResets(t *testing.T) {
	l := testLimiter(t)
	ctx := context.Background()
	// A window this short ends almost immediately, standing in for the
	// "request arriving after expiry starts a fresh window" case.
	rule := Rule{Window: 10 * time.Millisecond, MaxRequests: 1}

	if res := l.Check(ctx, "api", "u1", rule); !res.Allowed {
		t.Fatal("first request denied")
	}
	l.Check(ctx, "api", "u1", rule)

	time.Sleep(15 * time.Millisecond)

	if res := l.Check(ctx, "api", "u1", rule); !res.Allowed {
		t.Fatal("request in a fresh window should be allowed")
	}
}

func TestConcurrentChecksNeverUndercount(t *testing.T) {
	l := testLimiter(t)
	ctx := context.Background()
	const n = 100
	rule := Rule{Window: time.Hour, MaxRequests: n}

	var wg sync.WaitGroup
	allowed := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Check(ctx, "api", "shared", rule).Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	for ok := range allowed {
		if !ok {
			t.Fatal("request within the limit was denied")
		}
	}

	// The counter must sit at exactly n: the next call is the first denial.
	if res := l.Check(ctx, "api", "shared", rule); res.Allowed {
		t.Fatal("request n+1 should be denied; concurrent increments undercounted")
	}
}

type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection refused")
}

func (failingStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (failingStore) Delete(ctx context.Context, keys ...string) error {
	return errors.New("connection refused")
}

func (failingStore) IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestCheckFailsOpenOnStoreOutage(t *testing.T) {
	l := New(failingStore{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rule := Rule{Window: time.Minute, MaxRequests: 1}

	for i := 0; i < 5; i++ {
		if res := l.Check(context.Background(), "auth:login", "ip", rule); !res.Allowed {
			t.Fatal("limiter must allow traffic when the cache backend is down")
		}
	}
}
