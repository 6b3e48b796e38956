package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/muaina/portal/internal/cache"
	"github.com/muaina/portal/internal/obs"
)

// Rule is a fixed-window limit for one scope. Counting is aligned to
// window boundaries, so a burst of up to 2×MaxRequests can pass across a
// boundary; that is an accepted property of the algorithm.
type Rule struct {
	Window      time.Duration
	MaxRequests int
}

// Result of a single limit check. ResetAt is the end of the current
// window; on deny the caller derives Retry-After from ResetAt - now.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type Limiter struct {
	store  cache.Store
	logger *slog.Logger
}

func New(store cache.Store, logger *slog.Logger) *Limiter {
	return &Limiter{store: store, logger: logger}
}

// Check counts this request against the (scope, identity) key in the
// current window. A cache backend failure allows the request: an infra
// hiccup must never lock out all traffic, so the limiter fails open and
// logs.
func (l *Limiter) Check(ctx context.Context, scope, identity string, rule Rule) Result {
	now := time.Now()
	windowStart := now.Truncate(rule.Window)
	resetAt := windowStart.Add(rule.Window)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", scope, identity, windowStart.Unix())

	count, err := l.store.IncrementWithTTL(ctx, key, resetAt.Sub(now))
	if err != nil {
		l.logger.Warn("rate limit store unavailable, allowing request",
			"scope", scope, "error", err)
		obs.RateLimitFailOpen.Inc()
		return Result{Allowed: true, Remaining: rule.MaxRequests, ResetAt: resetAt}
	}

	remaining := rule.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   int(count) <= rule.MaxRequests,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
