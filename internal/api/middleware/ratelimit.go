package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/muaina/portal/internal/obs"
	"github.com/muaina/portal/internal/principal"
	"github.com/muaina/portal/internal/ratelimit"
)

// RateLimit applies one fixed-window rule under the given scope. The
// strict auth scope keys on client IP; authenticated scopes key on the
// principal so a NAT'd clinic doesn't share one budget.
func RateLimit(limiter *ratelimit.Limiter, scope string, rule ratelimit.Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := clientIP(r)
			if u := principal.UserFromContext(r.Context()); u != nil {
				identity = u.ID.String()
			}

			res := limiter.Check(r.Context(), scope, identity, rule)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				obs.RateLimitDenied.WithLabelValues(scope).Inc()
				retryAfter := int(math.Ceil(time.Until(res.ResetAt).Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error":               "rate limit exceeded",
					"retry_after_seconds": retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
