package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for a missing or expired key. Any other
// error means the backend itself failed; callers that use the cache as a
// best-effort accelerator should treat those as absence, not as a reason
// to fail the request.
var ErrNotFound = errors.New("cache: key not found")

// Store is a TTL key/value store. Values are JSON-encoded so that either
// backend can hold arbitrary structs.
type Store interface {
	// Get unmarshals the value at key into dest. Returns ErrNotFound for a
	// missing or expired key.
	Get(ctx context.Context, key string, dest interface{}) error

	// Set writes value at key, overwriting any existing entry and resetting
	// its expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	// IncrementWithTTL atomically increments the counter at key and returns
	// the new value. The TTL is applied only when the increment creates the
	// key, so concurrent increments within one window share one expiry.
	IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
