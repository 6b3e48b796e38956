package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/muaina/portal/internal/cache"
)

// Sessions tracks revoked principals in the cache. Revocation outlives
// any token still in the wild for a deactivated user; entries expire
// with the longest possible token lifetime.
type Sessions struct {
	store cache.Store
	ttl   time.Duration
}

func NewSessions(store cache.Store, tokenTTL time.Duration) *Sessions {
	return &Sessions{store: store, ttl: tokenTTL}
}

func (s *Sessions) Revoke(ctx context.Context, userID uuid.UUID) error {
	return s.store.Set(ctx, revocationKey(userID), true, s.ttl)
}

// IsRevoked errs on the side of availability: a cache outage reads as
// not revoked, because the database's is_active flag is the source of
// truth and is checked on every request anyway.
func (s *Sessions) IsRevoked(ctx context.Context, userID uuid.UUID) bool {
	var revoked bool
	if err := s.store.Get(ctx, revocationKey(userID), &revoked); err != nil {
		return false
	}
	return revoked
}

func revocationKey(userID uuid.UUID) string {
	return fmt.Sprintf("session:revoked:%s", userID)
}
