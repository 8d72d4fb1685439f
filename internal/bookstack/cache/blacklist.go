package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "blacklist:"

// Blacklist is the session revocation registry. An entry outlives the
// longest-lived token of the session it revokes, so a missing entry is a
// reliable "not revoked" answer. Unlike the result caches this path must NOT
// fail open: callers treat lookup errors as fatal for the request.
type Blacklist struct {
	rdb *redis.Client
}

func NewBlacklist(rdb *redis.Client) *Blacklist {
	return &Blacklist{rdb: rdb}
}

// Revoke marks a session id as revoked for ttl.
func (b *Blacklist) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	return b.rdb.Set(ctx, revokedKeyPrefix+sessionID, "1", ttl).Err()
}

// IsRevoked reports whether a session id has been revoked.
func (b *Blacklist) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := b.rdb.Exists(ctx, revokedKeyPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
