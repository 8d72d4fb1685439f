// Package cache holds the Redis-backed fast paths: the session revocation
// registry, the search/suggestion result caches and per-user search history.
// The backing store stays authoritative; with the exception of the
// revocation registry, everything here is best-effort and safe to lose.
package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient builds the shared Redis client. Callers own its lifecycle.
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping verifies the Redis connection is alive.
func Ping(ctx context.Context, rdb *redis.Client) error {
	return rdb.Ping(ctx).Err()
}
