package cache

import (
	"context"
	"time"

	"github.com/cbmdata/go-pricing-comparatif/internal/cacheinfra"
)

// Backend is the key-value store the gateway runs against. Implementations
// report an absent key as cacheinfra.ErrCacheMiss and any store failure as
// *cacheinfra.BackendError; the gateway is fault-isolated against the
// latter. Operations are independent: there is no cross-key atomicity and
// no locking.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteMatching(ctx context.Context, pattern string) (int, error)
}

// MemoryConfig and RedisConfig are re-exported so callers outside the
// module can configure backends without reaching into internal packages.
type (
	MemoryConfig = cacheinfra.MemoryConfig
	RedisConfig  = cacheinfra.RedisConfig
)

// DefaultMemoryConfig returns the default in-process backend settings.
func DefaultMemoryConfig() MemoryConfig { return cacheinfra.DefaultMemoryConfig() }

// DefaultRedisConfig returns the default Redis backend settings.
func DefaultRedisConfig() RedisConfig { return cacheinfra.DefaultRedisConfig() }

// NewMemoryBackend constructs the in-process backend.
func NewMemoryBackend(cfg MemoryConfig) (Backend, error) {
	return cacheinfra.NewMemoryBackend(cfg)
}

// NewRedisBackend constructs the Redis backend used in shared deployments.
func NewRedisBackend(cfg RedisConfig) Backend {
	return cacheinfra.NewRedisBackend(cfg)
}
