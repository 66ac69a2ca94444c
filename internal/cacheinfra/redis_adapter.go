package cacheinfra

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection settings for the Redis backend.
type RedisConfig struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password is optional; empty means no AUTH.
	Password string

	// DB selects the logical Redis database. Default: 0.
	DB int

	// DialTimeout bounds connection establishment. Default: 5s.
	DialTimeout time.Duration

	// ReadTimeout / WriteTimeout bound individual commands. Default: 5s.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ScanCount is the COUNT hint passed to SCAN during pattern deletes.
	// Default: 100.
	ScanCount int64
}

// DefaultRedisConfig returns a RedisConfig with conservative timeouts
// suitable for a shared cache instance.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		ScanCount:    100,
	}
}

// RedisBackend is a byte-oriented key-value backend over a shared Redis
// instance. All failures are reported as *BackendError so the gateway can
// fail open; a missing key is ErrCacheMiss.
type RedisBackend struct {
	client    *redis.Client
	scanCount int64
}

// NewRedisBackend dials Redis using cfg. The connection is pooled and shared
// by all gateway operations; individual command failures do not poison it.
func NewRedisBackend(cfg RedisConfig) *RedisBackend {
	if cfg.ScanCount <= 0 {
		cfg.ScanCount = 100
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	return &RedisBackend{client: client, scanCount: cfg.ScanCount}
}

// NewRedisBackendFromClient wraps an existing client, which the caller owns.
func NewRedisBackendFromClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client, scanCount: 100}
}

// Ping verifies the connection, for startup checks.
func (b *RedisBackend) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return &BackendError{Op: "ping", Err: err}
	}
	return nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, &BackendError{Op: "get", Key: key, Err: err}
	}
	return val, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return &BackendError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, key).Err(); err != nil {
		return &BackendError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// DeleteMatching removes every key matching the glob pattern and returns how
// many were deleted. It walks the keyspace with SCAN rather than KEYS so a
// large invalidation does not block the shared server.
func (b *RedisBackend) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	var deleted int
	iter := b.client.Scan(ctx, 0, pattern, b.scanCount).Iterator()
	for iter.Next(ctx) {
		if err := b.client.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, &BackendError{Op: "delete_matching", Key: pattern, Err: err}
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, &BackendError{Op: "delete_matching", Key: pattern, Err: err}
	}
	return deleted, nil
}

// Close releases the underlying connection pool.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
