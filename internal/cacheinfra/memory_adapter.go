package cacheinfra

import (
	"context"
	"sort"
	"time"

	"github.com/viccon/sturdyc"
)

// MemoryConfig holds the configuration for the in-process memory backend.
type MemoryConfig struct {
	// Capacity is the maximum number of entries held per TTL tier.
	// Must be greater than 0.
	Capacity int

	// NumShards determines how many shards each tier cache uses for
	// concurrent access. Must be greater than 0.
	NumShards int

	// EvictionPercentage specifies what percentage of entries to evict when
	// a tier reaches capacity. Must be between 1-100.
	EvictionPercentage int

	// Tiers are the expiry durations the backend supports. A Set request is
	// bucketed into the smallest tier that covers its TTL. Must be
	// non-empty; sorted internally.
	Tiers []time.Duration

	// EvictionInterval sets how often expired entries are collected.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultMemoryConfig returns a MemoryConfig with one tier per gateway TTL
// class (short/medium/long).
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Capacity:           10000,
		NumShards:          256,
		EvictionPercentage: 10,
		Tiers:              []time.Duration{5 * time.Minute, 30 * time.Minute, time.Hour},
	}
}

// Validate checks if the configuration values are valid.
func (c MemoryConfig) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	if len(c.Tiers) == 0 {
		return &ConfigError{Field: "Tiers", Message: "must contain at least one duration"}
	}
	for _, ttl := range c.Tiers {
		if ttl <= 0 {
			return &ConfigError{Field: "Tiers", Message: "durations must be positive"}
		}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

type memoryTier struct {
	ttl    time.Duration
	client *sturdyc.Client[[]byte]
}

// MemoryBackend is an in-process byte-oriented backend built on sturdyc
// shard caches. sturdyc fixes the TTL per client, so per-call TTLs are
// bucketed into a small set of tier clients; an entry lives at most as long
// as the tier that absorbed it. Useful for single-node deployments and
// tests where a shared Redis is not available.
type MemoryBackend struct {
	tiers []memoryTier
}

// NewMemoryBackend validates cfg and builds one sturdyc client per tier.
func NewMemoryBackend(cfg MemoryConfig) (*MemoryBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ttls := append([]time.Duration(nil), cfg.Tiers...)
	sort.Slice(ttls, func(i, j int) bool { return ttls[i] < ttls[j] })

	var opts []sturdyc.Option
	if cfg.EvictionInterval > 0 {
		opts = append(opts, sturdyc.WithEvictionInterval(cfg.EvictionInterval))
	}

	tiers := make([]memoryTier, 0, len(ttls))
	for _, ttl := range ttls {
		client := sturdyc.New[[]byte](cfg.Capacity, cfg.NumShards, ttl, cfg.EvictionPercentage, opts...)
		tiers = append(tiers, memoryTier{ttl: ttl, client: client})
	}
	return &MemoryBackend{tiers: tiers}, nil
}

// tierFor picks the smallest tier whose TTL covers the requested duration,
// falling back to the longest-lived tier.
func (b *MemoryBackend) tierFor(ttl time.Duration) *memoryTier {
	for i := range b.tiers {
		if b.tiers[i].ttl >= ttl {
			return &b.tiers[i]
		}
	}
	return &b.tiers[len(b.tiers)-1]
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	for i := range b.tiers {
		if val, ok := b.tiers[i].client.Get(key); ok {
			return val, nil
		}
	}
	return nil, ErrCacheMiss
}

func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	// A key may have been written earlier under a different tier; clear it
	// everywhere so a stale shorter-lived copy cannot shadow the new value.
	for i := range b.tiers {
		b.tiers[i].client.Delete(key)
	}
	b.tierFor(ttl).client.Set(key, value)
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	for i := range b.tiers {
		b.tiers[i].client.Delete(key)
	}
	return nil
}

// DeleteMatching removes every key matching the glob pattern across all
// tiers and returns how many entries were deleted. Matching follows the
// same dialect the Redis backend applies server-side, so both backends
// honor the identical invalidation contract.
func (b *MemoryBackend) DeleteMatching(_ context.Context, pattern string) (int, error) {
	var deleted int
	for i := range b.tiers {
		for _, key := range b.tiers[i].client.ScanKeys() {
			if GlobMatch(pattern, key) {
				b.tiers[i].client.Delete(key)
				deleted++
			}
		}
	}
	return deleted, nil
}
