package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/cbmdata/go-pricing-comparatif/internal/cacheinfra"
)

// Gateway implements the cache-aside protocol over a Backend. Reads fail
// open: a backend failure is logged, counted and treated as a miss, never
// surfaced to the caller. Writes are best-effort: a failed store is logged
// and dropped. Compute errors are real data-access failures and always
// propagate.
//
// There is deliberately no lock around compute. Concurrent misses for the
// same key each recompute and overwrite the entry; the redundant work is an
// accepted cost of keeping the cache layer free of distributed coordination.
type Gateway struct {
	backend Backend
	ttl     TTLPolicy
	stats   *Stats
	log     *slog.Logger
}

// NewGateway wires a gateway over backend. A nil logger falls back to
// slog.Default().
func NewGateway(backend Backend, ttl TTLPolicy, log *slog.Logger) (*Gateway, error) {
	if err := ttl.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		backend: backend,
		ttl:     ttl,
		stats:   NewStats(),
		log:     log,
	}, nil
}

// TTL exposes the configured retention tiers for callers choosing one.
func (g *Gateway) TTL() TTLPolicy { return g.ttl }

// Stats exposes the gateway's traffic counters.
func (g *Gateway) Stats() *Stats { return g.stats }

// Delete removes one key. Invalidation failures are surfaced so write paths
// can decide whether to retry or alert.
func (g *Gateway) Delete(ctx context.Context, key string) error {
	return g.backend.Delete(ctx, key)
}

// DeleteMatching removes every key matching the glob pattern and returns
// how many entries were purged.
func (g *Gateway) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	n, err := g.backend.DeleteMatching(ctx, pattern)
	if err != nil {
		return n, err
	}
	g.log.InfoContext(ctx, "cache invalidated", "pattern", pattern, "deleted", n)
	return n, nil
}

// lookup reads and counts. A backend failure degrades to a miss; any other
// error (a codec bug, an unexpected kind) propagates, because silently
// recomputing would hide it.
func (g *Gateway) lookup(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := g.backend.Get(ctx, key)
	switch {
	case err == nil:
		g.stats.hits.Inc()
		g.log.DebugContext(ctx, "cache hit", "key", key)
		return raw, true, nil
	case errors.Is(err, cacheinfra.ErrCacheMiss):
		g.stats.misses.Inc()
		g.log.DebugContext(ctx, "cache miss", "key", key)
		return nil, false, nil
	case cacheinfra.IsBackendError(err):
		g.stats.errors.Inc()
		g.stats.misses.Inc()
		g.log.WarnContext(ctx, "cache read failed, treating as miss", "key", key, "error", err)
		return nil, false, nil
	default:
		return nil, false, err
	}
}

// store serializes and writes the computed value. Backend failures are
// logged and ignored: a cache write failure must never fail the request.
func (g *Gateway) store(ctx context.Context, key string, value any, ttl time.Duration) {
	blob, err := msgpack.Marshal(value)
	if err != nil {
		g.log.ErrorContext(ctx, "cache encode failed, result not cached", "key", key, "error", err)
		return
	}
	if err := g.backend.Set(ctx, key, blob, ttl); err != nil {
		g.stats.errors.Inc()
		g.log.WarnContext(ctx, "cache write failed", "key", key, "error", err)
		return
	}
	g.stats.stores.Inc()
	g.log.DebugContext(ctx, "cache set", "key", key, "ttl", ttl)
}

// GetOrCompute returns the cached value under key, or runs compute and
// stores its result with the given TTL. The second return reports whether
// the value came from the cache.
func GetOrCompute[T any](ctx context.Context, g *Gateway, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, bool, error) {
	var value T

	raw, hit, err := g.lookup(ctx, key)
	if err != nil {
		return value, false, err
	}
	if hit {
		if err := msgpack.Unmarshal(raw, &value); err != nil {
			// A decode failure is a codec or schema bug, not a cache
			// outage; it must not masquerade as a miss.
			return value, false, err
		}
		return value, true, nil
	}

	value, err = compute(ctx)
	if err != nil {
		return value, false, err
	}

	g.store(ctx, key, value, ttl)
	return value, false, nil
}
