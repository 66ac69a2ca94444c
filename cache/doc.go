// Package cache provides deterministic cache-key derivation and a
// cache-aside gateway for query results.
//
// # Overview
//
// Two pieces cooperate here:
//
//   - KeyDeriver: maps an arbitrary parameter set to a short, stable key,
//     hashing the canonical form once it outgrows a size threshold
//   - Gateway: get-or-compute-and-store semantics over a pluggable Backend,
//     with fail-open reads, best-effort writes and tiered TTLs
//
// # Key Derivation
//
// Keys are derived from a namespace and a parameter map:
//
//	keys := cache.NewKeyDeriver(0)
//	key := keys.Derive("comparatif_multi", map[string]any{
//		"tarifs": []int{2, 7},
//		"page":   1,
//	})
//
// The canonical form sorts map keys, so insertion order never affects the
// key. Order-insensitive lists (for example a product-code filter list)
// must be sorted by the caller before derivation, or semantically equal
// requests will land on different keys.
//
// # Cache-Aside Protocol
//
// The gateway never lets the cache break a request. Backend read failures
// degrade to a miss, write failures are dropped after logging, and only
// genuine compute errors reach the caller:
//
//	resp, cached, err := cache.GetOrCompute(ctx, gw, key, gw.TTL().Short,
//		func(ctx context.Context) (Result, error) {
//			return expensiveQuery(ctx)
//		})
//
// There is no locking around compute: concurrent misses on one key each
// recompute and the last write wins. The redundant queries are an accepted
// tradeoff against operating distributed locks.
//
// # Backends
//
// Production deployments share a Redis instance (NewRedisBackend);
// single-node setups and tests can use the in-process sturdyc-backed
// NewMemoryBackend. Both report misses and store failures with distinct
// error kinds so the gateway only recovers from real backend faults; a
// serialization bug is never silently treated as a miss.
package cache
