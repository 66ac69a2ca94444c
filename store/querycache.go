package store

import (
	"context"
	"strings"
	"time"

	"github.com/cbmdata/go-pricing-comparatif/cache"
)

// sqlCacheNamespace prefixes cached raw-SQL results.
const sqlCacheNamespace = "sql_cache"

// CachedQuerier caches arbitrary read statements by their whitespace-
// normalized text plus arguments. It serves callers outside the comparison
// path (dashboards, exports) that reuse the same handful of heavy queries.
type CachedQuerier struct {
	db   *DB
	gw   *cache.Gateway
	keys *cache.KeyDeriver
}

// NewCachedQuerier wires a cached querier. keys may be nil for the default
// deriver.
func NewCachedQuerier(db *DB, gw *cache.Gateway, keys *cache.KeyDeriver) *CachedQuerier {
	if keys == nil {
		keys = cache.NewKeyDeriver(0)
	}
	return &CachedQuerier{db: db, gw: gw, keys: keys}
}

// Query returns the rows for query/args, from cache when present, running
// the statement and caching for ttl otherwise. The statement text is
// whitespace-normalized before key derivation so reformatting a query does
// not fragment its cache entries.
func (c *CachedQuerier) Query(ctx context.Context, query string, args []any, ttl time.Duration) ([]map[string]any, error) {
	key := c.keys.Derive(sqlCacheNamespace, map[string]any{
		"query": normalizeSQL(query),
		"args":  args,
	})
	rows, _, err := cache.GetOrCompute(ctx, c.gw, key, ttl,
		func(ctx context.Context) ([]map[string]any, error) {
			return c.db.Query(ctx, query, args...)
		})
	return rows, err
}

// Invalidate purges every cached statement result.
func (c *CachedQuerier) Invalidate(ctx context.Context) (int, error) {
	return c.gw.DeleteMatching(ctx, sqlCacheNamespace+":*")
}

func normalizeSQL(q string) string {
	return strings.Join(strings.Fields(q), " ")
}
