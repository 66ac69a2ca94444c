package comparatif

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cbmdata/go-pricing-comparatif/cache"
)

// Namespace prefixes every comparison cache key, so the whole family can be
// purged with one pattern delete after the pivot table is refreshed.
const Namespace = "comparatif_multi"

// Querier is the slice of the data store the service needs.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) ([]map[string]any, error)
	QueryInt(ctx context.Context, query string, args ...any) (int, error)
}

// Service runs multi-tariff price comparisons: it validates the filter
// payload, derives a cache key from it, and serves the response from cache
// or from the pivot table through the cache-aside gateway.
type Service struct {
	store  Querier
	gw     *cache.Gateway
	keys   *cache.KeyDeriver
	limits Limits
	log    *slog.Logger
}

// NewService wires a comparison service. keys may be nil for the default
// deriver, limits may be zero for DefaultLimits, log may be nil for
// slog.Default().
func NewService(store Querier, gw *cache.Gateway, keys *cache.KeyDeriver, limits Limits, log *slog.Logger) *Service {
	if keys == nil {
		keys = cache.NewKeyDeriver(0)
	}
	if limits == (Limits{}) {
		limits = DefaultLimits()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, gw: gw, keys: keys, limits: limits, log: log}
}

// GetComparatif returns one page of the comparison for payload. The payload
// is normalized and validated first, so equivalent requests share a cache
// entry. Responses served from cache have Meta.Cached set.
func (s *Service) GetComparatif(ctx context.Context, payload FilterPayload) (Response, error) {
	p := payload
	p.Normalize(s.limits)
	if err := p.Validate(); err != nil {
		return Response{}, &ValidationError{Err: err}
	}

	perfMode := !p.HasSpecificFilters()
	log := s.log.With("request_id", uuid.NewString(), "tarifs", p.Tarifs, "page", p.Page)

	key := s.keys.Derive(Namespace, p.keyParams())
	ttl := s.gw.TTL().Short
	if perfMode {
		ttl = s.gw.TTL().Long
	}

	start := time.Now()
	resp, cached, err := cache.GetOrCompute(ctx, s.gw, key, ttl, func(ctx context.Context) (Response, error) {
		return s.compute(ctx, p, key, perfMode, log)
	})
	if err != nil {
		return Response{}, err
	}
	resp.Meta.Cached = cached

	log.InfoContext(ctx, "comparatif served",
		"total", resp.Total,
		"rows", len(resp.Rows),
		"cached", cached,
		"performance_mode", perfMode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

// compute runs the count and data queries and assembles the response. The
// count is cached under its own suffix with a medium TTL: totals move
// slower than pages and the count scan is the expensive half of cheap
// filtered requests.
func (s *Service) compute(ctx context.Context, p FilterPayload, key string, perfMode bool, log *slog.Logger) (Response, error) {
	q, err := BuildQueries(p, s.limits.FirstPagePrefetch)
	if err != nil {
		return Response{}, &ValidationError{Err: err}
	}

	total, _, err := cache.GetOrCompute(ctx, s.gw, key+":count", s.gw.TTL().Medium,
		func(ctx context.Context) (int, error) {
			n, err := s.store.QueryInt(ctx, q.CountSQL, q.Args...)
			if err != nil {
				return 0, &StoreQueryError{Op: "count", Err: err}
			}
			return n, nil
		})
	if err != nil {
		return Response{}, err
	}

	if total == 0 {
		return assemble(nil, p.Tarifs, 0, p.Page, p.Limit, q.FetchLimit, perfMode, log), nil
	}

	rows, err := s.store.Query(ctx, q.DataSQL, q.DataArgs...)
	if err != nil {
		return Response{}, &StoreQueryError{Op: "data", Err: err}
	}

	return assemble(rows, p.Tarifs, total, p.Page, p.Limit, q.FetchLimit, perfMode, log), nil
}

// Invalidate purges every cached comparison, counts included. Called after
// the pivot table is rebuilt or tariff reference data changes.
func (s *Service) Invalidate(ctx context.Context) (int, error) {
	return s.gw.DeleteMatching(ctx, Namespace+":*")
}
