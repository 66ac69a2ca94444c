// Package di wires the application graph: config in, ready-to-use services
// out. It exists so binaries and integration tests build the same graph.
package di

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/cbmdata/go-pricing-comparatif/cache"
	"github.com/cbmdata/go-pricing-comparatif/comparatif"
	"github.com/cbmdata/go-pricing-comparatif/config"
	"github.com/cbmdata/go-pricing-comparatif/internal/cacheinfra"
	"github.com/cbmdata/go-pricing-comparatif/store"
)

// Container holds the singleton instances of the application graph.
type Container struct {
	cfg     config.Config
	log     *slog.Logger
	backend cache.Backend
	gateway *cache.Gateway
	keys    *cache.KeyDeriver
	db      *store.DB
	service *comparatif.Service
	tariffs *store.TariffCatalog
	querier *store.CachedQuerier
}

// New builds the graph on top of an already opened database handle. The
// cache backend is chosen from cfg: the shared Redis instance in
// production, the in-process memory backend for single-node or test runs.
func New(cfg config.Config, sqldb *sql.DB, log *slog.Logger) (*Container, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	backend, err := newBackend(cfg.Cache, cfg.Redis)
	if err != nil {
		return nil, err
	}

	policy := cache.TTLPolicy{
		Short:  cfg.Cache.TTLShort,
		Medium: cfg.Cache.TTLMedium,
		Long:   cfg.Cache.TTLLong,
	}
	gateway, err := cache.NewGateway(backend, policy, log)
	if err != nil {
		return nil, err
	}

	keys := cache.NewKeyDeriver(cfg.Cache.KeyThreshold)
	db := store.New(sqldb, store.Config{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		DirtyReads:      true,
	}, log)

	limits := comparatif.Limits{
		DefaultLimit:      cfg.Comparatif.DefaultLimit,
		MaxLimit:          cfg.Comparatif.MaxLimit,
		ExportLimit:       cfg.Comparatif.ExportLimit,
		FirstPagePrefetch: cfg.Comparatif.FirstPagePrefetch,
	}

	return &Container{
		cfg:     cfg,
		log:     log,
		backend: backend,
		gateway: gateway,
		keys:    keys,
		db:      db,
		service: comparatif.NewService(db, gateway, keys, limits, log),
		tariffs: store.NewTariffCatalog(db, gateway, log),
		querier: store.NewCachedQuerier(db, gateway, keys),
	}, nil
}

// OpenDatabase opens and pings the warehouse described by cfg.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	sqldb, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("di: open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqldb.PingContext(pingCtx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("di: ping database: %w", err)
	}
	return sqldb, nil
}

// NewLogger builds the process logger at the given level. Unknown levels
// fall back to info.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func newBackend(cc config.CacheConfig, rc config.RedisConfig) (cache.Backend, error) {
	switch cc.Backend {
	case "memory":
		mc := cacheinfra.DefaultMemoryConfig()
		if cc.MemoryCapacity > 0 {
			mc.Capacity = cc.MemoryCapacity
		}
		mc.Tiers = []time.Duration{cc.TTLShort, cc.TTLMedium, cc.TTLLong}
		return cache.NewMemoryBackend(mc)
	case "redis", "":
		rcfg := cacheinfra.DefaultRedisConfig()
		rcfg.Addr = rc.Addr()
		rcfg.Password = rc.Password
		rcfg.DB = rc.DB
		return cache.NewRedisBackend(rcfg), nil
	default:
		return nil, fmt.Errorf("di: unknown cache backend %q", cc.Backend)
	}
}

// Config returns a copy of the configuration the container was built with.
func (c *Container) Config() config.Config { return c.cfg }

// Logger returns the process logger.
func (c *Container) Logger() *slog.Logger { return c.log }

// Gateway returns the cache gateway.
func (c *Container) Gateway() *cache.Gateway { return c.gateway }

// KeyDeriver returns the key deriver.
func (c *Container) KeyDeriver() *cache.KeyDeriver { return c.keys }

// DB returns the warehouse read layer.
func (c *Container) DB() *store.DB { return c.db }

// Comparatif returns the comparison service.
func (c *Container) Comparatif() *comparatif.Service { return c.service }

// Tariffs returns the tariff catalog.
func (c *Container) Tariffs() *store.TariffCatalog { return c.tariffs }

// CachedQuerier returns the raw-SQL cached querier.
func (c *Container) CachedQuerier() *store.CachedQuerier { return c.querier }

// Close releases the cache backend and database pool.
func (c *Container) Close() error {
	var firstErr error
	if closer, ok := c.backend.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			firstErr = err
		}
	}
	if err := c.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
