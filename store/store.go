package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// QueryError reports a warehouse read failure with the operation that hit it.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("store: %s failed: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Config tunes the warehouse connection pool and read behavior.
type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// DirtyReads runs every read in a read-only, read-uncommitted
	// transaction. The warehouse is rebuilt by batch jobs; reading through
	// an in-flight rewrite is acceptable and avoids blocking behind it.
	DirtyReads bool
}

// DefaultConfig returns the production pool settings.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    100,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		DirtyReads:      true,
	}
}

// DB is a thin read layer over the analytics warehouse. Statements arrive
// fully rendered with positional parameters; rows come back as generic maps
// because the column set varies per request.
type DB struct {
	bun *bun.DB
	cfg Config
	log *slog.Logger
}

// New wraps an open *sql.DB. The pool settings from cfg are applied to
// sqldb; a nil logger falls back to slog.Default().
func New(sqldb *sql.DB, cfg Config, log *slog.Logger) *DB {
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if log == nil {
		log = slog.Default()
	}
	return &DB{bun: bun.NewDB(sqldb, pgdialect.New()), cfg: cfg, log: log}
}

// Bun exposes the underlying bun handle for model-based access.
func (d *DB) Bun() *bun.DB { return d.bun }

// Ping verifies the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.bun.PingContext(ctx)
}

// Close releases the pool.
func (d *DB) Close() error { return d.bun.Close() }

// Query runs a read statement and scans every row into a column-name map.
// Values arrive as whatever the driver produced; callers normalize them.
func (d *DB) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	var out []map[string]any
	err := d.read(ctx, func(idb bun.IDB) error {
		rows, err := idb.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return err
		}
		for rows.Next() {
			vals := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}
			m := make(map[string]any, len(cols))
			for i, c := range cols {
				m[c] = vals[i]
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, &QueryError{Op: "query", Err: err}
	}
	return out, nil
}

// QueryInt runs a single-value read, typically a COUNT.
func (d *DB) QueryInt(ctx context.Context, query string, args ...any) (int, error) {
	var n int64
	err := d.read(ctx, func(idb bun.IDB) error {
		return idb.QueryRowContext(ctx, query, args...).Scan(&n)
	})
	if err != nil {
		return 0, &QueryError{Op: "scalar query", Err: err}
	}
	return int(n), nil
}

// read executes fn against the pool, wrapped in a read-only uncommitted
// transaction when dirty reads are on. The transaction is always resolved
// before returning.
func (d *DB) read(ctx context.Context, fn func(bun.IDB) error) error {
	if !d.cfg.DirtyReads {
		return fn(d.bun)
	}
	tx, err := d.bun.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadUncommitted,
		ReadOnly:  true,
	})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.log.WarnContext(ctx, "rollback failed", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}
