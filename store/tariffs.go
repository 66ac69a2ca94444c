package store

import (
	"context"
	"log/slog"

	"github.com/uptrace/bun"

	"github.com/cbmdata/go-pricing-comparatif/cache"
)

// tariffCacheKey holds the full tariff list; it is small and read on every
// screen, so it lives in the medium tier and is busted on writes.
const tariffCacheKey = "parametres:tarifs"

// Tariff is a row of the tariff reference table.
type Tariff struct {
	bun.BaseModel `bun:"table:dm.dim_tarif,alias:t"`

	NoTarif  int    `bun:"no_tarif,pk" json:"no_tarif"`
	NomTarif string `bun:"nom_tarif" json:"nom_tarif"`
	Visible  bool   `bun:"visible" json:"visible"`
}

// TariffVisibility is one visibility toggle of a bulk update.
type TariffVisibility struct {
	NoTarif int  `json:"no_tarif"`
	Visible bool `json:"visible"`
}

// TariffCatalog serves and maintains the tariff reference data backing the
// comparison screens.
type TariffCatalog struct {
	db  *DB
	gw  *cache.Gateway
	log *slog.Logger
}

// NewTariffCatalog wires a catalog. A nil logger falls back to slog.Default().
func NewTariffCatalog(db *DB, gw *cache.Gateway, log *slog.Logger) *TariffCatalog {
	if log == nil {
		log = slog.Default()
	}
	return &TariffCatalog{db: db, gw: gw, log: log}
}

// List returns every tariff ordered by id, served from cache when present.
func (c *TariffCatalog) List(ctx context.Context) ([]Tariff, error) {
	tariffs, _, err := cache.GetOrCompute(ctx, c.gw, tariffCacheKey, c.gw.TTL().Medium,
		func(ctx context.Context) ([]Tariff, error) {
			var ts []Tariff
			if err := c.db.bun.NewSelect().Model(&ts).Order("no_tarif ASC").Scan(ctx); err != nil {
				return nil, &QueryError{Op: "list tariffs", Err: err}
			}
			return ts, nil
		})
	return tariffs, err
}

// Visible returns only the tariffs exposed to comparison screens.
func (c *TariffCatalog) Visible(ctx context.Context) ([]Tariff, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Tariff, 0, len(all))
	for _, t := range all {
		if t.Visible {
			out = append(out, t)
		}
	}
	return out, nil
}

// UpdateVisibility applies the toggles in one transaction, then busts the
// tariff entry and the comparison namespace. A purge failure does not fail
// the update; stale entries age out on their TTL.
func (c *TariffCatalog) UpdateVisibility(ctx context.Context, changes []TariffVisibility) error {
	if len(changes) == 0 {
		return nil
	}
	err := c.db.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, ch := range changes {
			if _, err := tx.NewUpdate().
				Model((*Tariff)(nil)).
				Set("visible = ?", ch.Visible).
				Where("no_tarif = ?", ch.NoTarif).
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &QueryError{Op: "update tariff visibility", Err: err}
	}

	if err := c.gw.Delete(ctx, tariffCacheKey); err != nil {
		c.log.WarnContext(ctx, "tariff cache purge failed", "error", err)
	}
	if _, err := c.gw.DeleteMatching(ctx, "comparatif_multi:*"); err != nil {
		c.log.WarnContext(ctx, "comparatif cache purge failed", "error", err)
	}
	return nil
}
