package comparatif

import (
	"fmt"
	"strings"
)

// pivotTable is the pre-pivoted comparison table maintained by the upstream
// data pipeline: one row per product, five columns per tariff.
const pivotTable = `pricing.comparatif_tarif_pivot`

// baseColumns are the fixed product attributes present on every pivot row.
var baseColumns = []string{
	"cod_pro", "refint", "nom_pro", "qualite", "statut",
	"prix_achat", "stock_LM", "pmp_LM", "qte_LM", "ca_LM", "marge_LM",
}

// tariffFields are the dynamic column prefixes materialized per tariff id.
var tariffFields = []string{"prix", "marge", "qte", "ca", "marge_realisee"}

// Queries is a built statement pair: the data query for one page and the
// count query over the same predicate. Args are the shared filter
// parameters; DataArgs extends them with offset and fetch size.
type Queries struct {
	DataSQL  string
	CountSQL string
	Args     []any
	DataArgs []any
	// FetchLimit is the row count the data query actually fetches. It is
	// the page size unless first-page prefetch widened it.
	FetchLimit int
}

// BuildQueries renders the pivot comparison for a normalized payload.
// Column names are interpolated from integer tariff ids only; every
// user-supplied value travels as a positional parameter. prefetch widens
// the first unfiltered page when positive.
func BuildQueries(p FilterPayload, prefetch int) (Queries, error) {
	if len(p.Tarifs) < 1 || len(p.Tarifs) > 3 {
		return Queries{}, fmt.Errorf("between 1 and 3 tariffs are supported, got %d", len(p.Tarifs))
	}
	for _, t := range p.Tarifs {
		if t <= 0 {
			return Queries{}, fmt.Errorf("tariff ids must be positive, got %d", t)
		}
	}

	cols := make([]string, 0, len(baseColumns)+len(p.Tarifs)*len(tariffFields)+1)
	for _, c := range baseColumns {
		cols = append(cols, quoteIdent(c))
	}
	for _, t := range p.Tarifs {
		for _, f := range tariffFields {
			cols = append(cols, quoteIdent(fmt.Sprintf("%s_%d", f, t)))
		}
	}
	if len(p.Tarifs) >= 2 {
		cols = append(cols, ratioExpr(p.Tarifs))
	}

	where, args := buildWhere(p)

	fetch := p.Limit
	if prefetch > fetch && p.Page == 1 && !p.ExportAll && !p.HasSpecificFilters() {
		fetch = prefetch
	}
	dataArgs := append(append([]any{}, args...), p.offset(), fetch)

	var data strings.Builder
	data.WriteString("SELECT ")
	data.WriteString(strings.Join(cols, ", "))
	data.WriteString(" FROM ")
	data.WriteString(pivotTable)
	data.WriteString(" WHERE ")
	data.WriteString(where)
	data.WriteString(" ")
	data.WriteString(orderClause(p))
	fmt.Fprintf(&data, " OFFSET $%d ROWS FETCH NEXT $%d ROWS ONLY", len(args)+1, len(args)+2)

	count := fmt.Sprintf("SELECT COUNT(*) AS total FROM %s WHERE %s", pivotTable, where)

	return Queries{
		DataSQL:    data.String(),
		CountSQL:   count,
		Args:       args,
		DataArgs:   dataArgs,
		FetchLimit: fetch,
	}, nil
}

// buildWhere renders the predicate: a product must carry a strictly
// positive price on at least one requested tariff, intersected with the
// optional product filters.
func buildWhere(p FilterPayload) (string, []any) {
	priced := make([]string, len(p.Tarifs))
	for i, t := range p.Tarifs {
		col := quoteIdent(fmt.Sprintf("prix_%d", t))
		priced[i] = fmt.Sprintf("(%s IS NOT NULL AND %s > 0)", col, col)
	}

	conds := []string{"(" + strings.Join(priced, " OR ") + ")"}
	var args []any

	if p.CodPro > 0 {
		args = append(args, p.CodPro)
		conds = append(conds, fmt.Sprintf(`"cod_pro" = $%d`, len(args)))
	}
	if p.Refint != "" {
		args = append(args, "%"+p.Refint+"%")
		conds = append(conds, fmt.Sprintf(`"refint" ILIKE $%d`, len(args)))
	}
	if p.Qualite != "" {
		args = append(args, p.Qualite)
		conds = append(conds, fmt.Sprintf(`"qualite" = $%d`, len(args)))
	}

	return strings.Join(conds, " AND "), args
}

// ratioExpr computes ratio_max_min over the strictly positive prices of the
// requested tariffs: max/min across the positive subset when at least two
// prices are positive, NULL otherwise. With two tariffs this collapses to
// GREATEST/LEAST guarded by both being positive.
func ratioExpr(tarifs []int) string {
	if len(tarifs) == 2 {
		a := quoteIdent(fmt.Sprintf("prix_%d", tarifs[0]))
		b := quoteIdent(fmt.Sprintf("prix_%d", tarifs[1]))
		return fmt.Sprintf(
			`CASE WHEN %s > 0 AND %s > 0 THEN GREATEST(%s, %s)::float / LEAST(%s, %s) ELSE NULL END AS "ratio_max_min"`,
			a, b, a, b, a, b)
	}

	positives := make([]string, len(tarifs))
	values := make([]string, len(tarifs))
	for i, t := range tarifs {
		col := quoteIdent(fmt.Sprintf("prix_%d", t))
		positives[i] = fmt.Sprintf("CASE WHEN %s > 0 THEN 1 ELSE 0 END", col)
		values[i] = "(" + col + ")"
	}
	return fmt.Sprintf(
		`CASE WHEN %s >= 2 THEN (SELECT MAX(v)::float / MIN(v) FROM (VALUES %s) AS pv(v) WHERE v > 0) ELSE NULL END AS "ratio_max_min"`,
		strings.Join(positives, " + "), strings.Join(values, ", "))
}

// orderClause whitelists the sort column against the columns this statement
// actually selects. Anything else falls back to the default ordering:
// ratio descending when the ratio exists, product code otherwise. A
// cod_pro tie-break keeps pagination stable across identical sort values.
func orderClause(p FilterPayload) string {
	dir := "ASC"
	if p.SortDir == "desc" {
		dir = "DESC"
	}

	hasRatio := len(p.Tarifs) >= 2
	switch {
	case p.SortBy == "ratio_max_min" && hasRatio:
		return fmt.Sprintf(`ORDER BY "ratio_max_min" %s NULLS LAST, "cod_pro" ASC`, dir)
	case p.SortBy == "cod_pro":
		return fmt.Sprintf(`ORDER BY "cod_pro" %s`, dir)
	case isSortable(p.SortBy, p.Tarifs):
		return fmt.Sprintf(`ORDER BY %s %s, "cod_pro" ASC`, quoteIdent(p.SortBy), dir)
	case hasRatio:
		return `ORDER BY "ratio_max_min" DESC NULLS LAST, "cod_pro" ASC`
	default:
		return `ORDER BY "cod_pro" ASC`
	}
}

func isSortable(field string, tarifs []int) bool {
	for _, c := range baseColumns {
		if field == c {
			return true
		}
	}
	for _, t := range tarifs {
		for _, f := range tariffFields {
			if field == fmt.Sprintf("%s_%d", f, t) {
				return true
			}
		}
	}
	return false
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}
