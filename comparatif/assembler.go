package comparatif

import (
	"fmt"
	"log/slog"
	"strconv"
)

// assemble reshapes wide pivot rows into the nested response. Rows missing
// the product code or an expected dynamic column are structurally broken;
// they are logged and skipped rather than failing the whole page. fetchLimit
// is the row count the data query fetched, surfaced as the prefetch hint
// when it exceeds the page size.
func assemble(rows []map[string]any, tarifs []int, total, page, limit, fetchLimit int, perfMode bool, log *slog.Logger) Response {
	out := make([]ProductRow, 0, len(rows))
	for _, row := range rows {
		pr, err := assembleRow(row, tarifs)
		if err != nil {
			log.Error("dropping malformed pivot row", "error", err)
			continue
		}
		out = append(out, pr)
	}

	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	meta := Meta{
		HasMore:         (page-1)*limit+len(out) < total,
		Page:            page,
		PageSize:        limit,
		TotalPages:      totalPages,
		PerformanceMode: perfMode,
	}
	if fetchLimit > limit {
		meta.PrefetchSize = fetchLimit
	}

	return Response{Total: total, Rows: out, Meta: meta}
}

func assembleRow(row map[string]any, tarifs []int) (ProductRow, error) {
	codPro, ok := asInt(row["cod_pro"])
	if !ok {
		return ProductRow{}, fmt.Errorf("row has no usable cod_pro: %v", row["cod_pro"])
	}

	pr := ProductRow{
		CodPro:    codPro,
		Refint:    asString(row["refint"]),
		NomPro:    asString(row["nom_pro"]),
		Qualite:   asString(row["qualite"]),
		PrixAchat: asFloatPtr(row["prix_achat"]),
		PmpLM:     asFloatPtr(row["pmp_LM"]),
		StockLM:   asIntPtr(row["stock_LM"]),
		CaLM:      asFloatPtr(row["ca_LM"]),
		QteLM:     asIntPtr(row["qte_LM"]),
		MargeLM:   asFloatPtr(row["marge_LM"]),
		Tarifs:    make(map[string]TariffBlock, len(tarifs)),
	}
	if statut, ok := asInt(row["statut"]); ok {
		pr.Statut = statut
	}

	for _, t := range tarifs {
		for _, f := range tariffFields {
			if _, present := row[fmt.Sprintf("%s_%d", f, t)]; !present {
				return ProductRow{}, fmt.Errorf("cod_pro %d: missing column %s_%d", codPro, f, t)
			}
		}
		pr.Tarifs[strconv.Itoa(t)] = TariffBlock{
			Prix:          asFloatPtr(row[fmt.Sprintf("prix_%d", t)]),
			Marge:         asFloatPtr(row[fmt.Sprintf("marge_%d", t)]),
			Qte:           asIntPtr(row[fmt.Sprintf("qte_%d", t)]),
			Ca:            asFloatPtr(row[fmt.Sprintf("ca_%d", t)]),
			MargeRealisee: asFloatPtr(row[fmt.Sprintf("marge_realisee_%d", t)]),
		}
	}

	if len(tarifs) >= 2 {
		pr.RatioMaxMin = asFloatPtr(row["ratio_max_min"])
	}
	return pr, nil
}

// asFloat widens whatever the driver or codec produced into a float64.
// Postgres numerics arrive as []byte or string, msgpack round-trips ints as
// int64, and tests feed native Go values.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case []byte:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asFloatPtr(v any) *float64 {
	if f, ok := asFloat(v); ok {
		return &f
	}
	return nil
}

func asInt(v any) (int, bool) {
	if f, ok := asFloat(v); ok {
		return int(f), true
	}
	return 0, false
}

func asIntPtr(v any) *int {
	if n, ok := asInt(v); ok {
		return &n
	}
	return nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
