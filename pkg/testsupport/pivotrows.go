package testsupport

import "fmt"

// PivotRow builds a wide pivot-table row as the store layer would return
// it: fixed product attributes plus the five dynamic columns per tariff id.
// prices maps tariff id to its price; tariffs absent from the map get NULL
// price columns. The other dynamic columns are filled with values derived
// from the price so assertions can tell tariffs apart.
func PivotRow(codPro int, tarifs []int, prices map[int]float64) map[string]any {
	row := map[string]any{
		"cod_pro":    int64(codPro),
		"refint":     fmt.Sprintf("REF-%d", codPro),
		"nom_pro":    fmt.Sprintf("Product %d", codPro),
		"qualite":    "OEM",
		"statut":     int64(1),
		"prix_achat": 10.0,
		"stock_LM":   int64(5),
		"pmp_LM":     9.5,
		"qte_LM":     int64(3),
		"ca_LM":      120.0,
		"marge_LM":   0.25,
	}
	for _, t := range tarifs {
		price, ok := prices[t]
		if !ok {
			row[fmt.Sprintf("prix_%d", t)] = nil
			row[fmt.Sprintf("marge_%d", t)] = nil
			row[fmt.Sprintf("qte_%d", t)] = nil
			row[fmt.Sprintf("ca_%d", t)] = nil
			row[fmt.Sprintf("marge_realisee_%d", t)] = nil
			continue
		}
		row[fmt.Sprintf("prix_%d", t)] = price
		row[fmt.Sprintf("marge_%d", t)] = price * 0.2
		row[fmt.Sprintf("qte_%d", t)] = int64(t)
		row[fmt.Sprintf("ca_%d", t)] = price * float64(t)
		row[fmt.Sprintf("marge_realisee_%d", t)] = price * 0.1
	}
	return row
}

// WithRatio adds a precomputed ratio_max_min column to a pivot row.
func WithRatio(row map[string]any, ratio *float64) map[string]any {
	if ratio == nil {
		row["ratio_max_min"] = nil
	} else {
		row["ratio_max_min"] = *ratio
	}
	return row
}
