// Package comparatif implements multi-tariff price comparison over a
// pre-pivoted pricing table.
//
// A request names one to three tariff ids plus optional product filters.
// The service builds a SQL statement whose column list is derived from the
// tariff ids (prix_N, marge_N, qte_N, ca_N, marge_realisee_N), runs it with
// parameterized filters, and reshapes the wide rows into per-product
// records with one nested block per tariff. With two or more tariffs the
// statement also computes ratio_max_min, the spread between the highest and
// lowest strictly positive price of the row.
//
// Results are cached through the cache package. Unfiltered requests scan
// the whole table, so they cache longer and may prefetch a wider first
// page; filtered requests use the short tier. Tariff ids are sorted and
// deduplicated before key derivation, so {2,7} and {7,2} share an entry.
package comparatif
