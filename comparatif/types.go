package comparatif

// TariffBlock is the per-tariff slice of a pivot row: the five dynamic
// columns of one tariff, reshaped out of the wide record. Pointer fields
// carry NULLs through to serialization.
type TariffBlock struct {
	Prix          *float64 `json:"prix"`
	Marge         *float64 `json:"marge"`
	Qte           *int     `json:"qte"`
	Ca            *float64 `json:"ca"`
	MargeRealisee *float64 `json:"marge_realisee"`
}

// ProductRow is one product of the comparison result: the fixed attributes
// plus a mapping from tariff id (as string) to its tariff block and, when
// two or more tariffs were requested, the cross-tariff max/min price ratio.
type ProductRow struct {
	CodPro      int                    `json:"cod_pro"`
	Refint      string                 `json:"refint"`
	NomPro      string                 `json:"nom_pro"`
	Qualite     string                 `json:"qualite"`
	Statut      int                    `json:"statut"`
	PrixAchat   *float64               `json:"prix_achat"`
	PmpLM       *float64               `json:"pmp_LM"`
	StockLM     *int                   `json:"stock_LM"`
	CaLM        *float64               `json:"ca_LM"`
	QteLM       *int                   `json:"qte_LM"`
	MargeLM     *float64               `json:"marge_LM"`
	Tarifs      map[string]TariffBlock `json:"tarifs"`
	RatioMaxMin *float64               `json:"ratio_max_min,omitempty"`
}

// Meta carries the pagination and caching metadata of a response.
type Meta struct {
	HasMore         bool `json:"has_more"`
	Page            int  `json:"page"`
	PageSize        int  `json:"page_size"`
	TotalPages      int  `json:"total_pages"`
	PrefetchSize    int  `json:"prefetch_size,omitempty"`
	PerformanceMode bool `json:"performance_mode"`
	Cached          bool `json:"cached"`
}

// Response is the caller-facing result shape: total matching count, the
// reshaped rows of the requested page, and metadata. Responses are built
// fresh per request and cached as serialized blobs; Cached is true only on
// responses served from the cache.
type Response struct {
	Total int          `json:"total"`
	Rows  []ProductRow `json:"rows"`
	Meta  Meta         `json:"meta"`
}
