package comparatif

import (
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Limits bounds pagination and prefetch behavior. The zero value is not
// usable; start from DefaultLimits.
type Limits struct {
	// DefaultLimit is applied when the payload carries no page size.
	DefaultLimit int
	// MaxLimit caps the page size a caller may request.
	MaxLimit int
	// ExportLimit replaces the page size when export mode is on.
	ExportLimit int
	// FirstPagePrefetch, when positive, widens the first unfiltered page to
	// that many rows so the store is hit once for the first few pages the
	// caller is about to request. Zero disables prefetch.
	FirstPagePrefetch int
}

// DefaultLimits returns the production pagination bounds.
func DefaultLimits() Limits {
	return Limits{
		DefaultLimit: 100,
		MaxLimit:     200,
		ExportLimit:  999999,
	}
}

// FilterPayload is the caller's request: which tariffs to compare, optional
// product filters, sorting and pagination. CodPro uses zero as "unset";
// product codes are always positive.
type FilterPayload struct {
	Tarifs    []int  `json:"tarifs"`
	CodPro    int    `json:"cod_pro,omitempty"`
	Refint    string `json:"refint,omitempty"`
	Qualite   string `json:"qualite,omitempty"`
	SortBy    string `json:"sort_by,omitempty"`
	SortDir   string `json:"sort_dir,omitempty"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	ExportAll bool   `json:"export_all,omitempty"`
}

// Normalize rewrites the payload into its canonical form: tariff ids sorted
// and deduplicated, sort direction lowercased, pagination clamped into l's
// bounds, and export mode forcing a single full page. Two payloads meaning
// the same request normalize to identical values, which is what makes cache
// keys collide for them.
func (p *FilterPayload) Normalize(l Limits) {
	p.Tarifs = dedupeSorted(p.Tarifs)
	p.SortDir = strings.ToLower(p.SortDir)

	if p.ExportAll {
		p.Page = 1
		p.Limit = l.ExportLimit
		return
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = l.DefaultLimit
	}
	if p.Limit > l.MaxLimit {
		p.Limit = l.MaxLimit
	}
}

// Validate checks the normalized payload. Callers receive failures wrapped
// in ValidationError by the service.
func (p FilterPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Tarifs,
			validation.Required.Error("at least one tariff is required"),
			validation.Length(1, 3).Error("between 1 and 3 tariffs are supported"),
			// Required before Min: the zero id is an empty value to the
			// threshold rule and would otherwise slip through.
			validation.Each(
				validation.Required.Error("tariff ids must be positive"),
				validation.Min(1).Error("tariff ids must be positive"),
			),
		),
		validation.Field(&p.SortDir,
			validation.In("", "asc", "desc").Error("sort_dir must be asc or desc"),
		),
		validation.Field(&p.CodPro, validation.Min(0)),
		validation.Field(&p.Page, validation.Min(1)),
		validation.Field(&p.Limit, validation.Min(1)),
	)
}

// HasSpecificFilters reports whether any product-level filter is set. An
// unfiltered request scans the whole pivot table and is treated as
// performance mode: longer cache retention, optional first-page prefetch.
func (p FilterPayload) HasSpecificFilters() bool {
	return p.CodPro > 0 || p.Refint != "" || p.Qualite != ""
}

// offset is the row offset of the requested page.
func (p FilterPayload) offset() int {
	return (p.Page - 1) * p.Limit
}

// keyParams flattens the payload for key derivation. Every field is always
// present so the canonical form has a fixed shape.
func (p FilterPayload) keyParams() map[string]any {
	return map[string]any{
		"tarifs":     p.Tarifs,
		"cod_pro":    p.CodPro,
		"refint":     p.Refint,
		"qualite":    p.Qualite,
		"sort_by":    p.SortBy,
		"sort_dir":   p.SortDir,
		"page":       p.Page,
		"limit":      p.Limit,
		"export_all": p.ExportAll,
	}
}

func dedupeSorted(vals []int) []int {
	if len(vals) == 0 {
		return vals
	}
	out := make([]int, len(vals))
	copy(out, vals)
	sort.Ints(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[i-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
