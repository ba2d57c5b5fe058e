package catalog

// SortKey selects the comparator applied to the filtered result set.
type SortKey string

const (
	// SortRelevance preserves input order (no reordering).
	SortRelevance SortKey = "relevance"
	// SortPriceAsc orders by effective price, lowest first.
	SortPriceAsc SortKey = "price_asc"
	// SortPriceDesc orders by effective price, highest first.
	SortPriceDesc SortKey = "price_desc"
	// SortRatingDesc orders by rating, highest first.
	SortRatingDesc SortKey = "rating_desc"
	// SortNewest orders by record creation time, most recent first.
	SortNewest SortKey = "newest"
	// SortPopularity orders by review count, highest first.
	SortPopularity SortKey = "popularity"
)

// ParseSortKey maps a wire value to a SortKey.
// Unknown or empty values fall back to SortRelevance.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortPriceAsc, SortPriceDesc, SortRatingDesc, SortNewest, SortPopularity:
		return SortKey(s)
	default:
		return SortRelevance
	}
}

// less returns the comparator for the sort key, or nil for SortRelevance.
// Comparators return false for equal keys so that a stable sort preserves
// the relative input order of ties.
func (k SortKey) less() func(a, b Record) bool {
	switch k {
	case SortPriceAsc:
		return func(a, b Record) bool { return a.EffectivePrice() < b.EffectivePrice() }
	case SortPriceDesc:
		return func(a, b Record) bool { return a.EffectivePrice() > b.EffectivePrice() }
	case SortRatingDesc:
		return func(a, b Record) bool { return a.Rating > b.Rating }
	case SortNewest:
		return func(a, b Record) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortPopularity:
		return func(a, b Record) bool { return a.ReviewCount > b.ReviewCount }
	default:
		return nil
	}
}
