package catalog

// Filter is a composite of independent predicates. An inactive predicate
// (empty set, unset bound, zero threshold) always passes; a record survives
// iff it satisfies every active predicate.
type Filter struct {
	// Categories restricts results to the given category tags.
	// Empty means no category restriction.
	Categories []string `json:"categories,omitempty"`
	// Vendors restricts results to the given vendor IDs.
	// Empty means no vendor restriction.
	Vendors []string `json:"vendors,omitempty"`
	// MinPrice and MaxPrice bound the effective price, in cents.
	// A nil bound is unset. MinPrice > MaxPrice is treated as unbounded.
	MinPrice *int64 `json:"minPrice,omitempty"`
	MaxPrice *int64 `json:"maxPrice,omitempty"`
	// MinRating is the minimum rating threshold; 0 disables the predicate.
	MinRating float64 `json:"minRating,omitempty"`
	// InStock keeps only records with stock > 0.
	InStock bool `json:"inStock,omitempty"`
	// OnSale keeps only records with a valid sale price.
	OnSale bool `json:"onSale,omitempty"`
}

// normalized returns a copy of the filter with a malformed price range
// (min > max) relaxed to unbounded. Malformed input is recovered locally,
// never surfaced as an error.
func (f Filter) normalized() Filter {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		f.MinPrice = nil
		f.MaxPrice = nil
	}
	return f
}

// Matches reports whether the record satisfies every active predicate.
func (f Filter) Matches(r Record) bool {
	f = f.normalized()
	if len(f.Categories) > 0 && !contains(f.Categories, r.Category) {
		return false
	}
	if len(f.Vendors) > 0 && !contains(f.Vendors, r.VendorID) {
		return false
	}
	price := r.EffectivePrice()
	if f.MinPrice != nil && price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && price > *f.MaxPrice {
		return false
	}
	if f.MinRating > 0 && r.Rating < f.MinRating {
		return false
	}
	if f.InStock && !r.InStock() {
		return false
	}
	if f.OnSale && !r.OnSale() {
		return false
	}
	return true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
