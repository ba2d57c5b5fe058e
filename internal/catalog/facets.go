package catalog

import "sort"

// Facets holds the known filterable value sets derived from a record slice.
// The UI filter panel builds its category and vendor choices from these.
type Facets struct {
	Categories []string `json:"categories"`
	Vendors    []string `json:"vendors"`
}

// ExtractFacets collects the distinct categories and vendor IDs present in
// the records, sorted lexicographically for deterministic output.
func ExtractFacets(records []Record) Facets {
	categories := make(map[string]struct{})
	vendors := make(map[string]struct{})
	for _, r := range records {
		if r.Category != "" {
			categories[r.Category] = struct{}{}
		}
		if r.VendorID != "" {
			vendors[r.VendorID] = struct{}{}
		}
	}
	return Facets{
		Categories: sortedKeys(categories),
		Vendors:    sortedKeys(vendors),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
