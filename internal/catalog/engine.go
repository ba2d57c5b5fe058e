package catalog

import (
	"sort"
	"strings"
)

// Evaluate produces the ordered result set for the given inputs:
// text search, then filtering, then sorting. The input slice is never
// mutated and the output is deterministic for identical inputs.
// An empty result is a valid outcome, not an error.
func Evaluate(records []Record, filter Filter, key SortKey, query string) []Record {
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if query != "" && !matchesQuery(r, query) {
			continue
		}
		if !filter.Matches(r) {
			continue
		}
		out = append(out, r)
	}

	if less := key.less(); less != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return less(out[i], out[j])
		})
	}
	return out
}

// Window returns the half-open page slice [page*size, page*size+size) of rs,
// clamped to the available records. Page indexes start at 0.
func Window(rs []Record, page, size int) []Record {
	if page < 0 || size <= 0 {
		return []Record{}
	}
	start := page * size
	if start >= len(rs) {
		return []Record{}
	}
	end := start + size
	if end > len(rs) {
		end = len(rs)
	}
	return rs[start:end]
}

// matchesQuery reports whether the lowercased query occurs in any of the
// record's searchable text fields.
func matchesQuery(r Record, query string) bool {
	return strings.Contains(strings.ToLower(r.Name), query) ||
		strings.Contains(strings.ToLower(r.VendorName), query) ||
		strings.Contains(strings.ToLower(r.Description), query)
}
