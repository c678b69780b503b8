package tui

import (
	"cmp"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/finmgr/internal/records"
)

// rankLookup orders lookup results for the picker: exact matches, then
// prefixes, then substrings, then the rest; ties by edit distance. An empty
// query keeps the backend order.
func rankLookup(items []records.LookupItem, query string) []records.LookupItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(items) < 2 {
		return items
	}
	type scored struct {
		item records.LookupItem
		tier int
		dist int
	}
	ranked := make([]scored, len(items))
	for i, it := range items {
		name := strings.ToLower(it.Name)
		tier := 3
		switch {
		case name == q:
			tier = 0
		case strings.HasPrefix(name, q):
			tier = 1
		case strings.Contains(name, q):
			tier = 2
		}
		ranked[i] = scored{item: it, tier: tier, dist: levenshtein.ComputeDistance(name, q)}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		if c := cmp.Compare(a.tier, b.tier); c != 0 {
			return c
		}
		return cmp.Compare(a.dist, b.dist)
	})
	out := make([]records.LookupItem, len(ranked))
	for i, r := range ranked {
		out[i] = r.item
	}
	return out
}
