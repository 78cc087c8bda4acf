package catalog

import (
	"sort"
	"strings"
)

// Suggest returns up to max catalog names ranked by similarity to query.
// Similarity is the length of the longest common substring between the
// lower-cased query and item name, normalized by the longer of the two.
// Ties resolve to catalog declaration order, so suggestions are
// deterministic across runs.
func (c *Catalog) Suggest(query string, max int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || max <= 0 {
		return nil
	}

	type candidate struct {
		pos   int
		name  string
		score float64
	}

	var ranked []candidate
	for i, it := range c.items {
		name := strings.ToLower(it.Name)
		lcs := longestCommonSubstring(q, name)
		denom := len(q)
		if len(name) > denom {
			denom = len(name)
		}
		score := float64(lcs) / float64(denom)
		// Require at least a 3-character overlap (or the whole query for
		// short queries) so unrelated names never surface.
		minOverlap := 3
		if len(q) < minOverlap {
			minOverlap = len(q)
		}
		if lcs < minOverlap {
			continue
		}
		ranked = append(ranked, candidate{pos: i, name: it.Name, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].pos < ranked[j].pos
	})

	if len(ranked) > max {
		ranked = ranked[:max]
	}
	out := make([]string, len(ranked))
	for i, cand := range ranked {
		out[i] = cand.name
	}
	return out
}

// longestCommonSubstring returns the length of the longest contiguous
// substring shared by a and b.
func longestCommonSubstring(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	best := 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > best {
					best = curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return best
}
