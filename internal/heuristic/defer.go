// file: internal/heuristic/defer.go
// version: 1.0.0
// guid: a7b8c9d0-e1f2-3a4b-5c6d-8e9f0a1b2c34

package heuristic

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// CollapseDeferred merges deferred items of the same category whose
// normalized titles fuzzy-match, keeping the first occurrence as the
// representative. Chat exports repeat the same suggestion with small
// spelling variations; collapsing them saves one AI call per duplicate.
func CollapseDeferred(items []Deferred) []Deferred {
	var out []Deferred
	for _, item := range items {
		merged := false
		for i := range out {
			if out[i].Category != item.Category {
				continue
			}
			if similarTitles(out[i].Title, item.Title) {
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, item)
		}
	}
	return out
}

// similarTitles reports whether two titles normalize to the same content
// words or one reads as a fuzzy rendering of the other.
func similarTitles(a, b string) bool {
	na := strings.Join(ContentWords(a), " ")
	nb := strings.Join(ContentWords(b), " ")
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return fuzzy.MatchNormalizedFold(na, nb) || fuzzy.MatchNormalizedFold(nb, na)
}
