// file: internal/heuristic/matcher.go
// version: 1.0.0
// guid: f6a7b8c9-d0e1-2f3a-4b5c-7d8e9f0a1b23

package heuristic

import (
	"log"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/canonmap/canonmap/internal/entity"
	"github.com/canonmap/canonmap/internal/gsearch"
)

// Match is an unambiguous resolution found without AI.
type Match struct {
	Title        string      `json:"title"`
	Category     entity.Type `json:"category"`
	URL          string      `json:"url"`
	Source       string      `json:"source"`
	MatchedTitle string      `json:"matched_title"`
}

// Deferred is a query whose search results were ambiguous under the rules
// and must be ranked by the AI stage.
type Deferred struct {
	Title    string           `json:"title"`
	Category entity.Type      `json:"category"`
	Results  []gsearch.Result `json:"results"`
}

// fillerWords are articles, prepositions and conjunctions dropped during
// normalization.
var fillerWords = map[string]bool{
	"the": true, "a": true, "an": true,
	"and": true, "or": true, "but": true, "nor": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "from": true, "by": true, "as": true,
}

// CategoryHintWords are stripped from the query before the containment
// check. Kept as data so the list can grow without touching the matcher.
var CategoryHintWords = []string{
	"film", "book", "movie", "tv", "series", "game", "album", "song",
}

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

const punctuationClass = `!"#$%&'()*+,-./:;<=>?@[\]^_{|}~` + "`"

// ContentWords normalizes a string into its significant lowercase words:
// diacritics and punctuation stripped, fillers and 1-character tokens
// dropped.
func ContentWords(s string) []string {
	lower := strings.ToLower(s)
	if folded, _, err := transform.String(stripDiacritics, lower); err == nil {
		lower = folded
	}
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuationClass, r) {
			return ' '
		}
		return r
	}, lower)

	var words []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) <= 1 || fillerWords[w] {
			continue
		}
		words = append(words, w)
	}
	return words
}

// queryWords builds the hint-stripped content-word set for the query side of
// the containment check.
func queryWords(query string) []string {
	hints := make(map[string]bool, len(CategoryHintWords))
	for _, h := range CategoryHintWords {
		hints[h] = true
	}
	var words []string
	for _, w := range ContentWords(query) {
		if hints[w] {
			continue
		}
		words = append(words, w)
	}
	return words
}

// titleContainsQuery reports whether every query content word appears among
// the result title's content words. The reverse is not required.
func titleContainsQuery(query []string, title string) bool {
	if len(query) == 0 {
		return false
	}
	titleSet := make(map[string]bool)
	for _, w := range ContentWords(title) {
		titleSet[w] = true
	}
	for _, w := range query {
		if !titleSet[w] {
			return false
		}
	}
	return true
}

type acceptedResult struct {
	result gsearch.Result
	source string
	itemID string
}

// Resolve applies the rule-based pipeline to the search results. Exactly one
// of the return values is non-nil: a Match when one preferred source holds
// exactly one distinct item, otherwise a Deferred carrying the results for
// the AI stage.
func Resolve(query string, typ entity.Type, results []gsearch.Result) (*Match, *Deferred) {
	defer1 := &Deferred{Title: query, Category: typ, Results: results}

	priority := PreferredSources(typ)
	if len(priority) == 0 {
		return nil, defer1
	}
	inPriority := make(map[string]bool, len(priority))
	for _, s := range priority {
		inPriority[s] = true
	}

	words := queryWords(query)

	var accepted []acceptedResult
	for _, res := range results {
		source := ClassifySource(res.URL)
		if source == "" || !inPriority[source] {
			continue
		}
		if !titleContainsQuery(words, res.Title) {
			continue
		}
		accepted = append(accepted, acceptedResult{
			result: res,
			source: source,
			itemID: SourceID(source, res.URL),
		})
	}

	// Deduplicate mirrors of the same item, then walk the priority list.
	type groupKey struct{ source, id string }
	groups := make(map[groupKey]acceptedResult)
	var order []groupKey
	for _, a := range accepted {
		key := groupKey{a.source, a.itemID}
		if _, seen := groups[key]; !seen {
			groups[key] = a
			order = append(order, key)
		}
	}

	for _, source := range priority {
		var items []acceptedResult
		for _, key := range order {
			if key.source == source {
				items = append(items, groups[key])
			}
		}
		switch len(items) {
		case 0:
			continue
		case 1:
			match := &Match{
				Title:        query,
				Category:     typ,
				URL:          canonicalURL(source, items[0].result.URL),
				Source:       source,
				MatchedTitle: items[0].result.Title,
			}
			return match, nil
		default:
			// Multiple distinct items on the most authoritative source that
			// has any: never guess among them.
			log.Printf("[DEBUG] heuristic: %q ambiguous on %s (%d items), deferring", query, source, len(items))
			return nil, defer1
		}
	}

	return nil, defer1
}
