// file: internal/wikidata/ranking.go
// version: 1.0.0
// guid: 2b3c4d5e-6f7a-8b9c-0d1e-3f4a5b6c7d8e

package wikidata

import "strings"

// Title score bands and the zero-sitelinks penalty are empirically tuned
// values, kept tunable here rather than spread through the ranking logic.
const (
	titleScoreExact     = 100
	titleScorePrefix    = 80
	titleScoreQueryPfx  = 60
	titleScoreSubstring = 40

	sitelinksZeroPenalty = -500
	sitelinksMax         = 100

	titleScoreWeight = 10
)

// titleScore rates how well a candidate label matches the query.
func titleScore(label, query string) int {
	l := strings.ToLower(strings.TrimSpace(label))
	q := strings.ToLower(strings.TrimSpace(query))
	switch {
	case l == q:
		return titleScoreExact
	case strings.HasPrefix(l, q):
		return titleScorePrefix
	case strings.HasPrefix(q, l):
		return titleScoreQueryPfx
	case strings.Contains(l, q) || strings.Contains(q, l):
		return titleScoreSubstring
	default:
		return 0
	}
}

// sitelinksScore converts a sitelinks count into a popularity score. A
// present-and-zero count is penalized hard; an absent count is neutral.
func sitelinksScore(sitelinks *int) int {
	if sitelinks == nil {
		return 0
	}
	if *sitelinks == 0 {
		return sitelinksZeroPenalty
	}
	if *sitelinks > sitelinksMax {
		return sitelinksMax
	}
	return *sitelinks
}

// combinedScore ranks a candidate for the query. External ids never factor
// in; they are enrichment attached after the winner is chosen.
func combinedScore(r *Result, query string) int {
	return titleScore(r.Label, query)*titleScoreWeight + sitelinksScore(r.Sitelinks)
}

// BestMatch selects the highest-scoring candidate, breaking ties by original
// order. Returns nil for an empty candidate set.
func BestMatch(candidates []Result, query string) *Result {
	if len(candidates) == 0 {
		return nil
	}
	bestIdx := 0
	bestScore := combinedScore(&candidates[0], query)
	for i := 1; i < len(candidates); i++ {
		if score := combinedScore(&candidates[i], query); score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}
	winner := candidates[bestIdx]
	return &winner
}
