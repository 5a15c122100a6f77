// file: internal/heuristic/matcher_test.go
// version: 1.0.0
// guid: b8c9d0e1-f2a3-4b5c-6d7e-9f0a1b2c3d45

package heuristic

import (
	"reflect"
	"testing"

	"github.com/canonmap/canonmap/internal/entity"
	"github.com/canonmap/canonmap/internal/gsearch"
)

func TestContentWords(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"The Matrix", []string{"matrix"}},
		{"The Lord of the Rings", []string{"lord", "rings"}},
		{"Amélie", []string{"amelie"}},
		{"Pride & Prejudice", []string{"pride", "prejudice"}},
		{"A I", nil},
	}
	for _, tc := range cases {
		if got := ContentWords(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ContentWords(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestQueryWordsDropsCategoryHints(t *testing.T) {
	got := queryWords("The Matrix film")
	if !reflect.DeepEqual(got, []string{"matrix"}) {
		t.Errorf("expected hint word dropped, got %v", got)
	}
}

func TestClassifySource(t *testing.T) {
	cases := []struct{ url, want string }{
		{"https://www.imdb.com/title/tt0133093/", "imdb"},
		{"https://en.wikipedia.org/wiki/The_Matrix", "wikipedia"},
		{"https://store.steampowered.com/app/1086940/", "steam"},
		{"https://boardgamegeek.com/boardgame/240980/blood-clocktower", "bgg"},
		{"https://www.goodreads.com/book/show/2767052", "goodreads"},
		{"https://example.com/thing", ""},
	}
	for _, tc := range cases {
		if got := ClassifySource(tc.url); got != tc.want {
			t.Errorf("ClassifySource(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestCanonicalURL(t *testing.T) {
	cases := []struct{ source, in, want string }{
		{"imdb", "https://www.imdb.com/title/tt0133093/?ref_=fn_al_tt_1", "https://www.imdb.com/title/tt0133093/"},
		{"imdb", "https://www.imdb.com/title/tt0133093/fullcredits", "https://www.imdb.com/title/tt0133093/"},
		{"goodreads", "https://www.goodreads.com/book/show/2767052-the-hunger-games?ac=1#reviews", "https://www.goodreads.com/book/show/2767052-the-hunger-games/"},
		{"bgg", "https://boardgamegeek.com/boardgame/240980/blood-clocktower", "https://boardgamegeek.com/boardgame/240980/"},
		{"bandcamp", "https://artist.bandcamp.com/album/x?from=search", "https://artist.bandcamp.com/album/x/"},
	}
	for _, tc := range cases {
		if got := canonicalURL(tc.source, tc.in); got != tc.want {
			t.Errorf("canonicalURL(%s, %q) = %q, want %q", tc.source, tc.in, got, tc.want)
		}
	}
}

func TestResolveSingleIMDbMatch(t *testing.T) {
	results := []gsearch.Result{
		{Title: "The Matrix (1999) - IMDb", URL: "https://www.imdb.com/title/tt0133093/?ref_=x"},
		{Title: "Matrix chain multiplication", URL: "https://example.com/matrix-math"},
	}
	match, deferred := Resolve("The Matrix", entity.TypeMovie, results)
	if deferred != nil {
		t.Fatalf("expected a match, got deferred %+v", deferred)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Source != "imdb" {
		t.Errorf("expected source imdb, got %s", match.Source)
	}
	if match.URL != "https://www.imdb.com/title/tt0133093/" {
		t.Errorf("expected canonical URL, got %s", match.URL)
	}
	if match.MatchedTitle != "The Matrix (1999) - IMDb" {
		t.Errorf("unexpected matched title %q", match.MatchedTitle)
	}
}

func TestResolveDeduplicatesMirrors(t *testing.T) {
	// Same IMDb id through two URL variants still counts as one item.
	results := []gsearch.Result{
		{Title: "The Matrix (1999) - IMDb", URL: "https://www.imdb.com/title/tt0133093/"},
		{Title: "The Matrix (1999) - IMDb", URL: "https://www.imdb.com/title/tt0133093/?ref_=nv_sr_srsg_0"},
	}
	match, _ := Resolve("The Matrix", entity.TypeMovie, results)
	if match == nil {
		t.Fatal("expected mirrors to collapse into a single match")
	}
}

func TestResolveAmbiguousDefers(t *testing.T) {
	results := []gsearch.Result{
		{Title: "Dune by Frank Herbert", URL: "https://www.goodreads.com/book/show/44767458-dune"},
		{Title: "Dune Messiah (Dune #2)", URL: "https://www.goodreads.com/book/show/44492285-dune-messiah"},
	}
	match, deferred := Resolve("Dune", entity.TypeBook, results)
	if match != nil {
		t.Fatalf("expected deferral, got arbitrary pick %+v", match)
	}
	if deferred == nil {
		t.Fatal("expected deferred item")
	}
	if deferred.Title != "Dune" || len(deferred.Results) != 2 {
		t.Errorf("unexpected deferred payload %+v", deferred)
	}
}

func TestResolveAmbiguityBlocksLowerPriority(t *testing.T) {
	// Two distinct imdb items defer even though wikipedia has exactly one.
	results := []gsearch.Result{
		{Title: "Dune (2021) - IMDb", URL: "https://www.imdb.com/title/tt1160419/"},
		{Title: "Dune (1984) - IMDb", URL: "https://www.imdb.com/title/tt0087182/"},
		{Title: "Dune (2021 film) - Wikipedia", URL: "https://en.wikipedia.org/wiki/Dune_(2021_film)"},
	}
	match, deferred := Resolve("Dune", entity.TypeMovie, results)
	if match != nil {
		t.Fatalf("expected deferral, got %+v", match)
	}
	if deferred == nil {
		t.Fatal("expected deferred item")
	}
}

func TestResolveNoPreferredSourceDefers(t *testing.T) {
	results := []gsearch.Result{
		{Title: "The Matrix fan forum", URL: "https://forum.example.com/matrix"},
	}
	match, deferred := Resolve("The Matrix", entity.TypeMovie, results)
	if match != nil || deferred == nil {
		t.Fatal("expected deferral when no preferred source matches")
	}
}

func TestResolveRequiresAllQueryWords(t *testing.T) {
	results := []gsearch.Result{
		{Title: "The Matrix Reloaded (2003) - IMDb", URL: "https://www.imdb.com/title/tt0234215/"},
	}
	// Query words {matrix} ⊆ title words, so this matches even though the
	// result title has extra words.
	if match, _ := Resolve("The Matrix", entity.TypeMovie, results); match == nil {
		t.Error("query ⊆ title should match")
	}

	miss := []gsearch.Result{
		{Title: "Reloaded (2003) - IMDb", URL: "https://www.imdb.com/title/tt0234215/"},
	}
	if match, _ := Resolve("Matrix Reloaded", entity.TypeMovie, miss); match != nil {
		t.Error("missing query word should not match")
	}
}

func TestCollapseDeferred(t *testing.T) {
	items := []Deferred{
		{Title: "Blood on the Clocktower", Category: entity.TypePhysicalGame},
		{Title: "blood on the clock tower", Category: entity.TypePhysicalGame},
		{Title: "Blood on the Clocktower", Category: entity.TypeBook},
	}
	out := CollapseDeferred(items)
	if len(out) != 2 {
		t.Fatalf("expected 2 after collapse, got %d: %+v", len(out), out)
	}
	if out[0].Title != "Blood on the Clocktower" || out[0].Category != entity.TypePhysicalGame {
		t.Errorf("expected first occurrence kept, got %+v", out[0])
	}
}
