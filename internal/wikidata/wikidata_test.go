// file: internal/wikidata/wikidata_test.go
// version: 1.1.0
// guid: 3c4d5e6f-7a8b-9c0d-1e2f-4a5b6c7d8e9f

package wikidata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/canonmap/canonmap/internal/cache"
	"github.com/canonmap/canonmap/internal/entity"
)

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

func TestTitleScoreBands(t *testing.T) {
	cases := []struct {
		label, query string
		want         int
	}{
		{"The Matrix", "the matrix", 100},
		{"The Matrix Reloaded", "The Matrix", 80},
		{"Matrix", "Matrix Revolutions", 60},
		{"Enter the Matrix Online", "the matrix", 40},
		{"Inception", "The Matrix", 0},
	}
	for _, tc := range cases {
		if got := titleScore(tc.label, tc.query); got != tc.want {
			t.Errorf("titleScore(%q, %q) = %d, want %d", tc.label, tc.query, got, tc.want)
		}
	}
}

func TestSitelinksScore(t *testing.T) {
	if got := sitelinksScore(nil); got != 0 {
		t.Errorf("absent sitelinks should be neutral, got %d", got)
	}
	if got := sitelinksScore(intPtr(0)); got != -500 {
		t.Errorf("zero sitelinks should be penalized, got %d", got)
	}
	if got := sitelinksScore(intPtr(40)); got != 40 {
		t.Errorf("expected 40, got %d", got)
	}
	if got := sitelinksScore(intPtr(250)); got != 100 {
		t.Errorf("expected cap at 100, got %d", got)
	}
}

func TestBestMatchExactBeatsPrefixAtEqualSitelinks(t *testing.T) {
	candidates := []Result{
		{QID: "Q1", Label: "The Matrix Reloaded", Sitelinks: intPtr(50)},
		{QID: "Q2", Label: "The Matrix", Sitelinks: intPtr(50)},
	}
	best := BestMatch(candidates, "The Matrix")
	if best == nil || best.QID != "Q2" {
		t.Fatalf("expected exact match Q2 to win, got %+v", best)
	}
}

func TestBestMatchZeroSitelinksNeverOutranksPopular(t *testing.T) {
	candidates := []Result{
		{QID: "Q1", Label: "The Matrix", Sitelinks: intPtr(0)},
		{QID: "Q2", Label: "The Matrix Reloaded", Sitelinks: intPtr(30)},
	}
	best := BestMatch(candidates, "The Matrix")
	if best == nil || best.QID != "Q2" {
		t.Fatalf("expected the -500 floor to sink Q1, got %+v", best)
	}
}

func TestBestMatchStableTieBreak(t *testing.T) {
	candidates := []Result{
		{QID: "Q1", Label: "Dune", Sitelinks: intPtr(20)},
		{QID: "Q2", Label: "Dune", Sitelinks: intPtr(20)},
	}
	best := BestMatch(candidates, "Dune")
	if best == nil || best.QID != "Q1" {
		t.Fatalf("expected first candidate on tie, got %+v", best)
	}
}

func TestBestMatchEmpty(t *testing.T) {
	if best := BestMatch(nil, "anything"); best != nil {
		t.Errorf("expected nil for empty candidates, got %+v", best)
	}
}

func TestLabelFromArticleURL(t *testing.T) {
	got := labelFromArticleURL(strPtr("https://en.wikipedia.org/wiki/Blood_on_the_Clocktower"))
	if got != "Blood on the Clocktower" {
		t.Errorf("unexpected label %q", got)
	}
	got = labelFromArticleURL(strPtr("https://en.wikipedia.org/wiki/Am%C3%A9lie"))
	if got != "Amélie" {
		t.Errorf("unexpected decoded label %q", got)
	}
	if got := labelFromArticleURL(nil); got != "" {
		t.Errorf("expected empty label without article, got %q", got)
	}
}

func TestParseBindingsRepairsQIDLabels(t *testing.T) {
	bindings := []map[string]sparqlValue{
		{
			"item":      {Value: "http://www.wikidata.org/entity/Q105458212"},
			"itemLabel": {Value: "Q105458212"},
			"article":   {Value: "https://en.wikipedia.org/wiki/Blood_on_the_Clocktower"},
		},
		{
			"item":      {Value: "http://www.wikidata.org/entity/Q99999999"},
			"itemLabel": {Value: "Q99999999"},
		},
	}
	results := parseBindings(bindings)
	if len(results) != 1 {
		t.Fatalf("expected one surviving candidate, got %d", len(results))
	}
	if results[0].Label != "Blood on the Clocktower" {
		t.Errorf("expected repaired label, got %q", results[0].Label)
	}
}

func TestParseBindingsMergesRowsAndValidatesIDs(t *testing.T) {
	bindings := []map[string]sparqlValue{
		{
			"item":      {Value: "http://www.wikidata.org/entity/Q83495"},
			"itemLabel": {Value: "The Matrix"},
			"sitelinks": {Value: "90"},
			"id_imdb":   {Value: "tt0133093"},
		},
		{
			"item":      {Value: "http://www.wikidata.org/entity/Q83495"},
			"itemLabel": {Value: "The Matrix"},
			"sitelinks": {Value: "90"},
			"id_tmdb":   {Value: "603"},
		},
		{
			"item":      {Value: "http://www.wikidata.org/entity/Q83495"},
			"itemLabel": {Value: "The Matrix"},
			"id_imdb":   {Value: "garbage"},
		},
	}
	results := parseBindings(bindings)
	if len(results) != 1 {
		t.Fatalf("expected merged single candidate, got %d", len(results))
	}
	r := results[0]
	if r.ExternalIDs[entity.IDIMDB] != "tt0133093" {
		t.Errorf("expected imdb id preserved, got %q", r.ExternalIDs[entity.IDIMDB])
	}
	if r.ExternalIDs[entity.IDTMDB] != "603" {
		t.Errorf("expected tmdb id merged in, got %q", r.ExternalIDs[entity.IDTMDB])
	}
	if r.Sitelinks == nil || *r.Sitelinks != 90 {
		t.Errorf("expected sitelinks 90, got %v", r.Sitelinks)
	}
}

func TestBuildSPARQLRestrictsKnownTypes(t *testing.T) {
	q := buildSPARQL("Blood on the Clocktower", entity.TypePhysicalGame)
	if !strings.Contains(q, "wd:Q131436") {
		t.Error("expected board game class restriction")
	}
	if !strings.Contains(q, `mwapi:search "Blood on the Clocktower"`) {
		t.Error("expected fuzzy search term")
	}
	if !strings.Contains(q, "wdt:P2339") {
		t.Error("expected bgg external id binding")
	}

	unrestricted := buildSPARQL("Someone", entity.TypeOther)
	if strings.Contains(unrestricted, "VALUES ?class") {
		t.Error("expected no class restriction for type other")
	}
}

func TestBuildSPARQLEscapesQuotes(t *testing.T) {
	q := buildSPARQL(`The "Word"`, entity.TypeBook)
	if !strings.Contains(q, `mwapi:search "The \"Word\""`) {
		t.Errorf("expected escaped quotes, got query:\n%s", q)
	}
}

const matrixFixture = `{
  "results": {
    "bindings": [
      {
        "item": {"type": "uri", "value": "http://www.wikidata.org/entity/Q83495"},
        "itemLabel": {"type": "literal", "value": "The Matrix"},
        "itemDescription": {"type": "literal", "value": "1999 science fiction film"},
        "sitelinks": {"type": "literal", "value": "98"},
        "image": {"type": "uri", "value": "http://commons.wikimedia.org/wiki/Special:FilePath/The.Matrix.glmatrix.2.png"},
        "article": {"type": "uri", "value": "https://en.wikipedia.org/wiki/The_Matrix"},
        "id_imdb": {"type": "literal", "value": "tt0133093"}
      },
      {
        "item": {"type": "uri", "value": "http://www.wikidata.org/entity/Q189540"},
        "itemLabel": {"type": "literal", "value": "The Matrix Reloaded"},
        "sitelinks": {"type": "literal", "value": "70"}
      }
    ]
  }
}`

func TestLookupAgainstFixture(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/sparql" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("expected format=json, got %q", r.URL.Query().Get("format"))
		}
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("expected a User-Agent header")
		}
		_, _ = w.Write([]byte(matrixFixture))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	client.SetCache(cache.NewMemory(time.Minute))

	best, err := client.Lookup(context.Background(), "The Matrix", entity.TypeMovie)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if best == nil {
		t.Fatal("expected a candidate")
	}
	if best.QID != "Q83495" {
		t.Errorf("expected Q83495, got %s", best.QID)
	}
	if best.ExternalIDs[entity.IDIMDB] != "tt0133093" {
		t.Errorf("expected imdb external id, got %v", best.ExternalIDs)
	}
	if best.WikipediaURL == nil {
		t.Error("expected wikipedia article URL")
	}

	// Second lookup is served from cache.
	if _, err := client.Lookup(context.Background(), "The Matrix", entity.TypeMovie); err != nil {
		t.Fatalf("cached Lookup failed: %v", err)
	}
	if requests != 1 {
		t.Errorf("expected exactly one upstream request, got %d", requests)
	}
}

func TestLookupErrorOnServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	if _, err := client.Lookup(context.Background(), "anything", entity.TypeMovie); err == nil {
		t.Fatal("expected error on 500 response")
	}
}
