// file: internal/openlibrary/openlibrary_test.go
// version: 2.0.0
// guid: b2c3d4e5-f6a7-8b9c-0d1e-2f3a4b5c6d7f

package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Pride and Prejudice", "pride and prejudice"},
		{"Pride & Prejudice!", "pride prejudice"},
		{"  The   Hobbit ", "the hobbit"},
		{"Dune: Messiah", "dune messiah"},
	}
	for _, tc := range cases {
		if got := normalizeTitle(tc.in); got != tc.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFirstAuthorToken(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Jane Austen", "Jane Austen"},
		{"Austen, Jane", "Austen"},
		{"Terry Pratchett & Neil Gaiman", "Terry Pratchett"},
		{"Terry Pratchett and Neil Gaiman", "Terry Pratchett"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := firstAuthorToken(tc.in); got != tc.want {
			t.Errorf("firstAuthorToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsAudioFormat(t *testing.T) {
	audio := []string{"Audio CD", "audiobook", "MP3 CD", "Audible Audio", "CD-ROM"}
	for _, f := range audio {
		if !isAudioFormat(f) {
			t.Errorf("expected %q to read as audio", f)
		}
	}
	nonAudio := []string{"", "Paperback", "Hardcover", "Mass Market Paperback"}
	for _, f := range nonAudio {
		if isAudioFormat(f) {
			t.Errorf("expected %q to be acceptable", f)
		}
	}
}

const prideSearchFixture = `{
  "numFound": 2,
  "docs": [
    {"key": "/works/OL66554W", "title": "Pride and Prejudice", "author_name": ["Jane Austen"], "first_publish_year": 1813, "cover_i": 14348537},
    {"key": "/works/OL99999W", "title": "Pride and Prejudice and Zombies", "author_name": ["Seth Grahame-Smith"], "first_publish_year": 2009}
  ]
}`

const prideEditionsFixture = `{
  "entries": [
    {"key": "/books/OL7058165M", "covers": [8231851], "physical_format": "Audio CD"},
    {"key": "/books/OL7058166M", "physical_format": "Paperback"},
    {"key": "/books/OL7058167M", "covers": [14348537], "physical_format": "Hardcover"}
  ]
}`

func newFixtureServer(t *testing.T, searchBody, editionsBody string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search.json":
			_, _ = w.Write([]byte(searchBody))
		case regexp.MustCompile(`^/works/OL\d+W/editions\.json$`).MatchString(r.URL.Path):
			_, _ = w.Write([]byte(editionsBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestFindBookPicksNonAudioCoveredEdition(t *testing.T) {
	server := newFixtureServer(t, prideSearchFixture, prideEditionsFixture)
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	res, err := client.FindBook(context.Background(), "Pride and Prejudice", "Jane Austen")
	if err != nil {
		t.Fatalf("FindBook failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected a result")
	}

	if !regexp.MustCompile(`^OL\d+W$`).MatchString(res.WorkID) {
		t.Errorf("unexpected work id %q", res.WorkID)
	}
	if res.CoverURL == nil {
		t.Fatal("expected a cover URL")
	}
	// The Audio CD edition has a cover but must be skipped.
	if *res.CoverURL != "https://covers.openlibrary.org/b/id/14348537-L.jpg" {
		t.Errorf("expected the hardcover's cover, got %s", *res.CoverURL)
	}
	if res.EditionID == nil || *res.EditionID != "OL7058167M" {
		t.Errorf("expected edition OL7058167M, got %v", res.EditionID)
	}
	if res.Author == nil || *res.Author != "Jane Austen" {
		t.Errorf("expected author Jane Austen, got %v", res.Author)
	}
	if res.FirstPublishYear == nil || *res.FirstPublishYear != 1813 {
		t.Errorf("expected first publish year 1813, got %v", res.FirstPublishYear)
	}
}

func TestFindBookSubtitledEditionMatchesPreColon(t *testing.T) {
	search := `{
  "numFound": 1,
  "docs": [
    {"key": "/works/OL893415W", "title": "Dune: 40th Anniversary Edition", "author_name": ["Frank Herbert"], "first_publish_year": 1965}
  ]
}`
	editions := `{"entries": [{"key": "/books/OL1M", "covers": [111], "physical_format": "Paperback"}]}`
	server := newFixtureServer(t, search, editions)
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	res, err := client.FindBook(context.Background(), "Dune", "Frank Herbert")
	if err != nil {
		t.Fatalf("FindBook failed: %v", err)
	}
	if res == nil || res.CoverURL == nil {
		t.Fatal("expected subtitled edition to match on the pre-colon segment")
	}
}

func TestFindBookNoTitleMatch(t *testing.T) {
	server := newFixtureServer(t, prideSearchFixture, prideEditionsFixture)
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	res, err := client.FindBook(context.Background(), "Sense and Sensibility", "Jane Austen")
	if err != nil {
		t.Fatalf("FindBook failed: %v", err)
	}
	if res != nil {
		t.Errorf("expected no result for unmatched title, got %+v", res)
	}
}

func TestFindBookFallsBackToBareMetadata(t *testing.T) {
	editions := `{"entries": [
    {"key": "/books/OL2M", "physical_format": "Paperback"},
    {"key": "/books/OL3M", "covers": [999], "physical_format": "Audio CD"}
  ]}`
	server := newFixtureServer(t, prideSearchFixture, editions)
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	res, err := client.FindBook(context.Background(), "Pride and Prejudice", "Jane Austen")
	if err != nil {
		t.Fatalf("FindBook failed: %v", err)
	}
	if res == nil {
		t.Fatal("expected fallback bare metadata")
	}
	if res.CoverURL != nil {
		t.Errorf("expected no cover on fallback, got %s", *res.CoverURL)
	}
	if res.WorkID != "OL66554W" {
		t.Errorf("expected first matching work, got %s", res.WorkID)
	}
	if res.WorkURL != "https://openlibrary.org/works/OL66554W" {
		t.Errorf("unexpected work URL %s", res.WorkURL)
	}
}

func TestFindBookSearchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	if _, err := client.FindBook(context.Background(), "Dune", ""); err == nil {
		t.Fatal("expected error on upstream failure")
	}
}
