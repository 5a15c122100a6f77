// file: internal/heuristic/sources.go
// version: 1.0.0
// guid: e5f6a7b8-c9d0-1e2f-3a4b-6c7d8e9f0a12

package heuristic

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/canonmap/canonmap/internal/entity"
)

// domainSource maps a URL substring to a named source. Checked in order so
// more specific domains can precede general ones.
type domainSource struct {
	domain string
	source string
}

var domainSources = []domainSource{
	{"imdb.com", "imdb"},
	{"wikipedia.org", "wikipedia"},
	{"rottentomatoes.com", "rottentomatoes"},
	{"letterboxd.com", "letterboxd"},
	{"goodreads.com", "goodreads"},
	{"openlibrary.org", "openlibrary"},
	{"store.steampowered.com", "steam"},
	{"boardgamegeek.com", "bgg"},
	{"spotify.com", "spotify"},
	{"music.apple.com", "applemusic"},
	{"bandcamp.com", "bandcamp"},
	{"metacritic.com", "metacritic"},
	{"themoviedb.org", "tmdb"},
}

// ClassifySource names the source a URL belongs to, or "" when the domain is
// not in the table. The AI stage reuses this to attribute its picks.
func ClassifySource(rawURL string) string {
	lower := strings.ToLower(rawURL)
	for _, ds := range domainSources {
		if strings.Contains(lower, ds.domain) {
			return ds.source
		}
	}
	return ""
}

// preferredSources orders sources per category, most authoritative first.
// The first source holding exactly one distinct match wins.
var preferredSources = map[entity.Type][]string{
	entity.TypeMovie:        {"imdb", "wikipedia", "rottentomatoes", "letterboxd"},
	entity.TypeTVShow:       {"imdb", "wikipedia", "rottentomatoes"},
	entity.TypeBook:         {"goodreads", "openlibrary", "wikipedia"},
	entity.TypeVideoGame:    {"steam", "metacritic", "wikipedia"},
	entity.TypePhysicalGame: {"bgg", "wikipedia"},
	entity.TypeAlbum:        {"spotify", "applemusic", "bandcamp", "wikipedia"},
	entity.TypeSong:         {"spotify", "applemusic", "wikipedia"},
	entity.TypePodcast:      {"spotify", "applemusic", "wikipedia"},
	entity.TypeArtist:       {"spotify", "wikipedia"},
	entity.TypeOther:        {"wikipedia"},
}

// PreferredSources returns the category's source priority list.
func PreferredSources(typ entity.Type) []string {
	return preferredSources[typ]
}

// sourceIDPatterns extract the per-source unique id from a URL path, used to
// deduplicate mirror links to the same item.
var sourceIDPatterns = map[string]*regexp.Regexp{
	"imdb":           regexp.MustCompile(`/title/(tt\d+)`),
	"goodreads":      regexp.MustCompile(`/book/show/(\d+)`),
	"bgg":            regexp.MustCompile(`/boardgame/(\d+)`),
	"steam":          regexp.MustCompile(`/app/(\d+)`),
	"spotify":        regexp.MustCompile(`/(?:album|track|artist|show)/([0-9A-Za-z]+)`),
	"wikipedia":      regexp.MustCompile(`/wiki/([^/?#]+)`),
	"letterboxd":     regexp.MustCompile(`/film/([^/?#]+)`),
	"rottentomatoes": regexp.MustCompile(`/(?:m|tv)/([^/?#]+)`),
	"openlibrary":    regexp.MustCompile(`/works/(OL\d+W)`),
	"metacritic":     regexp.MustCompile(`/(?:game|movie|tv)/([^/?#]+)`),
	"applemusic":     regexp.MustCompile(`/(?:album|artist)/[^/?#]+/(\d+)`),
	"tmdb":           regexp.MustCompile(`/(?:movie|tv)/(\d+)`),
}

// SourceID returns the unique item id for a classified URL, falling back to
// the raw URL when no pattern matches.
func SourceID(source, rawURL string) string {
	pattern, ok := sourceIDPatterns[source]
	if !ok {
		return rawURL
	}
	m := pattern.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return rawURL
	}
	return m[1]
}

// canonicalURL reduces a matched URL to its root form: no query or fragment,
// path cut after the id-bearing segment, trailing slash.
func canonicalURL(source, rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""

	path := parsed.Path
	if pattern, ok := sourceIDPatterns[source]; ok {
		if loc := pattern.FindStringIndex(path); loc != nil {
			end := loc[1]
			// Extend through the rest of the id-bearing segment so slug
			// suffixes (e.g. goodreads "/2767052-the-hunger-games") survive.
			for end < len(path) && path[end] != '/' {
				end++
			}
			path = path[:end]
		}
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	parsed.Path = path
	return parsed.String()
}
