// file: internal/openlibrary/openlibrary.go
// version: 2.0.0
// guid: a1b2c3d4-e5f6-7a8b-9c0d-1e2f3a4b5c6d

package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/canonmap/canonmap/internal/cache"
)

// Result is a book resolved against Open Library. A nil CoverURL means no
// acceptable edition carried a cover and callers should treat the stage as
// not found.
type Result struct {
	WorkID           string  `json:"work_id"`
	EditionID        *string `json:"edition_id,omitempty"`
	Title            string  `json:"title"`
	Author           *string `json:"author,omitempty"`
	CoverURL         *string `json:"cover_url,omitempty"`
	WorkURL          string  `json:"work_url"`
	EditionURL       *string `json:"edition_url,omitempty"`
	Format           *string `json:"format,omitempty"`
	FirstPublishYear *int    `json:"first_publish_year,omitempty"`
}

// Client talks to the Open Library search and editions endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	coversBase string
	userAgent  string
	limiter    *rate.Limiter
	cache      cache.Store
}

const (
	editionFetchLimit = 20
	searchLimit       = 10
)

// NewClient creates an Open Library client.
func NewClient() *Client {
	baseURL := os.Getenv("OPENLIBRARY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://openlibrary.org"
	}
	return NewClientWithBaseURL(baseURL)
}

// NewClientWithBaseURL creates a client with a custom base URL (for testing).
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		coversBase: "https://covers.openlibrary.org",
		userAgent:  "canonmap/1.0",
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

// Name returns the display name for this resolution stage.
func (c *Client) Name() string {
	return "Open Library"
}

// SetCache attaches a cache collaborator for search memoization.
func (c *Client) SetCache(store cache.Store) {
	c.cache = store
}

// SetUserAgent overrides the User-Agent header.
func (c *Client) SetUserAgent(ua string) {
	if ua != "" {
		c.userAgent = ua
	}
}

// SetTimeout overrides the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.httpClient.Timeout = d
	}
}

type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	CoverI           int      `json:"cover_i"`
	FirstPublishYear int      `json:"first_publish_year"`
}

type editionsResponse struct {
	Entries []editionEntry `json:"entries"`
}

type editionEntry struct {
	Key            string `json:"key"`
	Covers         []int  `json:"covers"`
	PhysicalFormat string `json:"physical_format"`
}

// FindBook searches by title (plus an optional author hint) and returns the
// first title-matching work with a non-audio covered edition, falling back
// to the first matching work's bare metadata when no edition qualifies.
func (c *Client) FindBook(ctx context.Context, title, author string) (*Result, error) {
	docs, err := c.search(ctx, title, author)
	if err != nil {
		return nil, err
	}

	want := normalizeTitle(title)
	var matching []searchDoc
	for _, doc := range docs {
		if normalizeTitle(doc.Title) == want || normalizeTitle(preColonSegment(doc.Title)) == want {
			matching = append(matching, doc)
		}
	}
	if len(matching) == 0 {
		return nil, nil
	}

	for _, doc := range matching {
		workID := workIDFromKey(doc.Key)
		if workID == "" {
			continue
		}
		edition, err := c.findCoveredEdition(ctx, workID)
		if err != nil {
			log.Printf("[WARN] openlibrary: editions fetch failed for %s: %v", workID, err)
			continue
		}
		if edition != nil {
			res := docToResult(doc, workID, c.baseURL)
			editionID := editionIDFromKey(edition.Key)
			if editionID != "" {
				res.EditionID = &editionID
				editionURL := fmt.Sprintf("%s/books/%s", publicBaseURL(c.baseURL), editionID)
				res.EditionURL = &editionURL
			}
			if edition.PhysicalFormat != "" {
				format := edition.PhysicalFormat
				res.Format = &format
			}
			coverURL := fmt.Sprintf("%s/b/id/%d-L.jpg", c.coversBase, edition.Covers[0])
			res.CoverURL = &coverURL
			return res, nil
		}
	}

	// No work produced an acceptable edition; surface the first match with
	// no cover so the caller can treat it as unresolved.
	first := matching[0]
	workID := workIDFromKey(first.Key)
	if workID == "" {
		return nil, nil
	}
	return docToResult(first, workID, c.baseURL), nil
}

func (c *Client) search(ctx context.Context, title, author string) ([]searchDoc, error) {
	params := url.Values{}
	params.Set("title", title)
	if token := firstAuthorToken(author); token != "" {
		params.Set("author", token)
	}
	params.Set("limit", fmt.Sprintf("%d", searchLimit))

	cacheKey := cache.Key("openlibrary", "search", map[string]any{
		"title":  title,
		"author": firstAuthorToken(author),
	})
	if c.cache != nil {
		if raw, ok := c.cache.Get(cacheKey); ok {
			var cached []searchDoc
			if err := json.Unmarshal(raw, &cached); err == nil {
				log.Printf("[DEBUG] openlibrary: cache hit for %q", title)
				return cached, nil
			}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	searchURL := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search Open Library: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Open Library API returned status %d", resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if c.cache != nil {
		if raw, err := json.Marshal(searchResp.Docs); err == nil {
			c.cache.Set(cacheKey, raw)
		}
	}
	return searchResp.Docs, nil
}

// findCoveredEdition returns the first edition with at least one cover whose
// physical format is not an audio format, or nil when none qualifies.
func (c *Client) findCoveredEdition(ctx context.Context, workID string) (*editionEntry, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	editionsURL := fmt.Sprintf("%s/works/%s/editions.json?limit=%d", c.baseURL, workID, editionFetchLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, editionsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build editions request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch editions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Open Library editions API returned status %d", resp.StatusCode)
	}

	var editionsResp editionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&editionsResp); err != nil {
		return nil, fmt.Errorf("failed to decode editions response: %w", err)
	}

	for i := range editionsResp.Entries {
		entry := &editionsResp.Entries[i]
		if len(entry.Covers) == 0 {
			continue
		}
		if isAudioFormat(entry.PhysicalFormat) {
			continue
		}
		return entry, nil
	}
	return nil, nil
}

func docToResult(doc searchDoc, workID, baseURL string) *Result {
	res := &Result{
		WorkID:  workID,
		Title:   doc.Title,
		WorkURL: fmt.Sprintf("%s/works/%s", publicBaseURL(baseURL), workID),
	}
	if len(doc.AuthorName) > 0 {
		author := doc.AuthorName[0]
		res.Author = &author
	}
	if doc.FirstPublishYear > 0 {
		year := doc.FirstPublishYear
		res.FirstPublishYear = &year
	}
	return res
}

// publicBaseURL keeps generated work/edition URLs pointing at the real site
// even when the API base is overridden for tests.
func publicBaseURL(baseURL string) string {
	if strings.Contains(baseURL, "openlibrary.org") {
		return baseURL
	}
	return "https://openlibrary.org"
}

var audioFormatHints = []string{"audio", "cd", "mp3"}

// isAudioFormat reports whether a physical format denotes an audio edition.
// A missing format is acceptable.
func isAudioFormat(format string) bool {
	if format == "" {
		return false
	}
	lower := strings.ToLower(format)
	for _, hint := range audioFormatHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

var titlePunctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizeTitle lowercases, strips punctuation and collapses whitespace so
// subtitle and punctuation variants of the same title compare equal.
func normalizeTitle(title string) string {
	lower := strings.ToLower(title)
	stripped := titlePunctuation.ReplaceAllString(lower, "")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(stripped, " "))
}

// preColonSegment returns the title up to the first colon, handling
// subtitled editions like "Dune: Deluxe Edition".
func preColonSegment(title string) string {
	if idx := strings.Index(title, ":"); idx >= 0 {
		return title[:idx]
	}
	return title
}

// firstAuthorToken trims an author string to the text before the first
// comma, ampersand or " and ", which disambiguates multi-author credits.
func firstAuthorToken(author string) string {
	token := author
	for _, sep := range []string{",", "&", " and "} {
		if idx := strings.Index(token, sep); idx >= 0 {
			token = token[:idx]
		}
	}
	return strings.TrimSpace(token)
}

func workIDFromKey(key string) string {
	return strings.TrimPrefix(strings.TrimSuffix(key, "/"), "/works/")
}

func editionIDFromKey(key string) string {
	return strings.TrimPrefix(strings.TrimSuffix(key, "/"), "/books/")
}
