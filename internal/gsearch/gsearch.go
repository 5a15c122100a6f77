// file: internal/gsearch/gsearch.go
// version: 1.0.0
// guid: c3d4e5f6-a7b8-9c0d-1e2f-4a5b6c7d8e90

package gsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/canonmap/canonmap/internal/cache"
	"github.com/canonmap/canonmap/internal/entity"
)

// Result is one web search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet *string `json:"snippet,omitempty"`
}

// Client wraps the programmable web search REST endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	engineID   string
	limiter    *rate.Limiter
	cache      cache.Store
}

const maxResults = 5

// categoryHints qualify a raw title with a domain word so the search engine
// disambiguates e.g. the film "Dune" from the spice.
var categoryHints = map[entity.Type]string{
	entity.TypeMovie:        "film",
	entity.TypeTVShow:       "tv series",
	entity.TypeBook:         "book",
	entity.TypeVideoGame:    "video game",
	entity.TypePhysicalGame: "board game",
	entity.TypeAlbum:        "album",
	entity.TypeSong:         "song",
	entity.TypePodcast:      "podcast",
	entity.TypeArtist:       "artist",
}

// NewClient creates a search client. Searches fail until credentials are set.
func NewClient(apiKey, engineID string) *Client {
	baseURL := os.Getenv("GOOGLE_SEARCH_BASE_URL")
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/customsearch/v1"
	}
	return NewClientWithBaseURL(baseURL, apiKey, engineID)
}

// NewClientWithBaseURL creates a client with a custom base URL (for testing).
func NewClientWithBaseURL(baseURL, apiKey, engineID string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		engineID:   engineID,
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

// Name returns the display name for this resolution stage.
func (c *Client) Name() string {
	return "Google Search"
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.engineID != ""
}

// SetCache attaches a cache collaborator for search memoization.
func (c *Client) SetCache(store cache.Store) {
	c.cache = store
}

// SetTimeout overrides the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.httpClient.Timeout = d
	}
}

// BuildQuery appends the category hint for the entity type, or the author
// for books when one is known.
func BuildQuery(query string, typ entity.Type, author string) string {
	if typ == entity.TypeBook && author != "" {
		return query + " " + author
	}
	if hint, ok := categoryHints[typ]; ok {
		return query + " " + hint
	}
	return query
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Search issues one category-qualified request capped at 5 results. Network
// and HTTP failures surface as errors; the orchestrator treats them the same
// as zero results.
func (c *Client) Search(ctx context.Context, query string, typ entity.Type, author string) ([]Result, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("web search credentials not configured")
	}

	q := BuildQuery(query, typ, author)

	cacheKey := cache.Key("google", "search", map[string]any{"q": q})
	if c.cache != nil {
		if raw, ok := c.cache.Get(cacheKey); ok {
			var cached []Result
			if err := json.Unmarshal(raw, &cached); err == nil {
				log.Printf("[DEBUG] gsearch: cache hit for %q", q)
				return cached, nil
			}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", q)
	params.Set("num", fmt.Sprintf("%d", maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search API returned status %d", resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]Result, 0, len(searchResp.Items))
	for _, item := range searchResp.Items {
		if len(results) >= maxResults {
			break
		}
		res := Result{Title: item.Title, URL: item.Link}
		if item.Snippet != "" {
			snippet := item.Snippet
			res.Snippet = &snippet
		}
		results = append(results, res)
	}

	if c.cache != nil {
		if raw, err := json.Marshal(results); err == nil {
			c.cache.Set(cacheKey, raw)
		}
	}
	return results, nil
}
