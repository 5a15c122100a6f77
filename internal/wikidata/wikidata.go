// file: internal/wikidata/wikidata.go
// version: 1.1.0
// guid: 1a2b3c4d-5e6f-7a8b-9c0d-2f3a4b5c6d7e

package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/canonmap/canonmap/internal/cache"
	"github.com/canonmap/canonmap/internal/entity"
)

// Result is one candidate item returned by a Wikidata lookup. Sitelinks is
// nil when the binding was absent, which ranks differently from a present
// zero.
type Result struct {
	QID          string                           `json:"qid"`
	Label        string                           `json:"label"`
	Description  *string                          `json:"description,omitempty"`
	ImageURL     *string                          `json:"image_url,omitempty"`
	WikipediaURL *string                          `json:"wikipedia_url,omitempty"`
	ExternalIDs  map[entity.ExternalIDType]string `json:"external_ids,omitempty"`
	Sitelinks    *int                             `json:"sitelinks,omitempty"`
}

// Client queries the Wikidata SPARQL endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	cache      cache.Store
}

const defaultUserAgent = "canonmap/1.0 (entity resolution; respect crawl etiquette)"

var qidLabelPattern = regexp.MustCompile(`^Q[0-9]+$`)

// NewClient creates a SPARQL client against the public query service.
func NewClient() *Client {
	baseURL := os.Getenv("WIKIDATA_SPARQL_BASE_URL")
	if baseURL == "" {
		baseURL = "https://query.wikidata.org"
	}
	return NewClientWithBaseURL(baseURL)
}

// NewClientWithBaseURL creates a client with a custom base URL (for testing).
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  defaultUserAgent,
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

// Name returns the display name for this resolution stage.
func (c *Client) Name() string {
	return "Wikidata"
}

// SetCache attaches a cache collaborator for SPARQL response memoization.
func (c *Client) SetCache(store cache.Store) {
	c.cache = store
}

// SetUserAgent overrides the User-Agent sent to the query service.
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

// Lookup searches Wikidata for the query, restricted to the entity type's
// class QIDs when known, and returns the best-ranked candidate or nil when
// nothing usable came back.
func (c *Client) Lookup(ctx context.Context, query string, typ entity.Type) (*Result, error) {
	candidates, err := c.Search(ctx, query, typ)
	if err != nil {
		return nil, err
	}
	return BestMatch(candidates, query), nil
}

// Search runs the SPARQL query and returns all valid candidates in response
// order.
func (c *Client) Search(ctx context.Context, query string, typ entity.Type) ([]Result, error) {
	cacheKey := cache.Key("wikidata", "sparql", map[string]any{
		"query": query,
		"type":  string(typ),
	})
	if c.cache != nil {
		if raw, ok := c.cache.Get(cacheKey); ok {
			var cached []Result
			if err := json.Unmarshal(raw, &cached); err == nil {
				log.Printf("[DEBUG] wikidata: cache hit for %q (%s)", query, typ)
				return cached, nil
			}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	sparql := buildSPARQL(query, typ)
	reqURL := fmt.Sprintf("%s/sparql?format=json&query=%s", c.baseURL, url.QueryEscape(sparql))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build SPARQL request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Wikidata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Wikidata SPARQL endpoint returned status %d", resp.StatusCode)
	}

	var sparqlResp sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&sparqlResp); err != nil {
		return nil, fmt.Errorf("failed to decode SPARQL response: %w", err)
	}

	candidates := parseBindings(sparqlResp.Results.Bindings)

	if c.cache != nil {
		if raw, err := json.Marshal(candidates); err == nil {
			c.cache.Set(cacheKey, raw)
		}
	}
	return candidates, nil
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

type sparqlValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// buildSPARQL constructs a fuzzy EntitySearch query with optional image,
// Wikipedia sitelink, sitelinks count and one optional binding per external
// id type.
func buildSPARQL(query string, typ entity.Type) string {
	var b strings.Builder

	b.WriteString("SELECT ?item ?itemLabel ?itemDescription ?image ?article ?sitelinks")
	for _, idType := range entity.AllExternalIDTypes {
		fmt.Fprintf(&b, " ?%s", idVarName(idType))
	}
	b.WriteString(" WHERE {\n")

	b.WriteString("  SERVICE wikibase:mwapi {\n")
	b.WriteString("    bd:serviceParam wikibase:endpoint \"www.wikidata.org\";\n")
	b.WriteString("                    wikibase:api \"EntitySearch\";\n")
	fmt.Fprintf(&b, "                    mwapi:search \"%s\";\n", escapeSPARQLString(query))
	b.WriteString("                    mwapi:language \"en\".\n")
	b.WriteString("    ?item wikibase:apiOutputItem mwapi:item.\n")
	b.WriteString("  }\n")

	if qids := entity.WikidataTypeQIDs(typ); len(qids) > 0 {
		b.WriteString("  VALUES ?class { ")
		for _, qid := range qids {
			fmt.Fprintf(&b, "wd:%s ", qid)
		}
		b.WriteString("}\n")
		b.WriteString("  ?item wdt:P31/wdt:P279* ?class.\n")
	}

	b.WriteString("  OPTIONAL { ?item wikibase:sitelinks ?sitelinks. }\n")
	b.WriteString("  OPTIONAL { ?item wdt:P18 ?image. }\n")
	b.WriteString("  OPTIONAL { ?article schema:about ?item; schema:isPartOf <https://en.wikipedia.org/>. }\n")
	for _, idType := range entity.AllExternalIDTypes {
		fmt.Fprintf(&b, "  OPTIONAL { ?item wdt:%s ?%s. }\n", idType.WikidataProperty(), idVarName(idType))
	}

	b.WriteString("  SERVICE wikibase:label { bd:serviceParam wikibase:language \"en\". }\n")
	b.WriteString("} LIMIT 10")
	return b.String()
}

func idVarName(idType entity.ExternalIDType) string {
	return "id_" + string(idType)
}

func escapeSPARQLString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// parseBindings converts SPARQL bindings into candidates, repairing labels
// the label service failed on and dropping candidates that end up unnamed.
// Result rows for the same item are merged so multiple external id bindings
// collapse into one candidate.
func parseBindings(bindings []map[string]sparqlValue) []Result {
	var ordered []string
	byQID := make(map[string]*Result)

	for _, binding := range bindings {
		item, ok := binding["item"]
		if !ok {
			continue
		}
		qid := item.Value
		if idx := strings.LastIndex(qid, "/"); idx >= 0 {
			qid = qid[idx+1:]
		}

		res, seen := byQID[qid]
		if !seen {
			res = &Result{QID: qid}
			byQID[qid] = res
			ordered = append(ordered, qid)
		}

		if v, ok := binding["itemLabel"]; ok && res.Label == "" {
			res.Label = v.Value
		}
		if v, ok := binding["itemDescription"]; ok && res.Description == nil {
			desc := v.Value
			res.Description = &desc
		}
		if v, ok := binding["image"]; ok && res.ImageURL == nil {
			img := v.Value
			res.ImageURL = &img
		}
		if v, ok := binding["article"]; ok && res.WikipediaURL == nil {
			article := v.Value
			res.WikipediaURL = &article
		}
		if v, ok := binding["sitelinks"]; ok && res.Sitelinks == nil {
			if n, err := strconv.Atoi(v.Value); err == nil {
				res.Sitelinks = &n
			}
		}
		for _, idType := range entity.AllExternalIDTypes {
			v, ok := binding[idVarName(idType)]
			if !ok || v.Value == "" {
				continue
			}
			if !idType.ValidID(v.Value) {
				log.Printf("[DEBUG] wikidata: dropping malformed %s id %q on %s", idType, v.Value, qid)
				continue
			}
			if res.ExternalIDs == nil {
				res.ExternalIDs = make(map[entity.ExternalIDType]string)
			}
			if _, exists := res.ExternalIDs[idType]; !exists {
				res.ExternalIDs[idType] = v.Value
			}
		}
	}

	results := make([]Result, 0, len(ordered))
	for _, qid := range ordered {
		res := byQID[qid]
		if qidLabelPattern.MatchString(res.Label) {
			res.Label = labelFromArticleURL(res.WikipediaURL)
		}
		if res.Label == "" {
			// Label service failed and no article to repair from.
			continue
		}
		results = append(results, *res)
	}
	return results
}

// labelFromArticleURL derives a display label from a Wikipedia article URL's
// final path segment: URL-decoded, underscores become spaces.
func labelFromArticleURL(articleURL *string) string {
	if articleURL == nil {
		return ""
	}
	segment := *articleURL
	if idx := strings.LastIndex(segment, "/"); idx >= 0 {
		segment = segment[idx+1:]
	}
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		decoded = segment
	}
	return strings.ReplaceAll(decoded, "_", " ")
}
