// file: internal/ai/classifier.go
// version: 2.0.0
// guid: 9a0b1c2d-3e4f-5a6b-7c8d-9e0f1a2b3c4d

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/canonmap/canonmap/internal/cache"
	"github.com/canonmap/canonmap/internal/entity"
	"github.com/canonmap/canonmap/internal/gsearch"
	"github.com/canonmap/canonmap/internal/heuristic"
)

// ClassificationResult ranks candidate search results for one query.
// URLIndexes are the model's 1-based picks; RankedURLs are the resolved
// URLs after dropping out-of-range indexes. Empty RankedURLs means the
// model found no result for the exact entity.
type ClassificationResult struct {
	Title       string      `json:"title"`
	Category    entity.Type `json:"category"`
	URLIndexes  []int       `json:"url_indexes"`
	RankedURLs  []string    `json:"ranked_urls"`
	Explanation string      `json:"explanation"`
}

// Classifier handles last-resort ranking of search results using a
// generative model in strict-JSON mode.
type Classifier struct {
	client  *openai.Client
	model   string
	enabled bool
	cache   cache.Store
}

const defaultModel = "gpt-4o-mini" // Fast and cost-effective

const maxSnippetLen = 200

// NewClassifier creates a classifier. Disabled without an API key.
func NewClassifier(apiKey string, enabled bool) *Classifier {
	return newClassifier(apiKey, enabled)
}

// NewClassifierWithBaseURL creates a classifier against a custom endpoint
// (for testing).
func NewClassifierWithBaseURL(apiKey, baseURL string) *Classifier {
	return newClassifier(apiKey, true, option.WithBaseURL(baseURL))
}

func newClassifier(apiKey string, enabled bool, opts ...option.RequestOption) *Classifier {
	if !enabled || apiKey == "" {
		return &Classifier{enabled: false}
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)
	return &Classifier{
		client:  &client,
		model:   defaultModel,
		enabled: true,
	}
}

// IsEnabled returns whether the classifier is enabled
func (c *Classifier) IsEnabled() bool {
	return c.enabled
}

// SetModel overrides the generative model name.
func (c *Classifier) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

// SetCache attaches a cache so repeated (title, category, urls) tuples skip
// the network call entirely.
func (c *Classifier) SetCache(store cache.Store) {
	c.cache = store
}

// Classify ranks the candidate results for the query. Call and parse
// failures degrade to an empty classification rather than an error.
func (c *Classifier) Classify(ctx context.Context, title string, category entity.Type, results []gsearch.Result) *ClassificationResult {
	empty := &ClassificationResult{Title: title, Category: category}
	if !c.enabled || len(results) == 0 {
		return empty
	}

	urls := make([]string, len(results))
	for i, r := range results {
		urls[i] = r.URL
	}
	cacheKey := cache.Key("ai-classifier", c.model, map[string]any{
		"title":    title,
		"category": string(category),
		"urls":     urls,
	})
	if c.cache != nil {
		if raw, ok := c.cache.Get(cacheKey); ok {
			var cached ClassificationResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				log.Printf("[DEBUG] ai: cache hit for %q (%s)", title, category)
				return &cached
			}
		}
	}

	parsed, err := c.classify(ctx, title, category, results)
	if err != nil {
		log.Printf("[WARN] ai: classification failed for %q: %v", title, err)
		return empty
	}

	result := &ClassificationResult{
		Title:       title,
		Category:    category,
		URLIndexes:  parsed.URLIndexes,
		Explanation: parsed.Explanation,
	}
	// Indexes are 1-based; out-of-range values are silently dropped.
	for _, idx := range parsed.URLIndexes {
		if idx < 1 || idx > len(results) {
			continue
		}
		result.RankedURLs = append(result.RankedURLs, results[idx-1].URL)
	}

	if c.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			c.cache.Set(cacheKey, raw)
		}
	}
	return result
}

// BestURL returns the top-ranked URL and its attributed source name, or
// ok=false for an empty classification.
func (r *ClassificationResult) BestURL() (url, source string, ok bool) {
	if len(r.RankedURLs) == 0 {
		return "", "", false
	}
	url = r.RankedURLs[0]
	return url, heuristic.ClassifySource(url), true
}

type modelResponse struct {
	URLIndexes  []int  `json:"url_indexes"`
	Explanation string `json:"explanation"`
}

func (c *Classifier) classify(ctx context.Context, title string, category entity.Type, results []gsearch.Result) (*modelResponse, error) {
	systemPrompt := `You rank web search results for a single cultural/media entity (movie, book, game, album, etc).

Rules:
- Only include results whose page is about the EXACT entity named. Similar titles, sequels, or other works by the same creator do not count.
- Exclude social media, forum, and discussion-thread domains outright.
- Rank authoritative catalog sources (IMDb, Goodreads, Wikipedia, BoardGameGeek, Steam, Spotify) before blogs or news.
- If no result is about the exact entity, return an empty array.

Return ONLY valid JSON:
{
  "url_indexes": [1-based indexes of matching results, best first],
  "explanation": "one short sentence"
}`

	var b strings.Builder
	fmt.Fprintf(&b, "Entity: %s\nCategory: %s\n\nSearch results:\n", title, category)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n   URL: %s\n", i+1, r.Title, r.URL)
		if r.Snippet != nil {
			snippet := *r.Snippet
			if len(snippet) > maxSnippetLen {
				snippet = snippet[:maxSnippetLen]
			}
			fmt.Fprintf(&b, "   Snippet: %s\n", snippet)
		}
	}

	jsonObjectFormat := shared.NewResponseFormatJSONObjectParam()

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(b.String()),
		},
		Model:       shared.ChatModel(c.model),
		Temperature: param.NewOpt(0.1),
		MaxTokens:   param.NewOpt[int64](500),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &jsonObjectFormat,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}

	var parsed modelResponse
	content := completion.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return &parsed, nil
}
