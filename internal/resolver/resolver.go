// file: internal/resolver/resolver.go
// version: 2.0.0
// guid: 1c2d3e4f-5a6b-7c8d-9e0f-1a2b3c4d5e6f

package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/canonmap/canonmap/internal/ai"
	"github.com/canonmap/canonmap/internal/cache"
	"github.com/canonmap/canonmap/internal/cachestore"
	"github.com/canonmap/canonmap/internal/entity"
	"github.com/canonmap/canonmap/internal/gsearch"
	"github.com/canonmap/canonmap/internal/heuristic"
	"github.com/canonmap/canonmap/internal/metrics"
	"github.com/canonmap/canonmap/internal/openlibrary"
	"github.com/canonmap/canonmap/internal/wikidata"
)

const defaultStageTimeout = 30 * time.Second

// Config holds the knobs for one resolver instance. Zero-value credentials
// disable the stage that needs them.
type Config struct {
	WikidataEnabled    bool
	OpenLibraryEnabled bool
	GoogleAPIKey       string
	GoogleEngineID     string
	OpenAIAPIKey       string
	OpenAIModel        string
	AIEnabled          bool
	UserAgent          string
	StageTimeout       time.Duration
}

// Resolver sequences the lookup stages with short-circuit-on-success
// semantics. Safe for concurrent use; all per-call state lives on the stack.
type Resolver struct {
	cfg         Config
	wikidata    *wikidata.Client
	openlibrary *openlibrary.Client
	gsearch     *gsearch.Client
	classifier  *ai.Classifier
	store       cachestore.Store
}

// Option customizes a Resolver, mainly for injecting fixture-backed stage
// clients in tests.
type Option func(*Resolver)

// WithWikidataClient replaces the default Wikidata client.
func WithWikidataClient(c *wikidata.Client) Option {
	return func(r *Resolver) { r.wikidata = c }
}

// WithOpenLibraryClient replaces the default Open Library client.
func WithOpenLibraryClient(c *openlibrary.Client) Option {
	return func(r *Resolver) { r.openlibrary = c }
}

// WithSearchClient replaces the default web search client.
func WithSearchClient(c *gsearch.Client) Option {
	return func(r *Resolver) { r.gsearch = c }
}

// WithClassifier replaces the default AI classifier.
func WithClassifier(c *ai.Classifier) Option {
	return func(r *Resolver) { r.classifier = c }
}

// WithStore attaches a persistent store so whole resolutions survive
// restarts.
func WithStore(s cachestore.Store) Option {
	return func(r *Resolver) { r.store = s }
}

// New builds a resolver from cfg. Default clients share one in-memory cache
// so repeated stage calls within a process skip the network.
func New(cfg Config, opts ...Option) *Resolver {
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = defaultStageTimeout
	}
	r := &Resolver{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}

	shared := cache.NewMemory(0)
	if r.wikidata == nil {
		r.wikidata = wikidata.NewClient()
		r.wikidata.SetCache(shared)
	}
	if r.openlibrary == nil {
		r.openlibrary = openlibrary.NewClient()
		r.openlibrary.SetCache(shared)
	}
	if r.gsearch == nil {
		r.gsearch = gsearch.NewClient(cfg.GoogleAPIKey, cfg.GoogleEngineID)
		r.gsearch.SetCache(shared)
	}
	if r.classifier == nil {
		r.classifier = ai.NewClassifier(cfg.OpenAIAPIKey, cfg.AIEnabled)
		r.classifier.SetModel(cfg.OpenAIModel)
		r.classifier.SetCache(shared)
	}

	if cfg.UserAgent != "" {
		r.wikidata.SetUserAgent(cfg.UserAgent)
		r.openlibrary.SetUserAgent(cfg.UserAgent)
	}
	r.wikidata.SetTimeout(cfg.StageTimeout)
	r.openlibrary.SetTimeout(cfg.StageTimeout)
	r.gsearch.SetTimeout(cfg.StageTimeout)
	return r
}

// request is one resolution job flowing through the stage list.
type request struct {
	query  string
	typ    entity.Type
	author string
}

// pipelineState carries intermediate stage output forward.
type pipelineState struct {
	req           request
	searchResults []gsearch.Result
}

type stageOutcome int

const (
	// outcomeMiss advances to the next stage.
	outcomeMiss stageOutcome = iota
	// outcomeFound ends the pipeline with a resolved entity.
	outcomeFound
	// outcomeHalt ends the pipeline unresolved; downstream stages have
	// nothing to work with.
	outcomeHalt
)

type stage struct {
	name string
	run  func(ctx context.Context, st *pipelineState) (stageOutcome, *entity.Resolved, error)
}

// ResolveEntity runs the full pipeline for a free-text entity name. A nil
// entity with nil error means no stage could resolve the query; an error is
// returned only for an invalid entity type.
func (r *Resolver) ResolveEntity(ctx context.Context, query string, typ entity.Type) (*entity.Resolved, error) {
	return r.resolve(ctx, request{query: query, typ: typ})
}

// ResolveBook resolves a book title with an optional author hint. The author
// disambiguates the Open Library lookup and is appended to the web search
// query.
func (r *Resolver) ResolveBook(ctx context.Context, title, author string) (*entity.Resolved, error) {
	return r.resolve(ctx, request{query: title, typ: entity.TypeBook, author: author})
}

func (r *Resolver) resolve(ctx context.Context, req request) (*entity.Resolved, error) {
	if !req.typ.Valid() {
		return nil, fmt.Errorf("invalid entity type %q", req.typ)
	}

	storeKey := cache.Key("resolver", "pipeline", map[string]any{
		"query":  req.query,
		"type":   string(req.typ),
		"author": req.author,
	})
	if cached := r.storedResolution(storeKey); cached != nil {
		log.Printf("[DEBUG] resolver: store hit for %q (%s)", req.query, req.typ)
		return cached, nil
	}

	st := &pipelineState{req: req}
	stages := []stage{
		{name: "wikidata", run: r.wikidataStage},
		{name: "openlibrary", run: r.openLibraryStage},
		{name: "google", run: r.googleStage},
		{name: "heuristic", run: r.heuristicStage},
		{name: "ai", run: r.aiStage},
	}

	for _, s := range stages {
		stageCtx, cancel := context.WithTimeout(ctx, r.cfg.StageTimeout)
		start := time.Now()
		outcome, resolved, err := s.run(stageCtx, st)
		cancel()
		metrics.ObserveStageDuration(s.name, time.Since(start))

		if err != nil {
			// Stage failures degrade to a miss for that stage only.
			metrics.IncStageError(s.name)
			log.Printf("[WARN] resolver: %s stage failed for %q: %v", s.name, req.query, err)
			continue
		}
		switch outcome {
		case outcomeFound:
			metrics.IncStageHit(s.name)
			metrics.IncResolution(s.name)
			log.Printf("[INFO] resolver: resolved %q (%s) via %s: %s", req.query, req.typ, s.name, resolved.URL)
			r.storeResolution(storeKey, resolved)
			return resolved, nil
		case outcomeHalt:
			metrics.IncStageMiss(s.name)
			log.Printf("[DEBUG] resolver: %s stage halted pipeline for %q", s.name, req.query)
			metrics.IncResolution("unresolved")
			return nil, nil
		default:
			metrics.IncStageMiss(s.name)
		}
	}

	log.Printf("[INFO] resolver: could not resolve %q (%s)", req.query, req.typ)
	metrics.IncResolution("unresolved")
	return nil, nil
}

func (r *Resolver) wikidataStage(ctx context.Context, st *pipelineState) (stageOutcome, *entity.Resolved, error) {
	if !r.cfg.WikidataEnabled || r.wikidata == nil {
		return outcomeMiss, nil, nil
	}
	res, err := r.wikidata.Lookup(ctx, st.req.query, st.req.typ)
	if err != nil {
		return outcomeMiss, nil, err
	}
	if res == nil {
		return outcomeMiss, nil, nil
	}
	// Accept only candidates carrying at least one piece of linkable
	// evidence: an image, a Wikipedia article, or any external id.
	if res.ImageURL == nil && res.WikipediaURL == nil && len(res.ExternalIDs) == 0 {
		return outcomeMiss, nil, nil
	}
	return outcomeFound, resolvedFromWikidata(res, st.req.typ), nil
}

// resolvedFromWikidata picks the entity URL in priority order: the canonical
// URL of the best external id for the type, then the Wikipedia article, then
// the Wikidata item page itself.
func resolvedFromWikidata(res *wikidata.Result, typ entity.Type) *entity.Resolved {
	var entityURL string
	for _, idType := range entity.PreferredIDTypes(typ) {
		id, ok := res.ExternalIDs[idType]
		if !ok {
			continue
		}
		if u, ok := entity.BuildCanonicalURL(idType, id); ok {
			entityURL = u
			break
		}
	}
	if entityURL == "" && res.WikipediaURL != nil {
		entityURL = *res.WikipediaURL
	}
	if entityURL == "" {
		entityURL = "https://www.wikidata.org/wiki/" + res.QID
	}
	return &entity.Resolved{
		ID:           entity.NewID(),
		Source:       entity.SourceWikidata,
		Title:        res.Label,
		URL:          entityURL,
		Type:         typ,
		Description:  res.Description,
		ImageURL:     res.ImageURL,
		WikipediaURL: res.WikipediaURL,
		ExternalIDs:  res.ExternalIDs,
	}
}

func (r *Resolver) openLibraryStage(ctx context.Context, st *pipelineState) (stageOutcome, *entity.Resolved, error) {
	if st.req.typ != entity.TypeBook || !r.cfg.OpenLibraryEnabled || r.openlibrary == nil {
		return outcomeMiss, nil, nil
	}
	res, err := r.openlibrary.FindBook(ctx, st.req.query, st.req.author)
	if err != nil {
		return outcomeMiss, nil, err
	}
	// A result without a cover is treated as not found; later stages get
	// their chance at a better page.
	if res == nil || res.CoverURL == nil {
		return outcomeMiss, nil, nil
	}
	resolved := &entity.Resolved{
		ID:       entity.NewID(),
		Source:   entity.SourceOpenLibrary,
		Title:    res.Title,
		URL:      res.WorkURL,
		Type:     entity.TypeBook,
		Year:     res.FirstPublishYear,
		ImageURL: res.CoverURL,
		ExternalIDs: map[entity.ExternalIDType]string{
			entity.IDOpenLibrary: res.WorkID,
		},
	}
	if res.Author != nil {
		desc := "by " + *res.Author
		resolved.Description = &desc
	}
	return outcomeFound, resolved, nil
}

func (r *Resolver) googleStage(ctx context.Context, st *pipelineState) (stageOutcome, *entity.Resolved, error) {
	if r.gsearch == nil || !r.gsearch.Configured() {
		log.Printf("[DEBUG] resolver: web search not configured, skipping remaining stages for %q", st.req.query)
		return outcomeHalt, nil, nil
	}
	results, err := r.gsearch.Search(ctx, st.req.query, st.req.typ, st.req.author)
	if err != nil {
		// Search failure is equivalent to zero results: nothing is left
		// for the heuristic or AI stages to consume.
		log.Printf("[WARN] resolver: web search failed for %q: %v", st.req.query, err)
		return outcomeHalt, nil, nil
	}
	if len(results) == 0 {
		return outcomeHalt, nil, nil
	}
	st.searchResults = results
	return outcomeMiss, nil, nil
}

func (r *Resolver) heuristicStage(_ context.Context, st *pipelineState) (stageOutcome, *entity.Resolved, error) {
	if len(st.searchResults) == 0 {
		return outcomeHalt, nil, nil
	}
	match, deferred := heuristic.Resolve(st.req.query, st.req.typ, st.searchResults)
	if match == nil {
		if deferred != nil {
			log.Printf("[DEBUG] resolver: heuristic deferred %q with %d candidates", st.req.query, len(deferred.Results))
		}
		return outcomeMiss, nil, nil
	}
	return outcomeFound, resolvedFromURL(entity.SourceHeuristic, match.Title, match.URL, match.Source, st.req.typ), nil
}

func (r *Resolver) aiStage(ctx context.Context, st *pipelineState) (stageOutcome, *entity.Resolved, error) {
	if r.classifier == nil || !r.classifier.IsEnabled() {
		return outcomeMiss, nil, nil
	}
	result := r.classifier.Classify(ctx, st.req.query, st.req.typ, st.searchResults)
	url, source, ok := result.BestURL()
	if !ok {
		return outcomeMiss, nil, nil
	}
	resolved := resolvedFromURL(entity.SourceAI, st.req.query, url, source, st.req.typ)
	if result.Explanation != "" {
		resolved.Description = &result.Explanation
	}
	return outcomeFound, resolved, nil
}

// resolvedFromURL builds an entity for a heuristic or AI match, attaching an
// external id when the matched site corresponds to a known id type and the
// extracted id passes validation.
func resolvedFromURL(src entity.Source, title, url, sourceName string, typ entity.Type) *entity.Resolved {
	resolved := &entity.Resolved{
		ID:     entity.NewID(),
		Source: src,
		Title:  title,
		URL:    url,
		Type:   typ,
	}
	idType := entity.ExternalIDType(sourceName)
	if id := heuristic.SourceID(sourceName, url); id != url && idType.ValidID(id) {
		resolved.ExternalIDs = map[entity.ExternalIDType]string{idType: id}
	}
	return resolved
}

func (r *Resolver) storedResolution(key string) *entity.Resolved {
	if r.store == nil {
		return nil
	}
	raw, ok := r.store.Get(key)
	if !ok {
		return nil
	}
	var resolved entity.Resolved
	if err := json.Unmarshal(raw, &resolved); err != nil {
		log.Printf("[WARN] resolver: discarding unreadable stored resolution: %v", err)
		return nil
	}
	return &resolved
}

func (r *Resolver) storeResolution(key string, resolved *entity.Resolved) {
	if r.store == nil {
		return
	}
	raw, err := json.Marshal(resolved)
	if err != nil {
		return
	}
	r.store.Set(key, raw)
	if n, err := r.store.Count(); err == nil {
		metrics.SetCachedResolutions(n)
	}
}
