package ranking

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/toolrank"
)

// Catalog implements the toolrank.Ranker interface over an in-memory set of results.
type Catalog struct {
	mu         sync.RWMutex
	results    []toolrank.SearchResult
	idIndex    map[string]int // maps result ID to index in results slice
	engagement toolrank.EngagementSource
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithEngagementSource refreshes views, likes and review counts from src
// before every ranking.
func WithEngagementSource(src toolrank.EngagementSource) CatalogOption {
	return func(c *Catalog) {
		c.engagement = src
	}
}

// NewCatalog creates an empty catalog.
// The catalog is ready to use and is safe for concurrent operations.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		results: make([]toolrank.SearchResult, 0),
		idIndex: make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add stores results. A result whose ID is already present replaces it.
func (c *Catalog) Add(results ...toolrank.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range results {
		if idx, exists := c.idIndex[r.ID]; exists {
			c.results[idx] = r
			continue
		}
		c.idIndex[r.ID] = len(c.results)
		c.results = append(c.results, r)
	}
}

// AddJSON parses a JSON object and stores it under id.
func (c *Catalog) AddJSON(id string, jsonData []byte) error {
	var r toolrank.SearchResult
	if err := json.Unmarshal(jsonData, &r); err != nil {
		return errors.Wrap(err, "failed to unmarshal JSON")
	}
	r.ID = id

	c.Add(r)
	return nil
}

// Get returns the stored result with the given ID.
func (c *Catalog) Get(id string) (toolrank.SearchResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx, ok := c.idIndex[id]
	if !ok {
		return toolrank.SearchResult{}, false
	}
	return c.results[idx], true
}

// Remove deletes a result by ID.
// Returns true if the result was found and removed.
func (c *Catalog) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, exists := c.idIndex[id]
	if !exists {
		return false
	}

	c.results = append(c.results[:idx], c.results[idx+1:]...)

	delete(c.idIndex, id)
	for i := idx; i < len(c.results); i++ {
		c.idIndex[c.results[i].ID] = i
	}

	return true
}

// Clear removes all results.
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results = make([]toolrank.SearchResult, 0)
	c.idIndex = make(map[string]int)
}

// Size returns the number of stored results.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

// Rank implements the toolrank.Ranker interface.
//
// With a non-empty query only results matching at least one query term are
// candidates, and their base relevance is the fraction of terms they match.
// With an empty query every result is a candidate with its stored relevance.
func (c *Catalog) Rank(ctx context.Context, query string, opts ...toolrank.RankOption) (*toolrank.Results, error) {
	startTime := time.Now()

	select {
	case <-ctx.Done():
		return nil, toolrank.ErrCanceled
	default:
	}

	cfg := toolrank.NewRankConfig(opts...)
	if cfg.Limit < 0 || cfg.Offset < 0 {
		return nil, errors.WithSecondaryError(toolrank.ErrInvalidOption,
			errors.Newf("limit %d and offset %d must not be negative", cfg.Limit, cfg.Offset))
	}

	now := cfg.Now
	if now.IsZero() {
		now = startTime
	}

	candidates := c.matchQuery(query)

	if c.engagement != nil && len(candidates) > 0 {
		refreshed, err := refreshEngagement(ctx, c.engagement, candidates)
		if err != nil {
			return nil, err
		}
		candidates = refreshed
	}

	ranked, err := RankAt(now, candidates, cfg.Filters, cfg.SortKey(), cfg.Preferences)
	if err != nil {
		return nil, err
	}

	return Paginate(ranked, query, cfg, startTime), nil
}

// matchQuery snapshots the candidates for query under the read lock.
func (c *Catalog) matchQuery(query string) []toolrank.SearchResult {
	terms := strings.Fields(strings.ToLower(query))

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]toolrank.SearchResult, 0, len(c.results))
	for _, r := range c.results {
		if len(terms) == 0 {
			out = append(out, r)
			continue
		}
		matched := matchedTerms(r, terms)
		if matched == 0 {
			continue
		}
		r.Relevance = float64(matched) / float64(len(terms))
		out = append(out, r)
	}
	return out
}

// matchedTerms counts the query terms found in the result's searchable text.
func matchedTerms(r toolrank.SearchResult, terms []string) int {
	fields := make([]string, 0, 3+len(r.Tags)+len(r.Features))
	fields = append(fields, r.Title, r.Description, r.Category)
	fields = append(fields, r.Tags...)
	fields = append(fields, r.Features...)
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}

	matched := 0
	for _, term := range terms {
		for _, f := range fields {
			if strings.Contains(f, term) {
				matched++
				break
			}
		}
	}
	return matched
}

func refreshEngagement(ctx context.Context, src toolrank.EngagementSource, candidates []toolrank.SearchResult) ([]toolrank.SearchResult, error) {
	ids := make([]string, len(candidates))
	for i, r := range candidates {
		ids[i] = r.ID
	}

	signals, err := src.Engagement(ctx, ids)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, toolrank.ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return nil, toolrank.ErrCanceled
		}
		return nil, errors.WithSecondaryError(
			toolrank.ErrBackendUnavailable,
			errors.Wrap(err, "failed to load engagement signals"),
		)
	}

	out := make([]toolrank.SearchResult, len(candidates))
	for i, r := range candidates {
		if e, ok := signals[r.ID]; ok {
			r = e.Apply(r)
		}
		out[i] = r
	}
	return out, nil
}

// Paginate cuts the page described by cfg out of an already ranked slice and
// fills in the result metadata.
func Paginate(ranked []toolrank.SearchResult, query string, cfg *toolrank.RankConfig, startTime time.Time) *toolrank.Results {
	total := int64(len(ranked))
	start := min(cfg.Offset, len(ranked))
	// Limit may be as large as math.MaxInt, so it is never added to start unclamped.
	end := start + min(cfg.Limit, len(ranked)-start)

	results := &toolrank.Results{
		Items: make([]toolrank.SearchResult, 0, end-start),
		Total: total,
		Query: query,
	}

	maxScore := 0.0
	for i := start; i < end; i++ {
		if ranked[i].Relevance > maxScore {
			maxScore = ranked[i].Relevance
		}
		results.Items = append(results.Items, ranked[i])
	}
	results.MaxScore = maxScore

	if end < len(ranked) {
		nextOffset := end
		results.NextOffset = &nextOffset
	}

	results.Took = time.Since(startTime).Milliseconds()
	return results
}
