package algolia

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/cockroachdb/errors"

	"github.com/letmevibethatforyou/toolrank"
	"github.com/letmevibethatforyou/toolrank/ranking"
)

// Backend runs a raw query against an Algolia index. *Client implements it.
type Backend interface {
	Search(ctx context.Context, indexName, query string, params ...interface{}) (search.QueryRes, error)
}

// Ranker implements the toolrank.Ranker interface using Algolia as the
// candidate source. Every filter dimension is pushed down to Algolia, and the
// returned page is filtered again, scored and sorted locally. Sorting by a
// key other than relevance orders the fetched page only, not the whole index.
//
// Results.Total is Algolia's hit count less the hits on the fetched page that
// were rejected locally. Offsets must be a multiple of the limit because
// Algolia pages by whole pages.
type Ranker struct {
	backend   Backend
	indexName string
}

// NewRanker creates a new Algolia ranker for the specified index.
func NewRanker(backend Backend, indexName string) *Ranker {
	return &Ranker{
		backend:   backend,
		indexName: indexName,
	}
}

// Rank implements the toolrank.Ranker interface.
func (r *Ranker) Rank(ctx context.Context, query string, opts ...toolrank.RankOption) (*toolrank.Results, error) {
	startTime := time.Now()

	select {
	case <-ctx.Done():
		return nil, toolrank.ErrCanceled
	default:
	}

	cfg := toolrank.NewRankConfig(opts...)
	if cfg.Limit <= 0 || cfg.Offset < 0 {
		return nil, errors.WithSecondaryError(toolrank.ErrInvalidOption,
			errors.Newf("limit %d must be positive and offset %d not negative", cfg.Limit, cfg.Offset))
	}
	if cfg.Offset%cfg.Limit != 0 {
		return nil, errors.WithSecondaryError(toolrank.ErrInvalidOption,
			errors.Newf("offset %d is not a multiple of limit %d", cfg.Offset, cfg.Limit))
	}

	// Validate the sort key before paying for a round trip.
	if _, err := ranking.ComparatorFor(cfg.SortKey()); err != nil {
		return nil, err
	}

	now := cfg.Now
	if now.IsZero() {
		now = startTime
	}

	res, err := r.backend.Search(ctx, r.indexName, query, buildSearchParams(cfg, now)...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, toolrank.ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return nil, toolrank.ErrCanceled
		}

		return nil, errors.WithSecondaryError(
			toolrank.ErrBackendUnavailable,
			errors.Wrapf(err, "Algolia search failed"),
		)
	}

	candidates := make([]toolrank.SearchResult, 0, len(res.Hits))
	for i, hit := range res.Hits {
		result, dropped, err := toolrank.DecodeResult(hit)
		if err != nil {
			slog.WarnContext(ctx, "Skipping hit without an ID", "index", r.indexName, "error", err)
			continue
		}
		if len(dropped) > 0 {
			slog.WarnContext(ctx, "Dropping undecodable hit attributes", "index", r.indexName, "object_id", result.ID, "attributes", dropped)
		}
		if result.Relevance == 0 {
			result.Relevance = calculateScore(len(res.Hits), i)
		}
		candidates = append(candidates, result)
	}

	ranked, err := ranking.RankAt(now, candidates, cfg.Filters, cfg.SortKey(), cfg.Preferences)
	if err != nil {
		return nil, err
	}

	total := int64(res.NbHits) - int64(len(res.Hits)-len(ranked))
	results := &toolrank.Results{
		Items: ranked,
		Total: max(total, 0),
		Query: query,
	}
	for _, item := range ranked {
		if item.Relevance > results.MaxScore {
			results.MaxScore = item.Relevance
		}
	}

	nextPage := res.Page + 1
	if nextPage < res.NbPages {
		nextOffset := nextPage * cfg.Limit
		results.NextOffset = &nextOffset
	}

	results.Took = time.Since(startTime).Milliseconds()
	return results, nil
}

// buildSearchParams converts a toolrank.RankConfig to Algolia search parameters.
func buildSearchParams(cfg *toolrank.RankConfig, now time.Time) []interface{} {
	var params []interface{}

	params = append(params, opt.HitsPerPage(cfg.Limit))
	if cfg.Offset > 0 {
		params = append(params, opt.Page(cfg.Offset/cfg.Limit))
	}

	if filters := convertFilterState(cfg.Filters, now); filters != "" {
		params = append(params, opt.Filters(filters))
	}

	return params
}

// calculateScore creates a rank-based base relevance for Algolia hits.
// Algolia does not expose its relevance, so earlier hits score higher.
func calculateScore(totalResults, position int) float64 {
	if totalResults == 0 {
		return 1.0
	}
	return float64(totalResults-position) / float64(totalResults)
}

// convertFilterState converts f to an Algolia filter string. The date range
// filters on the numeric lastUpdatedUnix attribute written by toObject.
func convertFilterState(f toolrank.FilterState, now time.Time) string {
	var clauses []string

	if !f.Price.IsAll() {
		clauses = append(clauses, fmt.Sprintf("%s:%s", escapeField("price"), escapeValue(string(f.Price))))
	}
	if f.MinRating > 0 {
		clauses = append(clauses, fmt.Sprintf("%s >= %s", escapeField("rating"), escapeNumericValue(f.MinRating)))
	}
	if f.MinPopularity > 0 {
		clauses = append(clauses, fmt.Sprintf("%s >= %s", escapeField("popularity"), escapeNumericValue(f.MinPopularity)))
	}
	if len(f.Categories) > 0 {
		ors := make([]string, 0, len(f.Categories))
		for _, c := range f.Categories {
			ors = append(ors, fmt.Sprintf("%s:%s", escapeField("category"), escapeValue(c)))
		}
		clause := strings.Join(ors, " OR ")
		if len(ors) > 1 {
			clause = "(" + clause + ")"
		}
		clauses = append(clauses, clause)
	}
	if cutoff, ok := ranking.DateCutoff(f.DateRange, now); ok {
		clauses = append(clauses, fmt.Sprintf("%s >= %d", escapeField(lastUpdatedUnixAttr), cutoff.Unix()))
	}
	for _, feature := range f.Features {
		clauses = append(clauses, fmt.Sprintf("%s:%s", escapeField("features"), escapeValue(feature)))
	}

	return strings.Join(clauses, " AND ")
}

// escapeField escapes field names for Algolia filters
func escapeField(field string) string {
	if strings.ContainsAny(field, " :-()") {
		return fmt.Sprintf(`"%s"`, field)
	}
	return field
}

// escapeValue quotes string values for Algolia filters
func escapeValue(value string) string {
	escaped := strings.ReplaceAll(value, `"`, `\"`)
	return fmt.Sprintf(`"%s"`, escaped)
}

// escapeNumericValue formats numeric values for Algolia filters
func escapeNumericValue(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
