// Package ranking implements the filter, score and sort pipeline that orders
// directory entries, and an in-memory Catalog that serves it as a toolrank.Ranker.
package ranking

import (
	"time"

	"github.com/letmevibethatforyou/toolrank"
)

// Rank filters candidates, rescores the survivors and sorts them by sortKey,
// using the current time for recency.
func Rank(candidates []toolrank.SearchResult, filters toolrank.FilterState, sortKey toolrank.SortKey, prefs *toolrank.UserPreferences) ([]toolrank.SearchResult, error) {
	return RankAt(time.Now(), candidates, filters, sortKey, prefs)
}

// RankAt is Rank with an explicit reference time.
// An empty sortKey falls back to prefs.SortBy and then to relevance.
// The sort key is validated before any work, so an unknown key fails even for
// an empty candidate set. The input slice is never modified.
func RankAt(now time.Time, candidates []toolrank.SearchResult, filters toolrank.FilterState, sortKey toolrank.SortKey, prefs *toolrank.UserPreferences) ([]toolrank.SearchResult, error) {
	cmp, err := ComparatorFor(toolrank.ResolveSortKey(sortKey, prefs))
	if err != nil {
		return nil, err
	}

	filtered := Filter(candidates, filters, now)
	scored := ScoreAll(filtered, prefs, now)
	Sort(scored, cmp)
	return scored, nil
}
