package ranking

import (
	"math"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/toolrank"
)

// Comparator orders two candidates. It returns a negative number when a
// sorts before b, a positive number when b sorts before a and 0 on a tie.
type Comparator func(a, b toolrank.SearchResult) int

// registry maps every sort key to a descending comparator.
var registry = map[toolrank.SortKey]Comparator{
	toolrank.SortRelevance:  descending(func(r toolrank.SearchResult) float64 { return r.Relevance }),
	toolrank.SortRating:     descending(func(r toolrank.SearchResult) float64 { return r.Rating }),
	toolrank.SortPopularity: descending(func(r toolrank.SearchResult) float64 { return r.Popularity }),
	toolrank.SortRecent:     byRecency,
	toolrank.SortViews:      descending(func(r toolrank.SearchResult) float64 { return float64(r.Views) }),
	toolrank.SortLikes:      descending(func(r toolrank.SearchResult) float64 { return float64(r.Likes) }),
}

// byRecency puts the most recently updated candidate first.
func byRecency(a, b toolrank.SearchResult) int {
	switch {
	case a.LastUpdated.After(b.LastUpdated):
		return -1
	case b.LastUpdated.After(a.LastUpdated):
		return 1
	default:
		return 0
	}
}

// descending orders by field, largest first. NaN counts as missing and sorts
// after every number.
func descending(field func(toolrank.SearchResult) float64) Comparator {
	return func(a, b toolrank.SearchResult) int {
		va, vb := field(a), field(b)
		aNaN, bNaN := math.IsNaN(va), math.IsNaN(vb)
		switch {
		case aNaN || bNaN:
			return boolOrder(aNaN) - boolOrder(bNaN)
		case va > vb:
			return -1
		case va < vb:
			return 1
		default:
			return 0
		}
	}
}

func boolOrder(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ComparatorFor returns the comparator registered for key. The empty key
// selects relevance. Unknown keys return an error matching
// toolrank.ErrInvalidSortKey.
func ComparatorFor(key toolrank.SortKey) (Comparator, error) {
	if key == "" {
		key = toolrank.SortRelevance
	}
	cmp, ok := registry[key]
	if !ok {
		return nil, errors.Wrapf(toolrank.ErrInvalidSortKey, "sort key %q", string(key))
	}
	return cmp, nil
}

// SortKeys lists the registered sort keys in a fixed order.
func SortKeys() []toolrank.SortKey {
	return []toolrank.SortKey{
		toolrank.SortRelevance,
		toolrank.SortRating,
		toolrank.SortPopularity,
		toolrank.SortRecent,
		toolrank.SortViews,
		toolrank.SortLikes,
	}
}

// Sort orders candidates in place with cmp. Ties keep their relative order.
func Sort(candidates []toolrank.SearchResult, cmp Comparator) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return cmp(candidates[i], candidates[j]) < 0
	})
}
