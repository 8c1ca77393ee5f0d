package ranking

import (
	"time"

	"github.com/letmevibethatforyou/toolrank"
)

// Predicate reports whether a candidate satisfies a constraint.
type Predicate func(toolrank.SearchResult) bool

// All combines predicates with AND. With no predicates it matches everything.
func All(preds ...Predicate) Predicate {
	return func(r toolrank.SearchResult) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Any combines predicates with OR. With no predicates it matches nothing.
func Any(preds ...Predicate) Predicate {
	return func(r toolrank.SearchResult) bool {
		for _, p := range preds {
			if p(r) {
				return true
			}
		}
		return false
	}
}

// PriceIs matches candidates whose tier equals tier exactly.
// PriceAll and the empty tier match everything.
func PriceIs(tier toolrank.PriceTier) Predicate {
	if tier.IsAll() {
		return matchAll
	}
	return func(r toolrank.SearchResult) bool {
		return r.Price == tier
	}
}

// RatingAtLeast matches candidates rated min or higher.
func RatingAtLeast(min float64) Predicate {
	return func(r toolrank.SearchResult) bool {
		return r.Rating >= min
	}
}

// PopularityAtLeast matches candidates with popularity min or higher.
func PopularityAtLeast(min float64) Predicate {
	return func(r toolrank.SearchResult) bool {
		return r.Popularity >= min
	}
}

// CategoryIs matches candidates filed under category.
func CategoryIs(category string) Predicate {
	return func(r toolrank.SearchResult) bool {
		return r.Category == category
	}
}

// CategoryIn matches candidates filed under one of categories.
// An empty set matches everything.
func CategoryIn(categories ...string) Predicate {
	if len(categories) == 0 {
		return matchAll
	}
	preds := make([]Predicate, len(categories))
	for i, c := range categories {
		preds[i] = CategoryIs(c)
	}
	return Any(preds...)
}

// HasFeatures matches candidates offering every listed feature.
func HasFeatures(features ...string) Predicate {
	if len(features) == 0 {
		return matchAll
	}
	return func(r toolrank.SearchResult) bool {
		offered := make(map[string]struct{}, len(r.Features))
		for _, f := range r.Features {
			offered[f] = struct{}{}
		}
		for _, f := range features {
			if _, ok := offered[f]; !ok {
				return false
			}
		}
		return true
	}
}

// UpdatedWithin matches candidates updated in the given range before now.
// Candidates with an unknown update time fail every range except DateAll.
func UpdatedWithin(dr toolrank.DateRange, now time.Time) Predicate {
	cutoff, ok := DateCutoff(dr, now)
	if !ok {
		return matchAll
	}
	return func(r toolrank.SearchResult) bool {
		if r.LastUpdated.IsZero() {
			return false
		}
		return !r.LastUpdated.Before(cutoff)
	}
}

// DateCutoff returns the earliest update time dr accepts at now. It reports
// false for DateAll and unknown ranges, which accept everything.
func DateCutoff(dr toolrank.DateRange, now time.Time) (time.Time, bool) {
	window, ok := dateWindow(dr)
	if !ok {
		return time.Time{}, false
	}
	return now.Add(-window), true
}

func dateWindow(dr toolrank.DateRange) (time.Duration, bool) {
	switch dr {
	case toolrank.DateWeek:
		return 7 * day, true
	case toolrank.DateMonth:
		return 30 * day, true
	case toolrank.DateYear:
		return 365 * day, true
	default:
		return 0, false
	}
}

// BuildPredicate turns a FilterState into a predicate that ANDs every active
// dimension. Inactive dimensions are left out entirely.
func BuildPredicate(f toolrank.FilterState, now time.Time) Predicate {
	var preds []Predicate
	if !f.Price.IsAll() {
		preds = append(preds, PriceIs(f.Price))
	}
	if f.MinRating > 0 {
		preds = append(preds, RatingAtLeast(f.MinRating))
	}
	if f.MinPopularity > 0 {
		preds = append(preds, PopularityAtLeast(f.MinPopularity))
	}
	if len(f.Categories) > 0 {
		preds = append(preds, CategoryIn(f.Categories...))
	}
	if _, ok := dateWindow(f.DateRange); ok {
		preds = append(preds, UpdatedWithin(f.DateRange, now))
	}
	if len(f.Features) > 0 {
		preds = append(preds, HasFeatures(f.Features...))
	}
	return All(preds...)
}

// Filter returns the candidates matching f in their original order.
// The input slice is never modified.
func Filter(candidates []toolrank.SearchResult, f toolrank.FilterState, now time.Time) []toolrank.SearchResult {
	return Select(candidates, BuildPredicate(f, now))
}

// Select returns the candidates matching p in their original order.
func Select(candidates []toolrank.SearchResult, p Predicate) []toolrank.SearchResult {
	out := make([]toolrank.SearchResult, 0, len(candidates))
	for _, r := range candidates {
		if p(r) {
			out = append(out, r)
		}
	}
	return out
}

func matchAll(toolrank.SearchResult) bool { return true }
