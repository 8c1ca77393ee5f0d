package ranking

import (
	"time"

	"github.com/letmevibethatforyou/toolrank"
)

const day = 24 * time.Hour

// Relevance boosts. They add to the base relevance with no upper clamp.
const (
	BoostFavoriteCategory = 0.3
	BoostPreferredPrice   = 0.2
	BoostMinRating        = 0.1
	BoostUpdatedWeek      = 0.2
	BoostUpdatedMonth     = 0.1
	BoostViews            = 0.1
	BoostLikes            = 0.1
	BoostReviews          = 0.1
)

// Engagement thresholds. A signal must exceed its threshold to earn a boost.
const (
	ViewsThreshold   = 1000
	LikesThreshold   = 100
	ReviewsThreshold = 10
)

// Score returns the adjusted relevance of r: its base relevance plus every
// boost it qualifies for. The preference boosts apply only when prefs is set.
func Score(r toolrank.SearchResult, prefs *toolrank.UserPreferences, now time.Time) float64 {
	score := r.Relevance

	if prefs != nil {
		if contains(prefs.FavoriteCategories, r.Category) {
			score += BoostFavoriteCategory
		}
		if !prefs.PreferredPrice.IsAll() && r.Price == prefs.PreferredPrice {
			score += BoostPreferredPrice
		}
		if r.Rating >= prefs.MinRating {
			score += BoostMinRating
		}
	}

	score += recencyBoost(r.LastUpdated, now)

	if r.Views > ViewsThreshold {
		score += BoostViews
	}
	if r.Likes > LikesThreshold {
		score += BoostLikes
	}
	if r.ReviewCount > ReviewsThreshold {
		score += BoostReviews
	}

	return score
}

// recencyBoost applies only the larger of the two recency buckets.
func recencyBoost(updated, now time.Time) float64 {
	if updated.IsZero() {
		return 0
	}
	age := now.Sub(updated)
	switch {
	case age <= 7*day:
		return BoostUpdatedWeek
	case age <= 30*day:
		return BoostUpdatedMonth
	default:
		return 0
	}
}

// ScoreAll returns copies of candidates with Relevance replaced by the adjusted score.
func ScoreAll(candidates []toolrank.SearchResult, prefs *toolrank.UserPreferences, now time.Time) []toolrank.SearchResult {
	out := make([]toolrank.SearchResult, len(candidates))
	for i, r := range candidates {
		r.Relevance = Score(r, prefs, now)
		out[i] = r
	}
	return out
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
