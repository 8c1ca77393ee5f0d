package toolrank

import "time"

// RankOption represents a ranking configuration option.
type RankOption interface {
	Apply(*RankConfig)
}

// RankConfig holds all ranking configuration parameters.
type RankConfig struct {
	// Limit specifies the maximum number of results to return.
	Limit int

	// Offset specifies the number of results to skip for pagination.
	Offset int

	// Filters narrows the candidate set.
	Filters FilterState

	// Sort names the sort strategy. Empty falls back to the preferences, then relevance.
	Sort SortKey

	// Preferences personalises relevance. Nil disables the preference boosts.
	Preferences *UserPreferences

	// Now is the reference time for recency. Zero means time.Now at rank time.
	Now time.Time
}

// DefaultLimit is the page size used when no limit is given.
const DefaultLimit = 10

// NewRankConfig applies opts over the defaults.
func NewRankConfig(opts ...RankOption) *RankConfig {
	cfg := &RankConfig{}
	for _, opt := range opts {
		opt.Apply(cfg)
	}
	if cfg.Limit == 0 {
		cfg.Limit = DefaultLimit
	}
	return cfg
}

// SortKey resolves the effective sort key: the explicit key, then the
// preferred key, then relevance.
func (c *RankConfig) SortKey() SortKey {
	return ResolveSortKey(c.Sort, c.Preferences)
}

// ResolveSortKey returns key, or prefs.SortBy when key is empty, or relevance.
func ResolveSortKey(key SortKey, prefs *UserPreferences) SortKey {
	if key != "" {
		return key
	}
	if prefs != nil && prefs.SortBy != "" {
		return prefs.SortBy
	}
	return SortRelevance
}

// optionFunc is a function that implements RankOption.
type optionFunc func(*RankConfig)

// Apply implements the RankOption interface for optionFunc.
func (f optionFunc) Apply(cfg *RankConfig) {
	f(cfg)
}

// WithLimit sets the maximum number of results to return.
func WithLimit(n int) RankOption {
	return optionFunc(func(cfg *RankConfig) {
		cfg.Limit = n
	})
}

// WithOffset sets the number of results to skip for pagination.
func WithOffset(n int) RankOption {
	return optionFunc(func(cfg *RankConfig) {
		cfg.Offset = n
	})
}

// WithFilters sets the filter constraints.
func WithFilters(f FilterState) RankOption {
	return optionFunc(func(cfg *RankConfig) {
		cfg.Filters = f
	})
}

// WithSort selects the sort strategy by key.
func WithSort(key SortKey) RankOption {
	return optionFunc(func(cfg *RankConfig) {
		cfg.Sort = key
	})
}

// WithPreferences enables the preference boosts.
func WithPreferences(p *UserPreferences) RankOption {
	return optionFunc(func(cfg *RankConfig) {
		cfg.Preferences = p
	})
}

// WithNow pins the reference time used for recency.
func WithNow(t time.Time) RankOption {
	return optionFunc(func(cfg *RankConfig) {
		cfg.Now = t
	})
}
