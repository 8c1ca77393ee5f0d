package toolrank

// FilterState is the set of user-chosen constraints that narrow the candidate
// set before scoring. Each dimension left at its zero value is inactive, so
// the zero FilterState matches every candidate.
type FilterState struct {
	// Categories restricts results to these category labels. Empty means any.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty" toml:"categories,omitempty"`

	// MinRating is the inclusive rating floor. 0 means any.
	MinRating float64 `json:"minRating,omitempty" yaml:"minRating,omitempty" toml:"min_rating,omitempty"`

	// MinPopularity is the inclusive popularity floor. 0 means any.
	MinPopularity float64 `json:"minPopularity,omitempty" yaml:"minPopularity,omitempty" toml:"min_popularity,omitempty"`

	// DateRange limits how long ago a result may have been updated.
	DateRange DateRange `json:"dateRange,omitempty" yaml:"dateRange,omitempty" toml:"date_range,omitempty"`

	// Price is the required tier, or PriceAll.
	Price PriceTier `json:"price,omitempty" yaml:"price,omitempty" toml:"price,omitempty"`

	// Features lists features a result must all offer.
	Features []string `json:"features,omitempty" yaml:"features,omitempty" toml:"features,omitempty"`
}

// IsEmpty reports whether no dimension of the filter is active.
func (f FilterState) IsEmpty() bool {
	return len(f.Categories) == 0 &&
		f.MinRating <= 0 &&
		f.MinPopularity <= 0 &&
		(f.DateRange == "" || f.DateRange == DateAll) &&
		f.Price.IsAll() &&
		len(f.Features) == 0
}

// UserPreferences carries the signals used to personalise relevance.
type UserPreferences struct {
	FavoriteCategories []string  `json:"favoriteCategories,omitempty" yaml:"favoriteCategories,omitempty" toml:"favorite_categories"`
	PreferredPrice     PriceTier `json:"preferredPrice,omitempty" yaml:"preferredPrice,omitempty" toml:"preferred_price"`
	MinRating          float64   `json:"minRating,omitempty" yaml:"minRating,omitempty" toml:"min_rating"`

	// SortBy is used when the caller does not name a sort key.
	SortBy SortKey `json:"sortBy,omitempty" yaml:"sortBy,omitempty" toml:"sort_by"`
}
