package toolrank

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
)

// SearchResult describes one directory entry eligible for ranking.
type SearchResult struct {
	// ID is the unique identifier of the entry.
	ID string `json:"id" yaml:"id"`

	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Category is the category label the entry is filed under.
	Category string   `json:"category,omitempty" yaml:"category,omitempty"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Rating is the editorial rating, 0 to 5.
	Rating     float64 `json:"rating" yaml:"rating"`
	Popularity float64 `json:"popularity" yaml:"popularity"`

	// LastUpdated is the zero time when unknown.
	LastUpdated time.Time `json:"lastUpdated" yaml:"lastUpdated"`

	// Relevance is the heuristic ranking signal. It is not bounded to [0,1].
	Relevance float64 `json:"relevance" yaml:"relevance"`

	Type ContentType `json:"type,omitempty" yaml:"type,omitempty"`

	Views int64 `json:"views" yaml:"views"`
	Likes int64 `json:"likes" yaml:"likes"`

	Price    PriceTier `json:"price,omitempty" yaml:"price,omitempty"`
	Features []string  `json:"features,omitempty" yaml:"features,omitempty"`

	UserRating  float64 `json:"userRating" yaml:"userRating"`
	ReviewCount int64   `json:"reviewCount" yaml:"reviewCount"`
}

// Results represents a ranked page of results with metadata.
type Results struct {
	// Items contains the ranked results for the requested page.
	Items []SearchResult

	// Total is the number of candidates that passed the filters. Rankers
	// that page through a remote index report the backend's count corrected
	// for the fetched page.
	Total int64

	// Took is the time taken to rank in milliseconds.
	Took int64

	// MaxScore is the highest adjusted relevance on the page.
	MaxScore float64

	// Query is the original query string for reference.
	Query string

	// NextOffset can be used for pagination.
	NextOffset *int
}

// DecodeResult converts an untyped record, such as an Algolia hit or the
// object attribute of a DynamoDB item, into a SearchResult.
// Unknown keys are ignored and missing keys keep their zero value. A key
// whose value does not fit its field is dropped and reported, so one bad
// attribute never costs the whole entry. Only a record with neither an id
// nor an objectID is rejected.
func DecodeResult(fields map[string]any) (SearchResult, []string, error) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	valid := make(map[string]any, len(fields))
	var dropped []string
	for _, key := range keys {
		if err := decodeField(key, fields[key]); err != nil {
			dropped = append(dropped, key)
			continue
		}
		valid[key] = fields[key]
	}

	data, err := json.Marshal(valid)
	if err != nil {
		return SearchResult{}, dropped, errors.WithSecondaryError(ErrMalformedRecord, errors.Wrap(err, "marshal record"))
	}

	var r SearchResult
	if err := json.Unmarshal(data, &r); err != nil {
		return SearchResult{}, dropped, errors.WithSecondaryError(ErrMalformedRecord, errors.Wrap(err, "unmarshal record"))
	}

	if r.ID == "" {
		if id, ok := fields["objectID"].(string); ok {
			r.ID = id
		}
	}
	if r.ID == "" {
		return SearchResult{}, dropped, errors.WithSecondaryError(ErrMalformedRecord, errors.New("record has no id"))
	}
	return r, dropped, nil
}

func decodeField(key string, value any) error {
	data, err := json.Marshal(map[string]any{key: value})
	if err != nil {
		return err
	}
	var r SearchResult
	return json.Unmarshal(data, &r)
}

// EncodeResult converts a SearchResult into an untyped record suitable for
// indexing backends that take maps.
func EncodeResult(r SearchResult) (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "marshal result")
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrap(err, "unmarshal result")
	}
	return fields, nil
}
