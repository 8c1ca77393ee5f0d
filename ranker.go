package toolrank

import "context"

// Ranker defines the core ranking interface.
type Ranker interface {
	// Rank executes a query against the ranker's candidates with the given options.
	Rank(ctx context.Context, query string, opts ...RankOption) (*Results, error)
}

// RankerFunc is a function type that implements the Ranker interface.
// This allows using a function as a Ranker, similar to http.HandlerFunc.
type RankerFunc func(context.Context, string, ...RankOption) (*Results, error)

// Rank implements the Ranker interface for RankerFunc.
func (f RankerFunc) Rank(ctx context.Context, query string, opts ...RankOption) (*Results, error) {
	return f(ctx, query, opts...)
}
