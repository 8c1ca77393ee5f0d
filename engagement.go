package toolrank

import "context"

// Engagement holds the audience signals of a single result.
type Engagement struct {
	Views       int64 `json:"views" yaml:"views"`
	Likes       int64 `json:"likes" yaml:"likes"`
	ReviewCount int64 `json:"reviewCount" yaml:"reviewCount"`
}

// EngagementSource supplies live engagement signals for results by ID.
// IDs missing from the returned map keep the values already on the result.
type EngagementSource interface {
	Engagement(ctx context.Context, ids []string) (map[string]Engagement, error)
}

// StaticEngagement is an EngagementSource backed by a fixed map.
type StaticEngagement map[string]Engagement

// Engagement implements EngagementSource.
func (s StaticEngagement) Engagement(_ context.Context, ids []string) (map[string]Engagement, error) {
	out := make(map[string]Engagement, len(ids))
	for _, id := range ids {
		if e, ok := s[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

// Apply returns a copy of r with the engagement signals replaced.
func (e Engagement) Apply(r SearchResult) SearchResult {
	r.Views = e.Views
	r.Likes = e.Likes
	r.ReviewCount = e.ReviewCount
	return r
}
