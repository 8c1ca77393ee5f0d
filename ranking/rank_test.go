package ranking

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letmevibethatforyou/toolrank"
)

func TestRankAt(t *testing.T) {
	candidates := fixtureCandidates()
	original := fixtureCandidates()

	prefs := &toolrank.UserPreferences{
		FavoriteCategories: []string{"image"},
		PreferredPrice:     toolrank.PricePaid,
		MinRating:          4.5,
	}

	ranked, err := RankAt(refNow, candidates, toolrank.FilterState{MinRating: 3}, toolrank.SortRelevance, prefs)
	require.NoError(t, err)

	// chatbot: 0.5 + 0.1 rating + 0.2 week + 0.3 engagement
	// painter: 0.4 + 0.3 category + 0.2 price + 0.1 month
	// transcriber: 0.3 + 0.1 views + 0.1 reviews
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"chatbot", "painter", "transcriber"}, ids(ranked))
	assert.InDelta(t, 1.1, ranked[0].Relevance, 1e-9)
	assert.InDelta(t, 1.0, ranked[1].Relevance, 1e-9)
	assert.InDelta(t, 0.5, ranked[2].Relevance, 1e-9)

	assert.Equal(t, original, candidates, "input must not be mutated")
}

func TestRankAtUsesPreferredSortKey(t *testing.T) {
	candidates := []toolrank.SearchResult{
		{ID: "popular", Popularity: 99, Relevance: 0.1},
		{ID: "relevant", Popularity: 1, Relevance: 0.9},
	}

	ranked, err := RankAt(refNow, candidates, toolrank.FilterState{}, "", &toolrank.UserPreferences{SortBy: toolrank.SortPopularity})
	require.NoError(t, err)
	assert.Equal(t, []string{"popular", "relevant"}, ids(ranked))

	ranked, err = RankAt(refNow, candidates, toolrank.FilterState{}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"relevant", "popular"}, ids(ranked))

	ranked, err = RankAt(refNow, candidates, toolrank.FilterState{}, toolrank.SortRelevance, &toolrank.UserPreferences{SortBy: toolrank.SortPopularity})
	require.NoError(t, err)
	assert.Equal(t, []string{"relevant", "popular"}, ids(ranked))
}

func TestRankInvalidSortKey(t *testing.T) {
	_, err := Rank(nil, toolrank.FilterState{}, "newest", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, toolrank.ErrInvalidSortKey))

	_, err = Rank(fixtureCandidates(), toolrank.FilterState{}, "newest", nil)
	assert.True(t, errors.Is(err, toolrank.ErrInvalidSortKey))
}

func TestRankEmptyInput(t *testing.T) {
	ranked, err := Rank(nil, toolrank.FilterState{MinRating: 4}, toolrank.SortRating, nil)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestRankRatingSortedExample(t *testing.T) {
	candidates := []toolrank.SearchResult{
		{ID: "a", Rating: 4.5, Price: toolrank.PriceFree},
		{ID: "b", Rating: 3.0, Price: toolrank.PricePaid},
		{ID: "c", Rating: 4.8, Price: toolrank.PricePaid},
	}

	ranked, err := RankAt(refNow, candidates, toolrank.FilterState{MinRating: 4, Price: toolrank.PriceAll}, toolrank.SortRating, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids(ranked))
}
