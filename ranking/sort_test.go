package ranking

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letmevibethatforyou/toolrank"
)

func TestComparatorFor(t *testing.T) {
	candidates := fixtureCandidates()

	tests := map[toolrank.SortKey][]string{
		toolrank.SortRelevance:  {"chatbot", "painter", "transcriber", "legacy"},
		toolrank.SortRating:     {"chatbot", "painter", "transcriber", "legacy"},
		toolrank.SortPopularity: {"chatbot", "painter", "transcriber", "legacy"},
		toolrank.SortRecent:     {"chatbot", "painter", "transcriber", "legacy"},
		toolrank.SortViews:      {"chatbot", "transcriber", "painter", "legacy"},
		toolrank.SortLikes:      {"chatbot", "painter", "transcriber", "legacy"},
	}

	for key, expected := range tests {
		t.Run(string(key), func(t *testing.T) {
			cmp, err := ComparatorFor(key)
			require.NoError(t, err)

			// Reverse first so the comparator has to do the work.
			sorted := make([]toolrank.SearchResult, len(candidates))
			for i, r := range candidates {
				sorted[len(candidates)-1-i] = r
			}
			Sort(sorted, cmp)
			assert.Equal(t, expected, ids(sorted))
		})
	}
}

func TestComparatorForEmptyKeyIsRelevance(t *testing.T) {
	cmp, err := ComparatorFor("")
	require.NoError(t, err)

	low := toolrank.SearchResult{Relevance: 0.1}
	high := toolrank.SearchResult{Relevance: 0.9}
	assert.Negative(t, cmp(high, low))
	assert.Positive(t, cmp(low, high))
	assert.Zero(t, cmp(low, low))
}

func TestComparatorForUnknownKey(t *testing.T) {
	cmp, err := ComparatorFor("downloads")

	require.Error(t, err)
	assert.Nil(t, cmp)
	assert.True(t, errors.Is(err, toolrank.ErrInvalidSortKey))
	assert.Contains(t, err.Error(), "downloads")
}

func TestSortByLikes(t *testing.T) {
	candidates := []toolrank.SearchResult{
		{ID: "five", Likes: 5},
		{ID: "fifty", Likes: 50},
		{ID: "one", Likes: 1},
	}

	cmp, err := ComparatorFor(toolrank.SortLikes)
	require.NoError(t, err)
	Sort(candidates, cmp)

	assert.Equal(t, []string{"fifty", "five", "one"}, ids(candidates))
}

func TestSortByRatingIsNonIncreasing(t *testing.T) {
	candidates := []toolrank.SearchResult{
		{Rating: 2.5}, {Rating: 4.9}, {Rating: 0}, {Rating: 4.9}, {Rating: 3.3}, {Rating: 1},
	}

	cmp, err := ComparatorFor(toolrank.SortRating)
	require.NoError(t, err)
	Sort(candidates, cmp)

	for i := 0; i+1 < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i].Rating, candidates[i+1].Rating)
	}
}

func TestSortIsStable(t *testing.T) {
	candidates := []toolrank.SearchResult{
		{ID: "a", Rating: 4},
		{ID: "b", Rating: 5},
		{ID: "c", Rating: 4},
		{ID: "d", Rating: 4},
	}

	cmp, err := ComparatorFor(toolrank.SortRating)
	require.NoError(t, err)
	Sort(candidates, cmp)

	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(candidates))
}

func TestSortKeysAreRegistered(t *testing.T) {
	keys := SortKeys()
	assert.Len(t, keys, len(registry))
	for _, k := range keys {
		_, err := ComparatorFor(k)
		assert.NoError(t, err, k)
	}
}

func TestSortPutsNaNLast(t *testing.T) {
	nan := math.NaN()
	candidates := []toolrank.SearchResult{
		{ID: "nan-a", Rating: nan},
		{ID: "three", Rating: 3},
		{ID: "nan-b", Rating: nan},
		{ID: "five", Rating: 5},
		{ID: "one", Rating: 1},
		{ID: "four", Rating: 4},
	}

	cmp, err := ComparatorFor(toolrank.SortRating)
	require.NoError(t, err)
	Sort(candidates, cmp)

	assert.Equal(t, []string{"five", "four", "three", "one", "nan-a", "nan-b"}, ids(candidates))
	assert.Zero(t, cmp(candidates[4], candidates[5]))
	assert.Positive(t, cmp(candidates[4], candidates[0]))
	assert.Negative(t, cmp(candidates[0], candidates[4]))
}
