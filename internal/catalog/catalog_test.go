package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letmevibethatforyou/toolrank"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFormatOf(t *testing.T) {
	tests := map[string]struct {
		path     string
		expected Format
		wantErr  bool
	}{
		"json":         {path: "tools.json", expected: FormatJSON},
		"yaml":         {path: "tools.yaml", expected: FormatYAML},
		"yml_upper":    {path: "TOOLS.YML", expected: FormatYAML},
		"toml":         {path: "tools.toml", wantErr: true},
		"no_extension": {path: "tools", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			format, err := FormatOf(tt.path)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnknownFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, "tools.json", `[
		{"id": "chatbot", "title": "Chat Assistant", "category": "writing", "rating": 4.6,
		 "price": "freemium", "features": ["api"], "lastUpdated": "2026-03-13T00:00:00Z", "views": 5000},
		{"title": "Unnamed"}
	]`)

	results, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "chatbot", results[0].ID)
	assert.Equal(t, toolrank.PriceFreemium, results[0].Price)
	assert.Equal(t, []string{"api"}, results[0].Features)
	assert.Equal(t, time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), results[0].LastUpdated)
	assert.EqualValues(t, 5000, results[0].Views)

	assert.Empty(t, results[1].ID)
	assert.True(t, results[1].LastUpdated.IsZero())
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "tools.yaml", `
- id: painter
  title: Image Painter
  category: image
  rating: 4.1
  popularity: 70
  price: paid
  lastUpdated: 2026-02-23T00:00:00Z
  tags: [art, diffusion]
- id: transcriber
  title: Transcriber
  category: audio
  reviewCount: 12
`)

	results, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "painter", results[0].ID)
	assert.Equal(t, toolrank.PricePaid, results[0].Price)
	assert.Equal(t, []string{"art", "diffusion"}, results[0].Tags)
	assert.InDelta(t, 70, results[0].Popularity, 1e-9)
	assert.Equal(t, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), results[0].LastUpdated.UTC())
	assert.EqualValues(t, 12, results[1].ReviewCount)
}

func TestLoadFileErrors(t *testing.T) {
	tests := map[string]struct {
		name        string
		content     string
		malformed   bool
		errContains string
	}{
		"unknown_json_field": {
			name:      "tools.json",
			content:   `[{"id": "a", "stars": 5}]`,
			malformed: true,
		},
		"unknown_yaml_field": {
			name:      "tools.yml",
			content:   "- id: a\n  stars: 5\n",
			malformed: true,
		},
		"wrong_type": {
			name:      "tools.json",
			content:   `[{"id": "a", "rating": "excellent"}]`,
			malformed: true,
		},
		"duplicate_id": {
			name:        "tools.json",
			content:     `[{"id": "a"}, {"id": "a"}]`,
			malformed:   true,
			errContains: `duplicate id "a"`,
		},
		"unsupported_extension": {
			name:        "tools.csv",
			content:     "id,title\n",
			errContains: "unknown catalog format",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.name, tt.content))
			require.Error(t, err)
			assert.Equal(t, tt.malformed, errors.Is(err, toolrank.ErrMalformedRecord), "got %v", err)
			if tt.errContains != "" {
				assert.Contains(t, err.Error(), tt.errContains)
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDecodeEmptyYAML(t *testing.T) {
	results, err := Decode(nil, FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLoadProfile(t *testing.T) {
	path := writeFile(t, "profile.toml", `
[filters]
categories = ["writing", "image"]
min_rating = 4.0
date_range = "Month"
price = "FREE"

[preferences]
favorite_categories = ["writing"]
preferred_price = "freemium"
min_rating = 4.5
sort_by = "rating"
`)

	profile, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"writing", "image"}, profile.Filters.Categories)
	assert.InDelta(t, 4.0, profile.Filters.MinRating, 1e-9)
	assert.Equal(t, toolrank.DateMonth, profile.Filters.DateRange)
	assert.Equal(t, toolrank.PriceFree, profile.Filters.Price)

	assert.Equal(t, []string{"writing"}, profile.Preferences.FavoriteCategories)
	assert.Equal(t, toolrank.PriceFreemium, profile.Preferences.PreferredPrice)
	assert.InDelta(t, 4.5, profile.Preferences.MinRating, 1e-9)
	assert.Equal(t, toolrank.SortRating, profile.Preferences.SortBy)
}

func TestLoadProfileDefaults(t *testing.T) {
	profile, err := LoadProfile(writeFile(t, "empty.toml", ""))
	require.NoError(t, err)
	assert.True(t, profile.Filters.IsEmpty())
	assert.Equal(t, toolrank.PriceAll, profile.Preferences.PreferredPrice)
}

func TestLoadProfileErrors(t *testing.T) {
	tests := map[string]struct {
		content  string
		sentinel error
	}{
		"unknown_price": {content: "[filters]\nprice = \"cheap\"\n", sentinel: toolrank.ErrInvalidOption},
		"unknown_range": {content: "[filters]\ndate_range = \"decade\"\n", sentinel: toolrank.ErrInvalidOption},
		"unknown_sort":  {content: "[preferences]\nsort_by = \"downloads\"\n", sentinel: toolrank.ErrInvalidSortKey},
		"invalid_toml":  {content: "[filters\n"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadProfile(writeFile(t, "profile.toml", tt.content))
			require.Error(t, err)
			if tt.sentinel != nil {
				assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			}
		})
	}
}

func TestLoadEngagement(t *testing.T) {
	jsonPath := writeFile(t, "signals.json", `{"chatbot": {"views": 9000, "likes": 120, "reviewCount": 3}}`)
	signals, err := LoadEngagement(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, toolrank.StaticEngagement{
		"chatbot": {Views: 9000, Likes: 120, ReviewCount: 3},
	}, signals)

	yamlPath := writeFile(t, "signals.yaml", "painter:\n  views: 10\n  reviewCount: 11\n")
	signals, err = LoadEngagement(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, toolrank.Engagement{Views: 10, ReviewCount: 11}, signals["painter"])

	_, err = LoadEngagement(writeFile(t, "signals.json", `{"chatbot": {"views": "many"}}`))
	assert.True(t, errors.Is(err, toolrank.ErrMalformedRecord))
}

func TestAssignIDs(t *testing.T) {
	results := []toolrank.SearchResult{{ID: "kept"}, {Title: "a"}, {Title: "b"}}

	assert.Equal(t, 2, AssignIDs(results))
	assert.Equal(t, "kept", results[0].ID)
	assert.Len(t, results[1].ID, 27)
	assert.NotEqual(t, results[1].ID, results[2].ID)

	assert.Zero(t, AssignIDs(results))
}
