// Package catalog reads directory entries and ranking profiles from local files.
package catalog

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/segmentio/ksuid"
	"gopkg.in/yaml.v3"

	"github.com/letmevibethatforyou/toolrank"
	"github.com/letmevibethatforyou/toolrank/ranking"
)

// Format names a catalog file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for files whose extension is not recognised.
var ErrUnknownFormat = errors.New("unknown catalog format")

// FormatOf infers the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.Wrapf(ErrUnknownFormat, "file %s", path)
	}
}

// LoadFile reads a list of entries from a .json, .yaml or .yml file.
func LoadFile(path string) ([]toolrank.SearchResult, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", path)
	}

	results, err := Decode(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "decode catalog %s", path)
	}
	return results, nil
}

// Decode parses a list of entries. Duplicate IDs are rejected; entries
// without an ID are kept so callers can assign one.
func Decode(data []byte, format Format) ([]toolrank.SearchResult, error) {
	var results []toolrank.SearchResult

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&results); err != nil {
			return nil, errors.WithSecondaryError(toolrank.ErrMalformedRecord, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&results); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.WithSecondaryError(toolrank.ErrMalformedRecord, err)
		}
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "format %q", format)
	}

	seen := make(map[string]struct{}, len(results))
	for i, r := range results {
		if r.ID == "" {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			return nil, errors.WithSecondaryError(toolrank.ErrMalformedRecord,
				errors.Newf("entry %d: duplicate id %q", i, r.ID))
		}
		seen[r.ID] = struct{}{}
	}
	return results, nil
}

// LoadEngagement reads a map of entry ID to engagement signals from a .json,
// .yaml or .yml file.
func LoadEngagement(path string) (toolrank.StaticEngagement, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read engagement %s", path)
	}

	signals := toolrank.StaticEngagement{}
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &signals)
	case FormatYAML:
		err = yaml.Unmarshal(data, &signals)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.WithSecondaryError(toolrank.ErrMalformedRecord, err), "decode engagement %s", path)
	}
	return signals, nil
}

// AssignIDs gives every entry without an ID a fresh KSUID and reports how
// many were assigned.
func AssignIDs(results []toolrank.SearchResult) int {
	assigned := 0
	for i := range results {
		if results[i].ID == "" {
			results[i].ID = ksuid.New().String()
			assigned++
		}
	}
	return assigned
}

// Profile is a saved ranking setup: default filters plus the user's preferences.
type Profile struct {
	Filters     toolrank.FilterState     `toml:"filters"`
	Preferences toolrank.UserPreferences `toml:"preferences"`
}

// LoadProfile reads a TOML profile such as:
//
//	[filters]
//	price = "free"
//
//	[preferences]
//	favorite_categories = ["writing"]
//	sort_by = "rating"
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errors.Wrapf(err, "read profile %s", path)
	}

	var p Profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return Profile{}, errors.Wrapf(err, "decode profile %s", path)
	}

	if err := p.normalize(); err != nil {
		return Profile{}, errors.Wrapf(err, "profile %s", path)
	}
	return p, nil
}

// normalize canonicalises the enumerated fields and rejects unknown values.
func (p *Profile) normalize() error {
	var err error
	if p.Filters.Price, err = toolrank.ParsePriceTier(string(p.Filters.Price)); err != nil {
		return err
	}
	if p.Filters.DateRange, err = toolrank.ParseDateRange(string(p.Filters.DateRange)); err != nil {
		return err
	}
	if p.Preferences.PreferredPrice, err = toolrank.ParsePriceTier(string(p.Preferences.PreferredPrice)); err != nil {
		return err
	}
	if p.Preferences.SortBy != "" {
		if _, err := ranking.ComparatorFor(p.Preferences.SortBy); err != nil {
			return err
		}
	}
	return nil
}
