// Package recent keeps a short most-recent-first list of search queries in a
// pluggable key-value store.
package recent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// DefaultMax is the number of queries kept when no limit is configured.
const DefaultMax = 5

// DefaultKey is the store key used when none is configured.
const DefaultKey = "recent-searches"

// Store is a minimal key-value store.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}

// Searches records recent queries under a single store key.
//
// Add and Clear are serialised within one Searches value, so concurrent calls
// on it never lose a query. Separate processes writing the same key through a
// shared store still race, and the last write wins.
type Searches struct {
	mu    sync.Mutex
	store Store
	key   string
	max   int
}

// Option configures Searches.
type Option func(*Searches)

// WithKey sets the store key, for example to keep one history per user.
func WithKey(key string) Option {
	return func(s *Searches) {
		s.key = key
	}
}

// WithMax sets how many queries are kept.
func WithMax(n int) Option {
	return func(s *Searches) {
		if n > 0 {
			s.max = n
		}
	}
}

// New creates a recent-search history backed by store.
func New(store Store, opts ...Option) *Searches {
	s := &Searches{
		store: store,
		key:   DefaultKey,
		max:   DefaultMax,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add records query as the most recent search. Blank queries are ignored.
// A query already in the history, compared case-insensitively, moves to the front.
func (s *Searches) Add(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.List(ctx)
	if err != nil {
		return err
	}

	next := make([]string, 0, s.max)
	next = append(next, query)
	for _, q := range current {
		if len(next) == s.max {
			break
		}
		if strings.EqualFold(q, query) {
			continue
		}
		next = append(next, q)
	}

	return s.save(ctx, next)
}

// List returns the history, most recent first.
func (s *Searches) List(ctx context.Context) ([]string, error) {
	data, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return nil, errors.Wrapf(err, "load recent searches %q", s.key)
	}
	if !ok || len(data) == 0 {
		return []string{}, nil
	}

	var queries []string
	if err := json.Unmarshal(data, &queries); err != nil {
		// A corrupt history is dropped rather than blocking new searches.
		slog.WarnContext(ctx, "Discarding corrupt recent searches", "key", s.key, "error", err)
		return []string{}, nil
	}
	if len(queries) > s.max {
		queries = queries[:s.max]
	}
	return queries, nil
}

// Clear empties the history.
func (s *Searches) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, []string{})
}

func (s *Searches) save(ctx context.Context, queries []string) error {
	data, err := json.Marshal(queries)
	if err != nil {
		return errors.Wrap(err, "marshal recent searches")
	}
	if err := s.store.Set(ctx, s.key, data); err != nil {
		return errors.Wrapf(err, "save recent searches %q", s.key)
	}
	return nil
}

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}
