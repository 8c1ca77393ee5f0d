package recent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchesAdd(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, q := range []string{"image", "  ", "audio", "Image", "video"} {
		require.NoError(t, s.Add(ctx, q))
	}

	got, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"video", "Image", "audio"}, got)
}

func TestSearchesCapsHistory(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore(), WithMax(3))

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Add(ctx, fmt.Sprintf("q%d", i)))
	}

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"q9", "q8", "q7"}, got)
}

func TestSearchesDefaultMax(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore(), WithMax(0))

	for i := 0; i < 8; i++ {
		require.NoError(t, s.Add(ctx, fmt.Sprintf("q%d", i)))
	}

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, DefaultMax)
}

func TestSearchesKeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	alice := New(store, WithKey("alice"))
	bob := New(store, WithKey("bob"))

	require.NoError(t, alice.Add(ctx, "writing"))
	require.NoError(t, bob.Add(ctx, "audio"))

	a, _ := alice.List(ctx)
	b, _ := bob.List(ctx)
	assert.Equal(t, []string{"writing"}, a)
	assert.Equal(t, []string{"audio"}, b)
}

func TestSearchesClear(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore())

	require.NoError(t, s.Add(ctx, "image"))
	require.NoError(t, s.Clear(ctx))

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchesCorruptHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, DefaultKey, []byte("{broken")))

	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	s := New(store)
	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Contains(t, logs.String(), "Discarding corrupt recent searches")
	assert.Contains(t, logs.String(), "key="+DefaultKey)

	require.NoError(t, s.Add(ctx, "fresh"))
	got, _ = s.List(ctx)
	assert.Equal(t, []string{"fresh"}, got)
}

func TestSearchesConcurrentAdd(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore(), WithMax(50))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Add(ctx, fmt.Sprintf("q%d", i)))
		}(i)
	}
	wg.Wait()

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}

func (failingStore) Set(context.Context, string, []byte) error {
	return errors.New("store down")
}

func TestSearchesStoreErrors(t *testing.T) {
	ctx := context.Background()
	s := New(failingStore{})

	_, err := s.List(ctx)
	assert.ErrorContains(t, err, "store down")
	assert.ErrorContains(t, s.Add(ctx, "x"), "store down")
	assert.ErrorContains(t, s.Clear(ctx), "store down")
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	v := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", v))
	v[0] = 'z'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))

	_, ok, err = m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

// mockDynamoDBClient implements DynamoDBClient over a map keyed by pk.
type mockDynamoDBClient struct {
	items  map[string]map[string]types.AttributeValue
	getErr error
	putErr error
	table  string
}

func newMockDynamoDBClient() *mockDynamoDBClient {
	return &mockDynamoDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func (m *mockDynamoDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.table = aws.ToString(params.TableName)
	pk := params.Key["pk"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: m.items[pk]}, nil
}

func (m *mockDynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.table = aws.ToString(params.TableName)
	pk := params.Item["pk"].(*types.AttributeValueMemberS).Value
	m.items[pk] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoStore(t *testing.T) {
	ctx := context.Background()
	client := newMockDynamoDBClient()
	store := NewDynamoStore(client, "recent-searches")

	_, ok, err := store.Get(ctx, "user#1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "user#1", []byte(`["image"]`)))
	assert.Equal(t, "recent-searches", client.table)

	got, ok, err := store.Get(ctx, "user#1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `["image"]`, string(got))

	s := New(store, WithKey("user#1"))
	require.NoError(t, s.Add(ctx, "audio"))
	history, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"audio", "image"}, history)
}

func TestDynamoStoreErrors(t *testing.T) {
	ctx := context.Background()
	client := newMockDynamoDBClient()
	client.getErr = errors.New("throttled")
	client.putErr = errors.New("throttled")
	store := NewDynamoStore(client, "recent-searches")

	_, _, err := store.Get(ctx, "k")
	assert.ErrorContains(t, err, "failed to get item")
	assert.ErrorContains(t, store.Set(ctx, "k", []byte("v")), "failed to put item")
}
