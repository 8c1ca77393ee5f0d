// Package algolia ranks directory entries held in an Algolia index and keeps
// that index in sync with the catalog.
package algolia

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/letmevibethatforyou/toolrank"
)

// Secrets holds the Algolia application credentials.
type Secrets struct {
	// AppID is the Algolia application ID.
	AppID string `json:"app_id"`
	// WriteApiKey is the Algolia write API key.
	WriteApiKey string `json:"write_api_key"`
}

// FetchSecrets is a function type that retrieves Algolia credentials.
// It allows for different secret retrieval strategies (static, environment variables, etc.).
type FetchSecrets func() (Secrets, error)

// StaticSecrets returns a FetchSecrets function that provides static credentials.
func StaticSecrets(appID, writeApiKey string) FetchSecrets {
	return func() (Secrets, error) {
		return Secrets{
			AppID:       appID,
			WriteApiKey: writeApiKey,
		}, nil
	}
}

// EnvSecrets reads the credentials from ALGOLIA_APP_ID and ALGOLIA_API_KEY.
func EnvSecrets() FetchSecrets {
	return func() (Secrets, error) {
		appID := os.Getenv("ALGOLIA_APP_ID")
		if appID == "" {
			return Secrets{}, fmt.Errorf("ALGOLIA_APP_ID environment variable is not set")
		}

		apiKey := os.Getenv("ALGOLIA_API_KEY")
		if apiKey == "" {
			return Secrets{}, fmt.Errorf("ALGOLIA_API_KEY environment variable is not set")
		}

		return Secrets{
			AppID:       appID,
			WriteApiKey: apiKey,
		}, nil
	}
}

// Client is a lazily initialised Algolia client. Credentials are fetched on
// first use and the outcome is cached for the life of the client.
type Client struct {
	getClient func() (*search.Client, error)
	tracer    trace.Tracer
}

// NewClient creates a client that resolves its credentials with fetchSecrets.
func NewClient(fetchSecrets FetchSecrets) *Client {
	getClient := sync.OnceValues(func() (*search.Client, error) {
		secrets, err := fetchSecrets()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch secrets: %w", err)
		}

		if secrets.AppID == "" {
			return nil, fmt.Errorf("AppID is empty")
		}

		if secrets.WriteApiKey == "" {
			return nil, fmt.Errorf("WriteApiKey is empty")
		}

		return search.NewClient(secrets.AppID, secrets.WriteApiKey), nil
	})

	return &Client{
		getClient: getClient,
		tracer:    otel.Tracer("toolrank-algolia"),
	}
}

// Search runs a query against indexName. The context is forwarded to the
// Algolia transport with the other parameters.
func (c *Client) Search(ctx context.Context, indexName, query string, params ...interface{}) (search.QueryRes, error) {
	ctx, span := c.tracer.Start(ctx, "algolia.search",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.Int("algolia.query_length", len(query)),
		),
	)
	defer span.End()

	client, err := c.getClient()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return search.QueryRes{}, errors.Wrap(err, "failed to get Algolia client")
	}

	index := client.InitIndex(indexName)

	res, err := index.Search(query, append(params, ctx)...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to search index %s", indexName))
		return search.QueryRes{}, errors.Wrapf(err, "Algolia search on index %s failed", indexName)
	}

	span.SetAttributes(attribute.Int("algolia.hit_count", len(res.Hits)))
	span.SetStatus(codes.Ok, "search completed")
	return res, nil
}

// SaveResult upserts a result into indexName, keyed by its ID.
func (c *Client) SaveResult(ctx context.Context, indexName string, r toolrank.SearchResult) error {
	object, err := toObject(r)
	if err != nil {
		return err
	}
	return c.SaveObject(ctx, indexName, object)
}

// SaveObject upserts a raw Algolia object. The object must carry an objectID.
func (c *Client) SaveObject(ctx context.Context, indexName string, object map[string]interface{}) error {
	ctx, span := c.tracer.Start(ctx, "algolia.save_object",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
		),
	)
	defer span.End()

	if id, ok := object["objectID"].(string); ok {
		span.SetAttributes(attribute.String("algolia.object_id", id))
	}

	client, err := c.getClient()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return err
	}

	index := client.InitIndex(indexName)

	_, err = index.SaveObject(object, ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to save object to index %s", indexName))
		return fmt.Errorf("failed to save object to Algolia index %s: %w", indexName, err)
	}

	span.SetStatus(codes.Ok, "object saved successfully")
	return nil
}

// DeleteObject removes the object with objectID from indexName.
func (c *Client) DeleteObject(ctx context.Context, indexName string, objectID string) error {
	ctx, span := c.tracer.Start(ctx, "algolia.delete_object",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.String("algolia.object_id", objectID),
		),
	)
	defer span.End()

	client, err := c.getClient()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return err
	}

	index := client.InitIndex(indexName)

	_, err = index.DeleteObject(objectID, ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to delete object from index %s", indexName))
		return fmt.Errorf("failed to delete object from Algolia index %s: %w", indexName, err)
	}

	span.SetStatus(codes.Ok, "object deleted successfully")
	return nil
}

// BatchSaveResults upserts results into indexName in a single batch.
func (c *Client) BatchSaveResults(ctx context.Context, indexName string, results []toolrank.SearchResult) error {
	if len(results) == 0 {
		return nil
	}

	ctx, span := c.tracer.Start(ctx, "algolia.batch_save_objects",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.Int("algolia.object_count", len(results)),
		),
	)
	defer span.End()

	objects := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		object, err := toObject(r)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to encode results")
			return err
		}
		objects = append(objects, object)
	}

	client, err := c.getClient()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return err
	}

	index := client.InitIndex(indexName)

	_, err = index.SaveObjects(objects, ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("failed to batch save %d objects to index %s", len(objects), indexName))
		return fmt.Errorf("failed to batch save objects to Algolia index %s: %w", indexName, err)
	}

	span.SetStatus(codes.Ok, fmt.Sprintf("batch saved %d objects successfully", len(objects)))
	return nil
}

// lastUpdatedUnixAttr mirrors lastUpdated in Unix seconds so date ranges
// can be filtered numerically.
const lastUpdatedUnixAttr = "lastUpdatedUnix"

// toObject encodes r as an Algolia object with objectID set to r.ID.
func toObject(r toolrank.SearchResult) (map[string]interface{}, error) {
	if r.ID == "" {
		return nil, errors.New("result has no ID")
	}
	object, err := toolrank.EncodeResult(r)
	if err != nil {
		return nil, err
	}
	object["objectID"] = r.ID
	if !r.LastUpdated.IsZero() {
		object[lastUpdatedUnixAttr] = r.LastUpdated.Unix()
	}
	return object, nil
}
