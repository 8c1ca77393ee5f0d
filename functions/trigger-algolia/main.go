package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/urfave/cli/v2"

	"github.com/letmevibethatforyou/toolrank"
	"github.com/letmevibethatforyou/toolrank/algolia"
	"github.com/letmevibethatforyou/toolrank/internal/ddb"
	"github.com/letmevibethatforyou/toolrank/internal/logging"
)

// IndexWriter is the subset of *algolia.Client the handler writes through.
type IndexWriter interface {
	SaveResult(ctx context.Context, indexName string, r toolrank.SearchResult) error
	DeleteObject(ctx context.Context, indexName string, objectID string) error
}

type Handler struct {
	tableName string
	index     IndexWriter
}

func NewHandler(tableName string, index IndexWriter) *Handler {
	return &Handler{
		tableName: tableName,
		index:     index,
	}
}

func (h *Handler) HandleDynamoDBEvent(ctx context.Context, e ddb.DynamoDBEvent) error {
	slog.InfoContext(ctx, "Processing DynamoDB stream records", "table", h.tableName, "record_count", len(e.Records))

	for _, record := range e.Records {
		if err := h.processRecord(ctx, record); err != nil {
			slog.ErrorContext(ctx, "Error processing record", "event_id", record.EventID, "error", err)
			return err
		}
	}

	return nil
}

func (h *Handler) processRecord(ctx context.Context, record ddb.DynamoDBEventRecord) error {
	switch ddb.DynamoDBOperationType(record.EventName) {
	case ddb.DynamoDBOperationTypeInsert, ddb.DynamoDBOperationTypeModify:
		if record.Change.NewImage == nil {
			slog.WarnContext(ctx, "No new image for insert/modify operation, skipping record")
			return nil
		}

		parsedRecord, err := ddb.UnmarshalRecord(record.Change.NewImage)
		if err != nil {
			slog.WarnContext(ctx, "Failed to unmarshal record, skipping", "error", err)
			return nil
		}

		if parsedRecord.ID == "" {
			slog.WarnContext(ctx, "Missing ID (pk) in record, skipping record")
			return nil
		}
		if parsedRecord.IndexName == "" {
			slog.WarnContext(ctx, "Missing IndexName (sk) in record, skipping record", "id", parsedRecord.ID)
			return nil
		}

		result, dropped, err := parsedRecord.Result()
		if err != nil {
			slog.WarnContext(ctx, "Malformed entry, skipping record", "id", parsedRecord.ID, "index", parsedRecord.IndexName, "error", err)
			return nil
		}
		if len(dropped) > 0 {
			slog.WarnContext(ctx, "Dropping undecodable attributes", "id", parsedRecord.ID, "index", parsedRecord.IndexName, "attributes", dropped)
		}

		slog.InfoContext(ctx, "Saving entry to Algolia", "object_id", result.ID, "index", parsedRecord.IndexName)
		return h.index.SaveResult(ctx, parsedRecord.IndexName, result)

	case ddb.DynamoDBOperationTypeRemove:
		parsedRecord, err := ddb.UnmarshalRecord(record.Change.Keys)
		if err != nil {
			slog.WarnContext(ctx, "Failed to unmarshal keys for delete operation, skipping", "error", err)
			return nil
		}

		if parsedRecord.ID == "" || parsedRecord.IndexName == "" {
			slog.WarnContext(ctx, "Missing ID or IndexName in delete record, skipping record")
			return nil
		}

		slog.InfoContext(ctx, "Deleting entry from Algolia", "object_id", parsedRecord.ID, "index", parsedRecord.IndexName)
		return h.index.DeleteObject(ctx, parsedRecord.IndexName, parsedRecord.ID)

	default:
		slog.InfoContext(ctx, "Ignoring event type", "event_type", record.EventName)
		return nil
	}
}

func main() {
	app := &cli.App{
		Name:  "trigger-algolia",
		Usage: "Sync directory entries from a DynamoDB stream to Algolia",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "table-name",
				Usage:    "DynamoDB table name to sync from",
				EnvVars:  []string{"TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment name for AWS Secrets Manager (takes precedence over API key/ID flags)",
				EnvVars: []string{"ENV", "ENVIRONMENT"},
			},
			&cli.StringFlag{
				Name:    "algolia-app-id",
				Usage:   "Algolia application ID",
				EnvVars: []string{"ALGOLIA_APP_ID"},
			},
			&cli.StringFlag{
				Name:    "algolia-api-key",
				Usage:   "Algolia API key",
				EnvVars: []string{"ALGOLIA_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn, error",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	if err := logging.Setup("", c.String("log-level")); err != nil {
		return err
	}

	ctx := c.Context
	tableName := c.String("table-name")
	env := c.String("env")
	algoliaAppID := c.String("algolia-app-id")
	algoliaAPIKey := c.String("algolia-api-key")

	slog.InfoContext(ctx, "Starting DynamoDB to Algolia sync", "table", tableName, "environment", env)

	var fetchSecrets algolia.FetchSecrets

	if env != "" {
		slog.InfoContext(ctx, "Using AWS Secrets Manager for credentials", "environment", env)

		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load AWS config", "error", err)
			return err
		}

		client := secretsmanager.NewFromConfig(cfg)
		fetchSecrets = algolia.AWSSecrets(ctx, client, env)
	} else if algoliaAppID != "" && algoliaAPIKey != "" {
		slog.InfoContext(ctx, "Using static credentials from flags")
		fetchSecrets = algolia.StaticSecrets(algoliaAppID, algoliaAPIKey)
	} else {
		slog.InfoContext(ctx, "Using environment variables for credentials")
		fetchSecrets = algolia.EnvSecrets()
	}

	handler := NewHandler(tableName, algolia.NewClient(fetchSecrets))

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		slog.InfoContext(ctx, "Running in Lambda environment")
		lambda.Start(handler.HandleDynamoDBEvent)
	} else {
		slog.InfoContext(ctx, "Function cannot run outside of AWS Lambda environment")
	}

	return nil
}
