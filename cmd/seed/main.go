package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/urfave/cli/v2"

	"github.com/letmevibethatforyou/toolrank"
	"github.com/letmevibethatforyou/toolrank/internal/catalog"
	"github.com/letmevibethatforyou/toolrank/internal/ddb"
	"github.com/letmevibethatforyou/toolrank/internal/logging"
)

// ItemPutter is the DynamoDB operation the seeder needs.
type ItemPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

func insertEntry(ctx context.Context, client ItemPutter, tableName, indexName string, entry toolrank.SearchResult) error {
	item, err := ddb.MarshalRecord(indexName, entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry record: %w", err)
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}

	slog.InfoContext(ctx, "Successfully inserted entry",
		"id", entry.ID,
		"title", entry.Title,
		"category", entry.Category,
		"index", indexName,
	)

	return nil
}

// seed writes every entry, assigning IDs to those without one.
func seed(ctx context.Context, client ItemPutter, tableName, indexName string, entries []toolrank.SearchResult) error {
	if n := catalog.AssignIDs(entries); n > 0 {
		slog.InfoContext(ctx, "Assigned IDs to entries without one", "count", n)
	}

	for i, entry := range entries {
		if err := insertEntry(ctx, client, tableName, indexName, entry); err != nil {
			return fmt.Errorf("failed to insert entry %d: %w", i+1, err)
		}
	}
	return nil
}

func runAction(c *cli.Context) error {
	if err := logging.Setup("", c.String("log-level")); err != nil {
		return err
	}

	ctx := c.Context
	path := c.String("catalog")
	tableName := c.String("table-name")
	indexName := c.String("index")

	slog.InfoContext(ctx, "Starting catalog seed",
		"catalog", path,
		"table", tableName,
		"index", indexName,
	)

	entries, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	if err := seed(ctx, dynamodb.NewFromConfig(cfg), tableName, indexName, entries); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Successfully inserted all entries", "count", len(entries))
	return nil
}

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "Load a catalog file into the DynamoDB table that feeds the Algolia index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "catalog",
				Aliases:  []string{"c"},
				Usage:    "Catalog file (.json, .yaml)",
				EnvVars:  []string{"TOOLRANK_CATALOG"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "table-name",
				Aliases:  []string{"t"},
				Usage:    "DynamoDB table name",
				EnvVars:  []string{"TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Algolia index the entries belong to",
				EnvVars: []string{"ALGOLIA_INDEX"},
				Value:   "tools",
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
