package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/urfave/cli/v2"

	"github.com/letmevibethatforyou/toolrank"
	"github.com/letmevibethatforyou/toolrank/algolia"
	"github.com/letmevibethatforyou/toolrank/internal/catalog"
	"github.com/letmevibethatforyou/toolrank/internal/logging"
	"github.com/letmevibethatforyou/toolrank/ranking"
	"github.com/letmevibethatforyou/toolrank/recent"
)

const (
	defaultLimit   = toolrank.DefaultLimit
	defaultTimeout = 5 * time.Second
)

func main() {
	app := &cli.App{
		Name:  "query",
		Usage: "Rank directory entries from a catalog file or an Algolia index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "catalog",
				Aliases: []string{"c"},
				Usage:   "Catalog file (.json, .yaml) to rank in memory",
				EnvVars: []string{"TOOLRANK_CATALOG"},
			},
			&cli.StringFlag{
				Name:    "engagement",
				Usage:   "File of per-entry engagement signals applied to the catalog",
				EnvVars: []string{"TOOLRANK_ENGAGEMENT"},
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Algolia index name; used when no catalog file is given",
				EnvVars: []string{"ALGOLIA_INDEX"},
			},
			&cli.StringFlag{
				Name:    "algolia-secret-arn",
				Usage:   "ARN of AWS Secrets Manager secret containing Algolia credentials",
				EnvVars: []string{"ALGOLIA_SECRET_ARN"},
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment name for the {env}/algolia secret",
				EnvVars: []string{"ENV", "ENVIRONMENT"},
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query string to search for; positional arg is a fallback",
			},
			&cli.StringFlag{
				Name:    "profile",
				Usage:   "TOML profile with default [filters] and [preferences]",
				EnvVars: []string{"TOOLRANK_PROFILE"},
			},
			&cli.StringSliceFlag{
				Name:  "category",
				Usage: "Category to include; repeatable",
			},
			&cli.Float64Flag{
				Name:  "min-rating",
				Usage: "Minimum rating, inclusive",
			},
			&cli.Float64Flag{
				Name:  "min-popularity",
				Usage: "Minimum popularity, inclusive",
			},
			&cli.StringFlag{
				Name:  "date-range",
				Usage: "Updated within: all, week, month, year",
			},
			&cli.StringFlag{
				Name:  "price",
				Usage: "Price tier: all, free, paid, freemium",
			},
			&cli.StringSliceFlag{
				Name:  "feature",
				Usage: "Feature every result must offer; repeatable",
			},
			&cli.StringFlag{
				Name:    "sort",
				Aliases: []string{"s"},
				Usage:   "Sort key: " + strings.Join(sortKeyNames(), ", "),
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of results to return",
				Value:   defaultLimit,
			},
			&cli.IntFlag{
				Name:    "offset",
				Aliases: []string{"o"},
				Usage:   "Number of results to skip before returning hits",
				Value:   0,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for the ranking request",
				Value: defaultTimeout,
			},
			&cli.StringFlag{
				Name:    "history-table",
				Usage:   "DynamoDB table that keeps recent searches",
				EnvVars: []string{"HISTORY_TABLE"},
			},
			&cli.StringFlag{
				Name:  "history-key",
				Usage: "Key of the recent-search list, for example a user ID",
				Value: recent.DefaultKey,
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

	query := strings.TrimSpace(c.String("query"))
	if query == "" && c.NArg() > 0 {
		query = strings.TrimSpace(c.Args().First())
	}

	limit := c.Int("limit")
	if limit <= 0 {
		slog.WarnContext(ctx, "limit must be positive; falling back to default", "limit", limit, "default", defaultLimit)
		limit = defaultLimit
	}

	offset := c.Int("offset")
	if offset < 0 {
		slog.WarnContext(ctx, "offset cannot be negative; resetting to 0", "offset", offset)
		offset = 0
	}

	timeout := c.Duration("timeout")
	if timeout <= 0 {
		slog.WarnContext(ctx, "timeout must be positive; using default", "timeout", timeout, "default", defaultTimeout)
		timeout = defaultTimeout
	}

	var profile catalog.Profile
	if path := c.String("profile"); path != "" {
		p, err := catalog.LoadProfile(path)
		if err != nil {
			return err
		}
		profile = p
	}

	filters, err := applyFilterFlags(profile.Filters, filterFlags{
		categories:    c.StringSlice("category"),
		minRating:     c.Float64("min-rating"),
		minPopularity: c.Float64("min-popularity"),
		dateRange:     c.String("date-range"),
		price:         c.String("price"),
		features:      c.StringSlice("feature"),
	})
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	ranker, err := buildRanker(ctx, c)
	if err != nil {
		return err
	}

	opts := []toolrank.RankOption{
		toolrank.WithLimit(limit),
		toolrank.WithOffset(offset),
		toolrank.WithFilters(filters),
		toolrank.WithSort(toolrank.SortKey(strings.ToLower(c.String("sort")))),
	}
	if c.IsSet("profile") {
		opts = append(opts, toolrank.WithPreferences(&profile.Preferences))
	}

	history, err := buildHistory(ctx, c)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "executing query",
		"query", query,
		"limit", limit,
		"offset", offset,
		"filters_active", !filters.IsEmpty(),
		"sort", c.String("sort"),
		"timeout", timeout,
	)

	rankCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := ranker.Rank(rankCtx, query, opts...)
	if err != nil {
		return fmt.Errorf("ranking failed: %w", err)
	}

	var recentQueries []string
	if history != nil {
		if err := history.Add(ctx, query); err != nil {
			slog.WarnContext(ctx, "failed to record search", "error", err)
		}
		if recentQueries, err = history.List(ctx); err != nil {
			slog.WarnContext(ctx, "failed to load recent searches", "error", err)
		}
	}

	if err := printResults(os.Stdout, results, recentQueries); err != nil {
		return fmt.Errorf("failed to serialize results: %w", err)
	}

	return nil
}

// buildRanker ranks a local catalog when one is given and an Algolia index otherwise.
func buildRanker(ctx context.Context, c *cli.Context) (toolrank.Ranker, error) {
	if path := c.String("catalog"); path != "" {
		entries, err := catalog.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if n := catalog.AssignIDs(entries); n > 0 {
			slog.DebugContext(ctx, "assigned IDs to catalog entries", "count", n)
		}

		var opts []ranking.CatalogOption
		if signals := c.String("engagement"); signals != "" {
			src, err := catalog.LoadEngagement(signals)
			if err != nil {
				return nil, err
			}
			opts = append(opts, ranking.WithEngagementSource(src))
		}

		cat := ranking.NewCatalog(opts...)
		cat.Add(entries...)
		slog.InfoContext(ctx, "loaded catalog", "path", path, "entries", cat.Size())
		return cat, nil
	}

	indexName := strings.TrimSpace(c.String("index"))
	if indexName == "" {
		return nil, fmt.Errorf("either --catalog or --index is required")
	}

	var fetchSecrets algolia.FetchSecrets
	secretArn := strings.TrimSpace(c.String("algolia-secret-arn"))
	env := strings.TrimSpace(c.String("env"))
	switch {
	case secretArn != "":
		slog.InfoContext(ctx, "using AWS Secrets Manager for Algolia credentials", "secret_arn", secretArn)
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		fetchSecrets = algolia.AWSSecretsFromARN(ctx, secretsmanager.NewFromConfig(cfg), secretArn)
	case env != "":
		slog.InfoContext(ctx, "using AWS Secrets Manager for Algolia credentials", "environment", env)
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		fetchSecrets = algolia.AWSSecrets(ctx, secretsmanager.NewFromConfig(cfg), env)
	default:
		fetchSecrets = algolia.EnvSecrets()
	}

	return algolia.NewRanker(algolia.NewClient(fetchSecrets), indexName), nil
}

func buildHistory(ctx context.Context, c *cli.Context) (*recent.Searches, error) {
	table := c.String("history-table")
	if table == "" {
		return nil, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	store := recent.NewDynamoStore(dynamodb.NewFromConfig(cfg), table)
	return recent.New(store, recent.WithKey(c.String("history-key"))), nil
}

type filterFlags struct {
	categories    []string
	minRating     float64
	minPopularity float64
	dateRange     string
	price         string
	features      []string
}

// applyFilterFlags overlays the flags that were set on base.
func applyFilterFlags(base toolrank.FilterState, flags filterFlags) (toolrank.FilterState, error) {
	f := base

	if len(flags.categories) > 0 {
		f.Categories = flags.categories
	}
	if flags.minRating < 0 || flags.minPopularity < 0 {
		return toolrank.FilterState{}, fmt.Errorf("minimums cannot be negative")
	}
	if flags.minRating > 0 {
		f.MinRating = flags.minRating
	}
	if flags.minPopularity > 0 {
		f.MinPopularity = flags.minPopularity
	}
	if flags.dateRange != "" {
		dr, err := toolrank.ParseDateRange(flags.dateRange)
		if err != nil {
			return toolrank.FilterState{}, err
		}
		f.DateRange = dr
	}
	if flags.price != "" {
		p, err := toolrank.ParsePriceTier(flags.price)
		if err != nil {
			return toolrank.FilterState{}, err
		}
		f.Price = p
	}
	if len(flags.features) > 0 {
		f.Features = flags.features
	}

	return f, nil
}

func sortKeyNames() []string {
	keys := ranking.SortKeys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	return names
}

func printResults(w io.Writer, res *toolrank.Results, recentQueries []string) error {
	if res == nil {
		_, err := fmt.Fprintln(w, "{}")
		return err
	}

	payload := struct {
		Total      int64                   `json:"total"`
		Took       int64                   `json:"took_ms"`
		Query      string                  `json:"query"`
		MaxScore   float64                 `json:"max_score"`
		NextOffset *int                    `json:"next_offset,omitempty"`
		Items      []toolrank.SearchResult `json:"items"`
		Recent     []string                `json:"recent_searches,omitempty"`
	}{
		Total:      res.Total,
		Took:       res.Took,
		Query:      res.Query,
		MaxScore:   res.MaxScore,
		NextOffset: res.NextOffset,
		Items:      res.Items,
		Recent:     recentQueries,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
