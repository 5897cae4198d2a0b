// ABOUTME: Entry point for the feed-publisher CLI
// ABOUTME: Wires config, repositories, posters and runs one publishing pass

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"feed-publisher/config"
	"feed-publisher/driver"
	"feed-publisher/models"
	"feed-publisher/repository"
	"feed-publisher/retry"
	"feed-publisher/service"
)

func main() {
	healthCheck := flag.Bool("health-check", false, "Perform health check and exit")
	envFile := flag.String("env-file", "", "Optional .env file to load before reading configuration")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load env file %s: %v\n", *envFile, err)
			os.Exit(1)
		}
	} else {
		// Best effort: a local .env is a convenience, not a requirement.
		_ = godotenv.Load()
	}

	logger := newLogger(os.Getenv("LOG_LEVEL"))
	slog.SetDefault(logger)

	if *healthCheck {
		fmt.Println("OK")
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("Feed publisher starting",
		"service", cfg.ServiceName,
		"feeds", len(cfg.Feeds.URLs),
		"max_items_per_feed", cfg.Feeds.MaxItemsPerFeed)

	if err := runPublishingPass(context.Background(), cfg, logger); err != nil {
		logger.Error("Publishing run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Feed publisher completed successfully")
}

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slogLevel,
	}))
}

func runPublishingPass(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ledgerStore, err := newLedgerStore(cfg, logger)
	if err != nil {
		return err
	}
	ledger := service.NewRedundancyLedger(ledgerStore, logger)
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Warn("Failed to close ledger", "error", err)
		}
	}()

	credentialRepo := repository.NewFileCredentialRepository(map[models.Platform]string{
		models.PlatformFacebook:  cfg.Tokens.FacebookTokenFile,
		models.PlatformInstagram: cfg.Tokens.InstagramTokenFile,
	}, logger)
	tokens := service.NewTokenStore(credentialRepo, logger)

	graphClient := driver.NewGraphClient(cfg.Graph.BaseURL, cfg.Graph.HTTPTimeout, logger)

	retryConfig := retry.DefaultConfig()
	retryConfig.MaxAttempts = cfg.Posting.RetryMaxAttempts
	retryConfig.BaseDelay = cfg.Posting.RetryBaseDelay

	gate := service.NewMediaGate(logger)

	sources := make([]service.ContentSource, 0, len(cfg.Feeds.URLs))
	for _, feedURL := range cfg.Feeds.URLs {
		sources = append(sources, service.NewRSSFeedSource(feedURL, cfg.Feeds.MaxItemsPerFeed, cfg.Feeds.FetchTimeout, logger))
	}

	publisher := service.NewPublishingService(
		service.NewAggregatedContentSource(sources, logger),
		tokens,
		gate,
		service.NewFacebookPoster(graphClient, tokens, retryConfig, logger),
		service.NewInstagramPoster(graphClient, tokens, gate, retryConfig, logger),
		ledger,
		service.NewLogResultSink(logger),
		cfg.Posting.PostInterval,
		logger,
	)

	summary, err := publisher.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("Publishing pass finished",
		"run_id", summary.RunID,
		"fetched", summary.Fetched,
		"skipped", summary.Skipped)

	return nil
}

// newLedgerStore picks the ledger backend: the local SQLite file by
// default, shared Postgres when LEDGER_DATABASE_URL is set.
func newLedgerStore(cfg *config.Config, logger *slog.Logger) (repository.LedgerRepository, error) {
	if cfg.Ledger.DatabaseURL != "" {
		return repository.NewPostgreSQLLedgerRepository(cfg.Ledger.DatabaseURL, logger)
	}
	return repository.NewSQLiteLedgerRepository(cfg.Ledger.Path, logger)
}
