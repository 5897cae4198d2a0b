// ABOUTME: This file handles configuration management for feed-publisher
// ABOUTME: Loads environment variables and validates the publishing setup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the feed-publisher CLI
type Config struct {
	// Service configuration
	ServiceName string
	LogLevel    string

	// Feed configuration
	Feeds FeedConfig

	// Credential files, one per platform
	Tokens TokenConfig

	// Ledger store configuration
	Ledger LedgerConfig

	// Graph API configuration
	Graph GraphConfig

	// Posting policy configuration
	Posting PostingConfig
}

// FeedConfig holds the content source settings
type FeedConfig struct {
	URLs            []string // priority order
	MaxItemsPerFeed int
	FetchTimeout    time.Duration
}

// TokenConfig holds the per-platform credential file paths
type TokenConfig struct {
	FacebookTokenFile  string
	InstagramTokenFile string
}

// LedgerConfig holds the redundancy ledger store settings.
// Path selects the default SQLite store; when DatabaseURL is set the
// ledger lives in Postgres instead.
type LedgerConfig struct {
	Path        string
	DatabaseURL string
}

// GraphConfig holds Meta Graph API settings
type GraphConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration
}

// PostingConfig holds retry and pacing settings for platform attempts
type PostingConfig struct {
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	PostInterval     time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnvOrDefault("SERVICE_NAME", "feed-publisher"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),

		Feeds: FeedConfig{
			URLs:            splitAndTrim(os.Getenv("FEED_URLS")),
			MaxItemsPerFeed: getEnvInt("MAX_ITEMS_PER_FEED", 3),
			FetchTimeout:    getEnvDuration("FEED_FETCH_TIMEOUT", 30*time.Second),
		},

		Tokens: TokenConfig{
			FacebookTokenFile:  getEnvOrDefault("FACEBOOK_TOKEN_FILE", "oauth_tokens_facebook.json"),
			InstagramTokenFile: getEnvOrDefault("INSTAGRAM_TOKEN_FILE", "oauth_tokens_instagram.json"),
		},

		Ledger: LedgerConfig{
			Path:        getEnvOrDefault("LEDGER_PATH", "publisher_ledger.db"),
			DatabaseURL: os.Getenv("LEDGER_DATABASE_URL"), // optional shared Postgres
		},

		Graph: GraphConfig{
			BaseURL:     getEnvOrDefault("GRAPH_API_BASE_URL", "https://graph.facebook.com"),
			HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 60*time.Second),
		},

		Posting: PostingConfig{
			RetryMaxAttempts: getEnvInt("POST_RETRY_MAX_ATTEMPTS", 2),
			RetryBaseDelay:   getEnvDuration("POST_RETRY_BASE_DELAY", 2*time.Second),
			PostInterval:     getEnvDuration("POST_INTERVAL", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Feeds.URLs) == 0 {
		return fmt.Errorf("FEED_URLS is required (comma-separated feed URLs in priority order)")
	}

	if c.Tokens.FacebookTokenFile == "" && c.Tokens.InstagramTokenFile == "" {
		return fmt.Errorf("at least one of FACEBOOK_TOKEN_FILE or INSTAGRAM_TOKEN_FILE is required")
	}

	if c.Ledger.Path == "" && c.Ledger.DatabaseURL == "" {
		return fmt.Errorf("LEDGER_PATH or LEDGER_DATABASE_URL is required")
	}

	if c.Feeds.MaxItemsPerFeed < 1 {
		return fmt.Errorf("MAX_ITEMS_PER_FEED must be at least 1")
	}

	if c.Posting.RetryMaxAttempts < 1 {
		return fmt.Errorf("POST_RETRY_MAX_ATTEMPTS must be at least 1")
	}

	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer environment variable with a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration parses a duration environment variable with a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// splitAndTrim splits a comma-separated list, dropping empty entries
func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
