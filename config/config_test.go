// ABOUTME: This file tests configuration loading and validation
// ABOUTME: Covers env parsing defaults and required-field enforcement

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("FEED_URLS", "https://example.com/rss.xml")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "feed-publisher", cfg.ServiceName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"https://example.com/rss.xml"}, cfg.Feeds.URLs)
	assert.Equal(t, 3, cfg.Feeds.MaxItemsPerFeed)
	assert.Equal(t, "oauth_tokens_facebook.json", cfg.Tokens.FacebookTokenFile)
	assert.Equal(t, "oauth_tokens_instagram.json", cfg.Tokens.InstagramTokenFile)
	assert.Equal(t, "publisher_ledger.db", cfg.Ledger.Path)
	assert.Empty(t, cfg.Ledger.DatabaseURL)
	assert.Equal(t, "https://graph.facebook.com", cfg.Graph.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Graph.HTTPTimeout)
	assert.Equal(t, 2, cfg.Posting.RetryMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Posting.PostInterval)
}

func TestLoadConfig_FeedURLsParsing(t *testing.T) {
	t.Setenv("FEED_URLS", " https://a.example/rss , https://b.example/atom ,, ")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	// priority order must be preserved
	assert.Equal(t, []string{"https://a.example/rss", "https://b.example/atom"}, cfg.Feeds.URLs)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("FEED_URLS", "https://example.com/rss.xml")
	t.Setenv("MAX_ITEMS_PER_FEED", "7")
	t.Setenv("POST_INTERVAL", "5s")
	t.Setenv("LEDGER_DATABASE_URL", "postgres://publisher@db/ledger")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Feeds.MaxItemsPerFeed)
	assert.Equal(t, 5*time.Second, cfg.Posting.PostInterval)
	assert.Equal(t, "postgres://publisher@db/ledger", cfg.Ledger.DatabaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_MissingFeedURLs(t *testing.T) {
	t.Setenv("FEED_URLS", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEED_URLS")
}

func TestLoadConfig_InvalidNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("FEED_URLS", "https://example.com/rss.xml")
	t.Setenv("MAX_ITEMS_PER_FEED", "not-a-number")
	t.Setenv("HTTP_TIMEOUT", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Feeds.MaxItemsPerFeed)
	assert.Equal(t, 60*time.Second, cfg.Graph.HTTPTimeout)
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]struct {
		mutate      func(*Config)
		expectError string
	}{
		"valid_config": {
			mutate:      func(c *Config) {},
			expectError: "",
		},
		"no_token_files": {
			mutate: func(c *Config) {
				c.Tokens.FacebookTokenFile = ""
				c.Tokens.InstagramTokenFile = ""
			},
			expectError: "TOKEN_FILE",
		},
		"no_ledger_store": {
			mutate: func(c *Config) {
				c.Ledger.Path = ""
				c.Ledger.DatabaseURL = ""
			},
			expectError: "LEDGER_PATH",
		},
		"zero_retry_attempts": {
			mutate: func(c *Config) {
				c.Posting.RetryMaxAttempts = 0
			},
			expectError: "POST_RETRY_MAX_ATTEMPTS",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := &Config{
				Feeds: FeedConfig{
					URLs:            []string{"https://example.com/rss.xml"},
					MaxItemsPerFeed: 3,
				},
				Tokens: TokenConfig{
					FacebookTokenFile:  "fb.json",
					InstagramTokenFile: "ig.json",
				},
				Ledger:  LedgerConfig{Path: "ledger.db"},
				Posting: PostingConfig{RetryMaxAttempts: 2},
			}
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.expectError == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectError)
			}
		})
	}
}
