// ABOUTME: Feed content sources producing normalized candidate items
// ABOUTME: RSS parsing, media extraction and multi-feed aggregation live here

package service

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"feed-publisher/models"
	"feed-publisher/utils"
)

// ContentSource produces the candidate items for one run, already
// normalized and ordered by priority.
type ContentSource interface {
	Fetch(ctx context.Context) ([]*models.ContentItem, error)
}

// RSSFeedSource fetches and normalizes a single RSS/Atom feed.
type RSSFeedSource struct {
	feedURL   string
	maxItems  int
	timeout   time.Duration
	parser    *gofeed.Parser
	sanitizer *utils.CaptionSanitizer
	logger    *slog.Logger
}

// NewRSSFeedSource creates a source for one feed URL, capped at maxItems
// items per fetch.
func NewRSSFeedSource(feedURL string, maxItems int, timeout time.Duration, logger *slog.Logger) *RSSFeedSource {
	if logger == nil {
		logger = slog.Default()
	}
	if maxItems <= 0 {
		maxItems = 3
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &RSSFeedSource{
		feedURL:   feedURL,
		maxItems:  maxItems,
		timeout:   timeout,
		parser:    gofeed.NewParser(),
		sanitizer: utils.NewCaptionSanitizer(),
		logger:    logger,
	}
}

// Fetch downloads the feed and converts its newest entries into content
// items. Entries without a usable title are dropped rather than posted
// half-formed.
func (s *RSSFeedSource) Fetch(ctx context.Context) ([]*models.ContentItem, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	feed, err := s.parser.ParseURLWithContext(s.feedURL, fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", s.feedURL, err)
	}

	now := time.Now()
	items := make([]*models.ContentItem, 0, s.maxItems)

	for _, entry := range feed.Items {
		if len(items) >= s.maxItems {
			break
		}

		title := s.sanitizer.Sanitize(entry.Title)
		if title == "" {
			s.logger.Warn("Skipping feed entry without title", "feed_url", s.feedURL, "entry_link", entry.Link)
			continue
		}

		sourceURL := entry.Link
		if normalized, err := utils.NormalizeURL(entry.Link); err == nil {
			sourceURL = normalized
		}

		item := &models.ContentItem{
			ID:           entryID(entry),
			Title:        title,
			SourceDomain: utils.SourceDomain(sourceURL),
			SourceURL:    sourceURL,
			BodyText:     s.sanitizer.Sanitize(firstNonEmpty(entry.Description, entry.Content)),
			PublishedAt:  entry.PublishedParsed,
			MediaRefs:    extractMediaRefs(entry),
			FetchedAt:    now,
		}
		if entry.Author != nil {
			item.Author = entry.Author.Name
		}

		items = append(items, item)
	}

	s.logger.Info("Fetched feed",
		"feed_url", s.feedURL,
		"entries", len(feed.Items),
		"items", len(items))

	return items, nil
}

func entryID(entry *gofeed.Item) string {
	if entry.GUID != "" {
		return entry.GUID
	}
	return entry.Link
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// extractMediaRefs collects media attachments from an entry: the feed
// image, enclosures, media extensions and inline <img> tags, in that
// order. Only absolute http(s) URLs are kept.
func extractMediaRefs(entry *gofeed.Item) []models.MediaRef {
	var refs []models.MediaRef
	seen := make(map[string]bool)

	add := func(url string, kind models.MediaKind) {
		if url == "" || seen[url] || !utils.IsAbsoluteHTTPURL(url) {
			return
		}
		seen[url] = true
		refs = append(refs, models.MediaRef{URL: url, Kind: kind})
	}

	if entry.Image != nil {
		add(entry.Image.URL, models.MediaKindImage)
	}

	for _, enc := range entry.Enclosures {
		if kind, ok := mediaKindForMIME(enc.Type); ok {
			add(enc.URL, kind)
		} else if kind, ok := mediaKindForURL(enc.URL); ok {
			add(enc.URL, kind)
		}
	}

	// media RSS extensions (media:content, media:thumbnail)
	if media, ok := entry.Extensions["media"]; ok {
		for _, name := range []string{"content", "thumbnail"} {
			for _, ext := range media[name] {
				url := ext.Attrs["url"]
				if kind, ok := mediaKindForMIME(ext.Attrs["type"]); ok {
					add(url, kind)
				} else if kind, ok := mediaKindForURL(url); ok {
					add(url, kind)
				} else if name == "thumbnail" {
					add(url, models.MediaKindImage)
				}
			}
		}
	}

	for _, html := range []string{entry.Content, entry.Description} {
		if !strings.Contains(html, "<img") {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			continue
		}
		doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
			if src, ok := sel.Attr("src"); ok {
				add(src, models.MediaKindImage)
			}
		})
	}

	return refs
}

func mediaKindForMIME(mimeType string) (models.MediaKind, bool) {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "", false
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return models.MediaKindImage, true
	case strings.HasPrefix(mediaType, "video/"):
		return models.MediaKindVideo, true
	}
	return "", false
}

func mediaKindForURL(url string) (models.MediaKind, bool) {
	ext := strings.ToLower(path.Ext(strings.SplitN(url, "?", 2)[0]))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return models.MediaKindImage, true
	case ".mp4", ".mov", ".m4v", ".webm":
		return models.MediaKindVideo, true
	}
	return "", false
}

// AggregatedContentSource fetches several feeds concurrently and merges
// their items in configured feed priority order, deduplicating repeated
// stories by fingerprint. A failing feed is logged and skipped so one
// broken source never blocks the run.
type AggregatedContentSource struct {
	sources []ContentSource
	logger  *slog.Logger
}

// NewAggregatedContentSource creates an aggregate over sources; the slice
// order defines item priority in the merged result.
func NewAggregatedContentSource(sources []ContentSource, logger *slog.Logger) *AggregatedContentSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregatedContentSource{
		sources: sources,
		logger:  logger,
	}
}

// Fetch runs all source fetches concurrently, then reassembles results in
// source order. It only fails when every source fails.
func (s *AggregatedContentSource) Fetch(ctx context.Context) ([]*models.ContentItem, error) {
	results := make([][]*models.ContentItem, len(s.sources))
	failures := make([]error, len(s.sources))

	g, groupCtx := errgroup.WithContext(ctx)
	for i, source := range s.sources {
		i, source := i, source
		g.Go(func() error {
			items, err := source.Fetch(groupCtx)
			if err != nil {
				s.logger.Warn("Feed fetch failed, skipping source", "source_index", i, "error", err)
				failures[i] = err
				return nil
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []*models.ContentItem
	seen := make(map[string]bool)
	failed := 0

	for i, items := range results {
		if failures[i] != nil {
			failed++
			continue
		}
		for _, item := range items {
			fp := item.Fingerprint()
			if seen[fp] {
				continue
			}
			seen[fp] = true
			merged = append(merged, item)
		}
	}

	if failed == len(s.sources) && len(s.sources) > 0 {
		return nil, fmt.Errorf("all %d feed sources failed, first error: %w", failed, failures[0])
	}

	s.logger.Info("Aggregated feed items",
		"sources", len(s.sources),
		"failed_sources", failed,
		"items", len(merged))

	return merged, nil
}
