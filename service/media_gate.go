// ABOUTME: Media eligibility gate for platforms that require an attachment
// ABOUTME: Picks the image a post will carry, or reports that none qualifies

package service

import (
	"log/slog"

	"feed-publisher/models"
	"feed-publisher/utils"
)

// MediaGate decides whether an item satisfies a platform's media
// requirement. Facebook posts text with a link, so it passes everything;
// Instagram refuses items without a resolvable image.
type MediaGate struct {
	logger *slog.Logger
}

// NewMediaGate creates a media gate.
func NewMediaGate(logger *slog.Logger) *MediaGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaGate{logger: logger}
}

// RequiresMedia reports whether the platform refuses media-less posts.
func (g *MediaGate) RequiresMedia(platform models.Platform) bool {
	return platform == models.PlatformInstagram
}

// EligibleImage returns the image the item should post with, or nil when
// the item carries no usable image. Eligibility is syntactic: the URL must
// be absolute http(s). Whether the asset still resolves is the platform's
// call and surfaces as a media rejection at posting time.
func (g *MediaGate) EligibleImage(item *models.ContentItem) *models.MediaRef {
	ref := item.FirstMediaOfKind(models.MediaKindImage)
	if ref == nil {
		g.logger.Debug("Item has no image media", "fingerprint", item.Fingerprint(), "title", item.Title)
		return nil
	}

	if !utils.IsAbsoluteHTTPURL(ref.URL) {
		g.logger.Warn("Item image URL is not absolute, treating as no media",
			"fingerprint", item.Fingerprint(),
			"media_url", ref.URL)
		return nil
	}

	return ref
}

// Eligible reports whether the item may be posted to the platform at all.
func (g *MediaGate) Eligible(platform models.Platform, item *models.ContentItem) bool {
	if !g.RequiresMedia(platform) {
		return true
	}
	return g.EligibleImage(item) != nil
}
