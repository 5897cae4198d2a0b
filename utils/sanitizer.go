// ABOUTME: This file turns feed entry HTML into plain caption text
// ABOUTME: Strips markup, collapses whitespace and enforces rune limits

package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// CaptionSanitizer turns feed entry HTML into plain text suitable for a
// social post caption.
type CaptionSanitizer struct {
	policy *bluemonday.Policy
}

// NewCaptionSanitizer creates a sanitizer that strips all markup.
// Captions are plain text on both platforms, so unlike a display
// pipeline nothing is kept, not even formatting tags.
func NewCaptionSanitizer() *CaptionSanitizer {
	return &CaptionSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize strips HTML from content and collapses runs of whitespace
// into single spaces.
func (s *CaptionSanitizer) Sanitize(content string) string {
	if content == "" {
		return ""
	}
	stripped := s.policy.Sanitize(content)
	return strings.Join(strings.Fields(stripped), " ")
}

// SanitizeAndTruncate sanitizes content and enforces a platform caption
// limit, ending a truncated caption with an ellipsis. The limit counts
// runes, not bytes, since platform limits are character limits.
func (s *CaptionSanitizer) SanitizeAndTruncate(content string, limit int) string {
	clean := s.Sanitize(content)
	if limit <= 0 {
		return clean
	}

	runes := []rune(clean)
	if len(runes) <= limit {
		return clean
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return strings.TrimSpace(string(runes[:limit-3])) + "..."
}
