// ABOUTME: This file defines domain models for candidate feed content
// ABOUTME: Covers content items, media descriptors and the dedup fingerprint

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// MediaKind classifies a media reference attached to a content item.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaRef describes a single media attachment of a content item.
type MediaRef struct {
	URL    string    `json:"url"`
	Kind   MediaKind `json:"kind"`
	Width  int       `json:"width,omitempty"`
	Height int       `json:"height,omitempty"`
}

// ContentItem represents one candidate article fetched from a feed.
// Items are created per fetch, immutable afterwards and not persisted.
type ContentItem struct {
	ID           string     `json:"id"` // source URL or feed GUID
	Title        string     `json:"title"`
	SourceDomain string     `json:"source_domain"`
	SourceURL    string     `json:"source_url"`
	Author       string     `json:"author,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	BodyText     string     `json:"body_text"`
	MediaRefs    []MediaRef `json:"media_refs,omitempty"`
	FetchedAt    time.Time  `json:"fetched_at"`

	// cached fingerprint, computed on first use
	fingerprint string
}

// Fingerprint returns the deterministic dedup key for this item.
// It hashes normalized title, source domain and publication date, so the
// same article keeps the same fingerprint across runs regardless of feed
// ordering or which of several feeds delivered it.
func (c *ContentItem) Fingerprint() string {
	if c.fingerprint != "" {
		return c.fingerprint
	}

	title := strings.ToLower(strings.Join(strings.Fields(c.Title), " "))
	domain := strings.ToLower(strings.TrimSpace(c.SourceDomain))

	date := ""
	if c.PublishedAt != nil {
		date = c.PublishedAt.UTC().Format("2006-01-02")
	}

	sum := sha256.Sum256([]byte(title + "|" + domain + "|" + date))
	c.fingerprint = hex.EncodeToString(sum[:])
	return c.fingerprint
}

// HasMedia reports whether the item carries at least one media reference.
func (c *ContentItem) HasMedia() bool {
	return len(c.MediaRefs) > 0
}

// FirstMediaOfKind returns the first media reference of the given kind,
// preserving the order the feed delivered them in.
func (c *ContentItem) FirstMediaOfKind(kind MediaKind) *MediaRef {
	for i := range c.MediaRefs {
		if c.MediaRefs[i].Kind == kind {
			return &c.MediaRefs[i]
		}
	}
	return nil
}
