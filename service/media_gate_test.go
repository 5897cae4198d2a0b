// ABOUTME: Tests for the media eligibility gate
// ABOUTME: Covers image selection and per-platform requirements

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-publisher/models"
)

func TestMediaGate_EligibleImage(t *testing.T) {
	gate := NewMediaGate(nil)

	tests := map[string]struct {
		media   []models.MediaRef
		wantURL string
	}{
		"first image wins": {
			media: []models.MediaRef{
				{URL: "https://cdn.example.com/a.jpg", Kind: models.MediaKindImage},
				{URL: "https://cdn.example.com/b.jpg", Kind: models.MediaKindImage},
			},
			wantURL: "https://cdn.example.com/a.jpg",
		},
		"video before image is skipped": {
			media: []models.MediaRef{
				{URL: "https://cdn.example.com/clip.mp4", Kind: models.MediaKindVideo},
				{URL: "https://cdn.example.com/still.png", Kind: models.MediaKindImage},
			},
			wantURL: "https://cdn.example.com/still.png",
		},
		"no media": {
			media:   nil,
			wantURL: "",
		},
		"only video": {
			media: []models.MediaRef{
				{URL: "https://cdn.example.com/clip.mp4", Kind: models.MediaKindVideo},
			},
			wantURL: "",
		},
		"relative image URL is not eligible": {
			media: []models.MediaRef{
				{URL: "/images/a.jpg", Kind: models.MediaKindImage},
			},
			wantURL: "",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			item := &models.ContentItem{Title: "t", MediaRefs: tc.media}

			ref := gate.EligibleImage(item)

			if tc.wantURL == "" {
				assert.Nil(t, ref)
				return
			}
			require.NotNil(t, ref)
			assert.Equal(t, tc.wantURL, ref.URL)
		})
	}
}

func TestMediaGate_Eligible(t *testing.T) {
	gate := NewMediaGate(nil)

	withImage := &models.ContentItem{
		Title:     "with image",
		MediaRefs: []models.MediaRef{{URL: "https://cdn.example.com/a.jpg", Kind: models.MediaKindImage}},
	}
	withoutImage := &models.ContentItem{Title: "text only"}

	assert.True(t, gate.Eligible(models.PlatformFacebook, withImage))
	assert.True(t, gate.Eligible(models.PlatformFacebook, withoutImage))
	assert.True(t, gate.Eligible(models.PlatformInstagram, withImage))
	assert.False(t, gate.Eligible(models.PlatformInstagram, withoutImage))
}
