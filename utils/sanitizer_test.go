package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptionSanitizer_Sanitize(t *testing.T) {
	s := NewCaptionSanitizer()

	tests := map[string]struct {
		input    string
		expected string
	}{
		"plain_text_unchanged": {
			input:    "Breaking news from the capital",
			expected: "Breaking news from the capital",
		},
		"tags_stripped": {
			input:    "<p>Breaking <b>news</b> from the <a href=\"x\">capital</a></p>",
			expected: "Breaking news from the capital",
		},
		"script_removed": {
			input:    "Headline<script>alert(1)</script> text",
			expected: "Headline text",
		},
		"whitespace_collapsed": {
			input:    "Line one\n\n   Line   two\t\tend",
			expected: "Line one Line two end",
		},
		"empty_input": {
			input:    "",
			expected: "",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, s.Sanitize(tc.input))
		})
	}
}

func TestCaptionSanitizer_SanitizeAndTruncate(t *testing.T) {
	s := NewCaptionSanitizer()

	t.Run("short_content_untouched", func(t *testing.T) {
		got := s.SanitizeAndTruncate("short caption", 100)
		assert.Equal(t, "short caption", got)
	})

	t.Run("long_content_truncated_with_ellipsis", func(t *testing.T) {
		long := strings.Repeat("word ", 100)
		got := s.SanitizeAndTruncate(long, 50)
		assert.LessOrEqual(t, len([]rune(got)), 50)
		assert.True(t, strings.HasSuffix(got, "..."))
	})

	t.Run("limit_counts_runes_not_bytes", func(t *testing.T) {
		got := s.SanitizeAndTruncate(strings.Repeat("ü", 80), 40)
		assert.Equal(t, 40, len([]rune(got)))
	})

	t.Run("zero_limit_disables_truncation", func(t *testing.T) {
		long := strings.Repeat("a", 500)
		assert.Equal(t, long, s.SanitizeAndTruncate(long, 0))
	})
}
