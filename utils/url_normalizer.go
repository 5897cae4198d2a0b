// Package utils provides utility functions for the feed-publisher service
package utils

import (
	"net/url"
	"strings"
)

// trackingParams contains query parameters to remove during normalization
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"utm_id":       true,
	"fbclid":       true, // Facebook click ID
	"gclid":        true, // Google click ID
	"mc_eid":       true, // MailChimp email ID
	"msclkid":      true, // Microsoft click ID
}

// NormalizeURL normalizes an article URL so the same piece of content
// yields the same item ID no matter which feed delivered it:
// - Removing tracking parameters (UTM, fbclid, etc.)
// - Removing URL fragments
// - Removing trailing slashes (except for root path)
func NormalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	// Remove fragment
	parsed.Fragment = ""

	// Filter out tracking parameters
	query := parsed.Query()
	for param := range trackingParams {
		query.Del(param)
	}
	parsed.RawQuery = query.Encode()

	// Remove trailing slash (except for root path)
	if parsed.Path != "/" && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimRight(parsed.Path, "/")
	}

	return parsed.String(), nil
}

// SourceDomain extracts the publishing domain from an article URL,
// lowercased and without a leading "www.". Returns "" for unparseable
// or host-less URLs.
func SourceDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// IsAbsoluteHTTPURL reports whether the string parses as an absolute
// http or https URL with a host. The media gate uses this as the
// "resolvable URL" check.
func IsAbsoluteHTTPURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
