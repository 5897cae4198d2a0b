// ABOUTME: This file defines read-only credential models for target platforms
// ABOUTME: Handles token completeness and expiry checks without any write path

package models

import "time"

// Platform identifies a posting target.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

// Valid reports whether the platform name is one we know how to post to.
func (p Platform) Valid() bool {
	return p == PlatformFacebook || p == PlatformInstagram
}

// TokenStatus is the result of a credential preflight check.
type TokenStatus string

const (
	TokenStatusValid     TokenStatus = "valid"
	TokenStatusMissing   TokenStatus = "missing"
	TokenStatusMalformed TokenStatus = "malformed"
	TokenStatusExpired   TokenStatus = "expired"
)

// Usable reports whether a platform with this status may be posted to.
func (s TokenStatus) Usable() bool {
	return s == TokenStatusValid
}

// PlatformCredentials is the on-disk credential record for one platform.
// It is consumed strictly read-only: the core never refreshes, rotates or
// rewrites tokens, so the type deliberately exposes no mutation API.
type PlatformCredentials struct {
	PageAccessToken    string     `json:"page_access_token"`
	UserAccessToken    string     `json:"user_access_token,omitempty"`
	PageID             string     `json:"page_id"`
	InstagramAccountID string     `json:"instagram_account_id,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
}

// AccessToken returns the token to authenticate Graph API calls with,
// preferring the page token and falling back to the user token.
func (c *PlatformCredentials) AccessToken() string {
	if c.PageAccessToken != "" {
		return c.PageAccessToken
	}
	return c.UserAccessToken
}

// AccountID returns the posting target id for the platform.
func (c *PlatformCredentials) AccountID(platform Platform) string {
	if platform == PlatformInstagram {
		return c.InstagramAccountID
	}
	return c.PageID
}

// Complete reports whether the record carries everything needed to post
// to the given platform: a token plus the platform's account identifier.
func (c *PlatformCredentials) Complete(platform Platform) bool {
	if c.AccessToken() == "" {
		return false
	}
	return c.AccountID(platform) != ""
}

// Expired reports whether the record declares an expiry in the past.
// Records without an expiry are treated as non-expiring.
func (c *PlatformCredentials) Expired() bool {
	return c.ExpiresAt != nil && time.Now().After(*c.ExpiresAt)
}
