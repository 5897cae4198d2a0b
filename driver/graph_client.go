// ABOUTME: HTTP client for the Meta Graph API publishing endpoints
// ABOUTME: Maps platform error codes onto the internal error taxonomy

package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"feed-publisher/models"
)

// Sentinel errors classifying failed Graph API calls. Callers translate
// these into per-attempt error kinds without string matching.
var (
	ErrAuthInvalid      = errors.New("access token rejected by platform")
	ErrMediaRejected    = errors.New("media rejected by platform")
	ErrRateLimited      = errors.New("platform rate limit exceeded")
	ErrTransientNetwork = errors.New("transient network failure")
)

// Graph API error codes that indicate throttling.
var rateLimitErrorCodes = map[int]bool{
	4:   true, // application request limit
	17:  true, // user request limit
	32:  true, // page request limit
	613: true, // custom rate limit
}

// Graph API error codes that indicate the media asset was refused.
var mediaErrorCodes = map[int]bool{
	9004:    true, // media could not be fetched from URL
	36000:   true, // image too large
	36003:   true, // unsupported aspect ratio
	2207026: true, // unsupported media format
}

// GraphClient publishes content through the Meta Graph API. It performs
// exactly one logical operation per call and never touches token state.
type GraphClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGraphClient creates a Graph API client rooted at baseURL
// (https://graph.facebook.com in production, a test server URL in tests).
func NewGraphClient(baseURL string, timeout time.Duration, logger *slog.Logger) *GraphClient {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &GraphClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   2,
			},
		},
	}
}

// SetHTTPClient allows injecting a custom HTTP client for testing.
func (c *GraphClient) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// PublishPagePost creates a post on the Facebook page feed and returns the
// platform post id. The link, when present, is attached so the page post
// carries the article URL.
func (c *GraphClient) PublishPagePost(ctx context.Context, creds *models.PlatformCredentials, message, link string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/feed", c.baseURL, creds.AccountID(models.PlatformFacebook))

	form := url.Values{
		"message":      {message},
		"access_token": {creds.AccessToken()},
	}
	if link != "" {
		form.Set("link", link)
	}

	var result GraphPostResponse
	if err := c.postForm(ctx, endpoint, form, &result); err != nil {
		return "", err
	}

	if result.ID == "" {
		return "", fmt.Errorf("%w: page post response carried no id", ErrTransientNetwork)
	}

	c.logger.Info("Published page post", "post_id", result.ID)
	return result.ID, nil
}

// PublishInstagramMedia publishes an image to the Instagram account in the
// platform's two-step flow: create a media container from the image URL,
// then publish the container. The returned id identifies the published media.
func (c *GraphClient) PublishInstagramMedia(ctx context.Context, creds *models.PlatformCredentials, imageURL, caption string) (string, error) {
	accountID := creds.AccountID(models.PlatformInstagram)

	containerForm := url.Values{
		"image_url":    {imageURL},
		"caption":      {caption},
		"access_token": {creds.AccessToken()},
	}

	var container GraphMediaContainerResponse
	if err := c.postForm(ctx, fmt.Sprintf("%s/%s/media", c.baseURL, accountID), containerForm, &container); err != nil {
		return "", fmt.Errorf("media container creation failed: %w", err)
	}
	if container.ID == "" {
		return "", fmt.Errorf("%w: media container response carried no id", ErrTransientNetwork)
	}

	c.logger.Debug("Created media container", "container_id", container.ID)

	publishForm := url.Values{
		"creation_id":  {container.ID},
		"access_token": {creds.AccessToken()},
	}

	var published GraphMediaContainerResponse
	if err := c.postForm(ctx, fmt.Sprintf("%s/%s/media_publish", c.baseURL, accountID), publishForm, &published); err != nil {
		return "", fmt.Errorf("media publish failed: %w", err)
	}
	if published.ID == "" {
		return "", fmt.Errorf("%w: media publish response carried no id", ErrTransientNetwork)
	}

	c.logger.Info("Published Instagram media", "media_id", published.ID)
	return published.ID, nil
}

// postForm executes one form-encoded POST and decodes the JSON response
// into result. Non-2xx responses are classified via classifyGraphError.
func (c *GraphClient) postForm(ctx context.Context, endpoint string, form url.Values, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "feed-publisher/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// DNS failures, resets and timeouts are all retry candidates.
		return fmt.Errorf("%w: %v", ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return c.classifyGraphError(resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// classifyGraphError maps a non-2xx Graph API response onto one of the
// sentinel errors. Unrecognized responses fall through as plain errors so
// they surface as unknown platform failures.
func (c *GraphClient) classifyGraphError(statusCode int, body []byte) error {
	var envelope GraphErrorResponse
	parsed := json.Unmarshal(body, &envelope) == nil && envelope.Error.Code != 0

	if parsed {
		graphErr := envelope.Error
		c.logger.Warn("Graph API error response",
			"status_code", statusCode,
			"error_code", graphErr.Code,
			"error_subcode", graphErr.ErrorSubcode,
			"error_type", graphErr.Type,
			"fbtrace_id", graphErr.FBTraceID)

		// Code checks come first: throttling errors arrive with
		// type OAuthException too, and must stay retryable.
		switch {
		case rateLimitErrorCodes[graphErr.Code]:
			return fmt.Errorf("%w: code %d: %s", ErrRateLimited, graphErr.Code, graphErr.Message)
		case mediaErrorCodes[graphErr.Code] || mediaErrorCodes[graphErr.ErrorSubcode]:
			return fmt.Errorf("%w: code %d: %s", ErrMediaRejected, graphErr.Code, graphErr.Message)
		case graphErr.Code == 190 || graphErr.Code == 102 || graphErr.Type == "OAuthException":
			return fmt.Errorf("%w: code %d: %s", ErrAuthInvalid, graphErr.Code, graphErr.Message)
		case graphErr.Code == 1 || graphErr.Code == 2:
			// "Unknown error" and "service temporarily unavailable".
			return fmt.Errorf("%w: code %d: %s", ErrTransientNetwork, graphErr.Code, graphErr.Message)
		}
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", ErrAuthInvalid, statusCode)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", ErrRateLimited, statusCode)
	case statusCode >= 500:
		return fmt.Errorf("%w: HTTP %d", ErrTransientNetwork, statusCode)
	}

	return fmt.Errorf("graph API request failed with status %d: %s", statusCode, string(body))
}
