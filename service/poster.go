// ABOUTME: Platform posters composing and publishing one item per call
// ABOUTME: Wraps Graph API calls with retry and error kind classification

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"feed-publisher/driver"
	"feed-publisher/models"
	"feed-publisher/retry"
	"feed-publisher/utils"
)

const (
	facebookMessageBodyLimit = 500
	instagramCaptionLimit    = 2200
)

// GraphPublisher is the Graph API surface posters depend on.
// *driver.GraphClient implements it; tests substitute fakes.
type GraphPublisher interface {
	PublishPagePost(ctx context.Context, creds *models.PlatformCredentials, message, link string) (string, error)
	PublishInstagramMedia(ctx context.Context, creds *models.PlatformCredentials, imageURL, caption string) (string, error)
}

// PlatformPoster publishes one item to one platform. Post never returns an
// error: every failure is folded into the result's error kind so the
// orchestrator can record and continue.
type PlatformPoster interface {
	Platform() models.Platform
	Post(ctx context.Context, item *models.ContentItem, parentRef string) *models.PostResult
}

// errorKindFor maps a classified driver error onto the attempt taxonomy.
func errorKindFor(err error) models.PostErrorKind {
	switch {
	case errors.Is(err, driver.ErrAuthInvalid):
		return models.PostErrorAuthInvalid
	case errors.Is(err, driver.ErrMediaRejected):
		return models.PostErrorMediaRejected
	case errors.Is(err, driver.ErrRateLimited):
		return models.PostErrorRateLimited
	case errors.Is(err, driver.ErrTransientNetwork):
		return models.PostErrorTransientNetwork
	default:
		return models.PostErrorUnknown
	}
}

// retryableDriverError is the retry classifier shared by both posters.
func retryableDriverError(err error) bool {
	return errorKindFor(err).Retryable()
}

// FacebookPoster publishes items to a Facebook page feed.
type FacebookPoster struct {
	publisher GraphPublisher
	tokens    *TokenStore
	retrier   *retry.Retrier
	sanitizer *utils.CaptionSanitizer
	logger    *slog.Logger
}

// NewFacebookPoster creates a Facebook page poster.
func NewFacebookPoster(publisher GraphPublisher, tokens *TokenStore, retryConfig retry.Config, logger *slog.Logger) *FacebookPoster {
	if logger == nil {
		logger = slog.Default()
	}
	return &FacebookPoster{
		publisher: publisher,
		tokens:    tokens,
		retrier:   retry.NewRetrier(retryConfig, retryableDriverError, logger),
		sanitizer: utils.NewCaptionSanitizer(),
		logger:    logger,
	}
}

// Platform identifies this poster's target.
func (p *FacebookPoster) Platform() models.Platform {
	return models.PlatformFacebook
}

// Post publishes the item as a page post. The returned post reference is
// the post's public URL so downstream posts can cite it. parentRef is
// ignored: Facebook is always posted first.
func (p *FacebookPoster) Post(ctx context.Context, item *models.ContentItem, parentRef string) *models.PostResult {
	result := &models.PostResult{Platform: models.PlatformFacebook}

	creds, err := p.tokens.Credentials(ctx, models.PlatformFacebook)
	if err != nil {
		result.ErrorKind = models.PostErrorAuthInvalid
		result.Message = err.Error()
		return result
	}

	message := composeFacebookMessage(p.sanitizer, item)

	// The link parameter carries the item's image when it has one, so the
	// page post renders with a preview. Text-only items post without it.
	link := ""
	if ref := item.FirstMediaOfKind(models.MediaKindImage); ref != nil && utils.IsAbsoluteHTTPURL(ref.URL) {
		link = ref.URL
	}

	var postID string
	attempts, err := p.retrier.DoWithAttempts(ctx, func() error {
		var postErr error
		postID, postErr = p.publisher.PublishPagePost(ctx, creds, message, link)
		return postErr
	})
	result.Attempts = attempts

	if err != nil {
		result.ErrorKind = errorKindFor(err)
		result.Message = err.Error()
		p.logger.Error("Facebook post failed",
			"fingerprint", item.Fingerprint(),
			"error_kind", result.ErrorKind,
			"attempts", attempts,
			"error", err)
		return result
	}

	result.Success = true
	result.PostReference = facebookPostURL(postID)
	return result
}

func composeFacebookMessage(sanitizer *utils.CaptionSanitizer, item *models.ContentItem) string {
	body := sanitizer.SanitizeAndTruncate(item.BodyText, facebookMessageBodyLimit)
	if body == "" {
		return item.Title
	}
	return item.Title + "\n\n" + body
}

func facebookPostURL(postID string) string {
	return "https://facebook.com/" + postID
}

// InstagramPoster publishes items to an Instagram business account.
type InstagramPoster struct {
	publisher GraphPublisher
	tokens    *TokenStore
	gate      *MediaGate
	retrier   *retry.Retrier
	sanitizer *utils.CaptionSanitizer
	logger    *slog.Logger
}

// NewInstagramPoster creates an Instagram poster.
func NewInstagramPoster(publisher GraphPublisher, tokens *TokenStore, gate *MediaGate, retryConfig retry.Config, logger *slog.Logger) *InstagramPoster {
	if logger == nil {
		logger = slog.Default()
	}
	return &InstagramPoster{
		publisher: publisher,
		tokens:    tokens,
		gate:      gate,
		retrier:   retry.NewRetrier(retryConfig, retryableDriverError, logger),
		sanitizer: utils.NewCaptionSanitizer(),
		logger:    logger,
	}
}

// Platform identifies this poster's target.
func (p *InstagramPoster) Platform() models.Platform {
	return models.PlatformInstagram
}

// Post publishes the item's image with a caption that cites the Facebook
// post. parentRef must be the Facebook post reference; posting to
// Instagram without it is a sequencing bug and fails without an API call.
func (p *InstagramPoster) Post(ctx context.Context, item *models.ContentItem, parentRef string) *models.PostResult {
	result := &models.PostResult{Platform: models.PlatformInstagram}

	if parentRef == "" {
		result.ErrorKind = models.PostErrorUnknown
		result.Message = "instagram post requires the facebook post reference"
		return result
	}

	creds, err := p.tokens.Credentials(ctx, models.PlatformInstagram)
	if err != nil {
		result.ErrorKind = models.PostErrorAuthInvalid
		result.Message = err.Error()
		return result
	}

	image := p.gate.EligibleImage(item)
	if image == nil {
		result.ErrorKind = models.PostErrorMediaRejected
		result.Message = "item has no eligible image"
		return result
	}

	caption := composeInstagramCaption(p.sanitizer, item, parentRef)

	var mediaID string
	attempts, err := p.retrier.DoWithAttempts(ctx, func() error {
		var postErr error
		mediaID, postErr = p.publisher.PublishInstagramMedia(ctx, creds, image.URL, caption)
		return postErr
	})
	result.Attempts = attempts

	if err != nil {
		result.ErrorKind = errorKindFor(err)
		result.Message = err.Error()
		p.logger.Error("Instagram post failed",
			"fingerprint", item.Fingerprint(),
			"error_kind", result.ErrorKind,
			"attempts", attempts,
			"error", err)
		return result
	}

	result.Success = true
	result.PostReference = mediaID
	return result
}

func composeInstagramCaption(sanitizer *utils.CaptionSanitizer, item *models.ContentItem, parentRef string) string {
	footer := fmt.Sprintf("\n\nFull story on Facebook: %s", parentRef)

	// The platform limit counts characters, so the body budget must too.
	// A title plus footer already at the limit leaves no room for a body.
	budget := instagramCaptionLimit - utf8.RuneCountInString(item.Title) - utf8.RuneCountInString(footer) - 2
	body := ""
	if budget > 0 {
		body = sanitizer.SanitizeAndTruncate(item.BodyText, budget)
	}

	caption := item.Title
	if body != "" {
		caption += "\n\n" + body
	}
	return caption + footer
}
