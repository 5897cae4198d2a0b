// ABOUTME: Publishing workflow walking each item through its platform sequence
// ABOUTME: Facebook first, Instagram second with the Facebook post threaded in

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feed-publisher/models"
)

// ErrNoUsablePlatform indicates neither platform has usable credentials,
// so a run cannot accomplish anything.
var ErrNoUsablePlatform = errors.New("no platform has usable credentials")

// PublishingService runs one full publishing pass: fetch candidates, walk
// each item through Facebook then Instagram, record every outcome in the
// ledger and hand the summary to the result sink.
//
// Items are processed strictly one at a time. Posting is slow and
// rate-limited on the platform side; interleaving items would only
// complicate the ledger ordering guarantees without making a run faster.
type PublishingService struct {
	source       ContentSource
	tokens       *TokenStore
	gate         *MediaGate
	facebook     PlatformPoster
	instagram    PlatformPoster
	ledger       *RedundancyLedger
	sink         ResultSink
	postInterval time.Duration
	logger       *slog.Logger
}

// NewPublishingService wires the workflow from its collaborators.
func NewPublishingService(
	source ContentSource,
	tokens *TokenStore,
	gate *MediaGate,
	facebook PlatformPoster,
	instagram PlatformPoster,
	ledger *RedundancyLedger,
	sink ResultSink,
	postInterval time.Duration,
	logger *slog.Logger,
) *PublishingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishingService{
		source:       source,
		tokens:       tokens,
		gate:         gate,
		facebook:     facebook,
		instagram:    instagram,
		ledger:       ledger,
		sink:         sink,
		postInterval: postInterval,
		logger:       logger,
	}
}

// Run executes one publishing pass. It returns ErrNoUsablePlatform when
// preflight finds no postable platform; feed or ledger failures abort the
// run before any posting happens.
func (s *PublishingService) Run(ctx context.Context) (*models.RunSummary, error) {
	summary := models.NewRunSummary()

	s.logger.Info("Starting publishing run", "run_id", summary.RunID)

	fbStatus := s.tokens.Status(ctx, models.PlatformFacebook)
	igStatus := s.tokens.Status(ctx, models.PlatformInstagram)
	if !fbStatus.Usable() && !igStatus.Usable() {
		return nil, fmt.Errorf("%w: facebook=%s instagram=%s", ErrNoUsablePlatform, fbStatus, igStatus)
	}

	if err := s.ledger.Load(ctx); err != nil {
		return nil, err
	}

	items, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}
	summary.Fetched = len(items)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome, attempted := s.processItem(ctx, item, fbStatus.Usable(), igStatus.Usable())
		s.tally(summary, outcome)
		summary.Items = append(summary.Items, outcome)

		// Pace platform traffic between items that actually posted.
		if attempted && i < len(items)-1 && s.postInterval > 0 {
			select {
			case <-time.After(s.postInterval):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	summary.Duration = time.Since(summary.StartedAt)

	if s.sink != nil {
		s.sink.Publish(summary)
	}

	return summary, nil
}

// processItem walks one item through the platform sequence and reports
// whether any platform call was actually made.
func (s *PublishingService) processItem(ctx context.Context, item *models.ContentItem, fbUsable, igUsable bool) (*models.ItemOutcome, bool) {
	fingerprint := item.Fingerprint()
	outcome := &models.ItemOutcome{
		Fingerprint: fingerprint,
		Title:       item.Title,
		SourceURL:   item.SourceURL,
	}

	s.logger.Info("Processing item",
		"fingerprint", fingerprint,
		"title", item.Title,
		"has_media", item.HasMedia())

	attempted := false

	// Facebook goes first: its post reference feeds the Instagram caption.
	var facebookRef string
	switch {
	case s.ledger.PostedSuccessfully(fingerprint, models.PlatformFacebook):
		facebookRef = s.ledger.PostReference(fingerprint, models.PlatformFacebook)
		outcome.Platforms = append(outcome.Platforms, models.PlatformOutcome{
			Platform:   models.PlatformFacebook,
			SkipReason: models.SkipReasonAlreadyPosted,
		})

	case !fbUsable:
		s.recordSkip(ctx, item, models.PlatformFacebook, models.SkipReasonAuthInvalid)
		outcome.Platforms = append(outcome.Platforms, models.PlatformOutcome{
			Platform:   models.PlatformFacebook,
			SkipReason: models.SkipReasonAuthInvalid,
		})

	default:
		result := s.facebook.Post(ctx, item, "")
		attempted = true
		s.recordResult(ctx, item, result)
		if result.Success {
			facebookRef = result.PostReference
		}
		outcome.Platforms = append(outcome.Platforms, models.PlatformOutcome{
			Platform:  models.PlatformFacebook,
			Attempted: true,
			Result:    result,
		})
	}

	facebookOutcome := outcome.Outcome(models.PlatformFacebook)

	// Instagram second, threading in the Facebook reference.
	switch {
	case s.ledger.PostedSuccessfully(fingerprint, models.PlatformInstagram):
		outcome.Platforms = append(outcome.Platforms, models.PlatformOutcome{
			Platform:   models.PlatformInstagram,
			SkipReason: models.SkipReasonAlreadyPosted,
		})

	case !igUsable:
		s.recordSkip(ctx, item, models.PlatformInstagram, models.SkipReasonAuthInvalid)
		outcome.Platforms = append(outcome.Platforms, models.PlatformOutcome{
			Platform:   models.PlatformInstagram,
			SkipReason: models.SkipReasonAuthInvalid,
		})

	case !s.gate.Eligible(models.PlatformInstagram, item):
		s.recordSkip(ctx, item, models.PlatformInstagram, models.SkipReasonNoMedia)
		outcome.Platforms = append(outcome.Platforms, models.PlatformOutcome{
			Platform:   models.PlatformInstagram,
			SkipReason: models.SkipReasonNoMedia,
		})

	case facebookRef == "":
		// No Facebook post to cite, from this run or any earlier one.
		reason := models.SkipReasonFacebookNotAttempted
		if facebookOutcome != nil && facebookOutcome.Attempted {
			reason = models.SkipReasonFacebookFailed
		}
		s.recordSkip(ctx, item, models.PlatformInstagram, reason)
		outcome.Platforms = append(outcome.Platforms, models.PlatformOutcome{
			Platform:   models.PlatformInstagram,
			SkipReason: reason,
		})

	default:
		result := s.instagram.Post(ctx, item, facebookRef)
		attempted = true
		s.recordResult(ctx, item, result)
		outcome.Platforms = append(outcome.Platforms, models.PlatformOutcome{
			Platform:  models.PlatformInstagram,
			Attempted: true,
			Result:    result,
		})
	}

	return outcome, attempted
}

// recordResult writes the attempt outcome to the ledger before the run
// moves on. A record failure is logged but does not abort the run: the
// post already happened and abandoning the remaining items helps nothing.
func (s *PublishingService) recordResult(ctx context.Context, item *models.ContentItem, result *models.PostResult) {
	var entry *models.LedgerEntry
	if result.Success {
		entry = models.NewLedgerEntry(item.Fingerprint(), result.Platform, models.LedgerOutcomePosted)
		entry.PostReference = result.PostReference
	} else {
		entry = models.NewLedgerEntry(item.Fingerprint(), result.Platform, models.LedgerOutcomeFailed)
		entry.ErrorKind = string(result.ErrorKind)
	}
	entry.TitlePreview = titlePreview(item.Title)

	if err := s.ledger.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record attempt in ledger",
			"fingerprint", item.Fingerprint(),
			"platform", result.Platform,
			"error", err)
	}
}

func (s *PublishingService) recordSkip(ctx context.Context, item *models.ContentItem, platform models.Platform, reason string) {
	entry := models.NewLedgerEntry(item.Fingerprint(), platform, models.LedgerOutcomeSkipped)
	entry.ErrorKind = reason
	entry.TitlePreview = titlePreview(item.Title)

	if err := s.ledger.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record skip in ledger",
			"fingerprint", item.Fingerprint(),
			"platform", platform,
			"error", err)
	}
}

func (s *PublishingService) tally(summary *models.RunSummary, outcome *models.ItemOutcome) {
	for _, platform := range outcome.Platforms {
		switch {
		case !platform.Attempted:
			summary.Skipped++
		case platform.Result != nil && platform.Result.Success:
			summary.Posted[platform.Platform]++
		default:
			summary.Failed[platform.Platform]++
		}
	}
}

func titlePreview(title string) string {
	const limit = 80
	runes := []rune(title)
	if len(runes) <= limit {
		return title
	}
	return string(runes[:limit])
}
