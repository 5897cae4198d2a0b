// ABOUTME: Result sinks receiving the end-of-run summary
// ABOUTME: Default sink emits structured log lines per item and run

package service

import (
	"log/slog"

	"feed-publisher/models"
)

// ResultSink receives the summary of a completed run.
type ResultSink interface {
	Publish(summary *models.RunSummary)
}

// LogResultSink writes the run summary to the structured log.
type LogResultSink struct {
	logger *slog.Logger
}

// NewLogResultSink creates a sink over the given logger.
func NewLogResultSink(logger *slog.Logger) *LogResultSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogResultSink{logger: logger}
}

// Publish logs one line per platform outcome and a closing run line.
func (s *LogResultSink) Publish(summary *models.RunSummary) {
	for _, item := range summary.Items {
		for _, outcome := range item.Platforms {
			attrs := []any{
				"run_id", summary.RunID,
				"fingerprint", item.Fingerprint,
				"title", item.Title,
				"platform", outcome.Platform,
			}

			switch {
			case !outcome.Attempted:
				s.logger.Info("Item skipped", append(attrs, "skip_reason", outcome.SkipReason)...)
			case outcome.Result != nil && outcome.Result.Success:
				s.logger.Info("Item posted", append(attrs,
					"post_reference", outcome.Result.PostReference,
					"attempts", outcome.Result.Attempts)...)
			case outcome.Result != nil:
				s.logger.Warn("Item failed", append(attrs,
					"error_kind", outcome.Result.ErrorKind,
					"attempts", outcome.Result.Attempts,
					"message", outcome.Result.Message)...)
			}
		}
	}

	s.logger.Info("Run completed",
		"run_id", summary.RunID,
		"duration", summary.Duration,
		"fetched", summary.Fetched,
		"posted_facebook", summary.Posted[models.PlatformFacebook],
		"posted_instagram", summary.Posted[models.PlatformInstagram],
		"failed_facebook", summary.Failed[models.PlatformFacebook],
		"failed_instagram", summary.Failed[models.PlatformInstagram],
		"skipped", summary.Skipped)
}
