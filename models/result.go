// ABOUTME: This file defines per-attempt and per-run result models
// ABOUTME: PostResult, ItemOutcome and RunSummary live and die within a run

package models

import (
	"time"

	"github.com/google/uuid"
)

// PostErrorKind classifies a failed platform attempt.
type PostErrorKind string

const (
	PostErrorAuthInvalid      PostErrorKind = "AuthInvalid"
	PostErrorMediaRejected    PostErrorKind = "MediaRejected"
	PostErrorRateLimited      PostErrorKind = "RateLimited"
	PostErrorTransientNetwork PostErrorKind = "TransientNetwork"
	PostErrorUnknown          PostErrorKind = "UnknownPlatformError"
)

// Retryable reports whether the orchestrator may retry this kind of
// failure within the same run.
func (k PostErrorKind) Retryable() bool {
	return k == PostErrorRateLimited || k == PostErrorTransientNetwork
}

// PostResult is the outcome of one platform posting attempt.
// PostReference is only set on success; ErrorKind only on failure.
type PostResult struct {
	Platform      Platform      `json:"platform"`
	Success       bool          `json:"success"`
	PostReference string        `json:"post_reference,omitempty"`
	ErrorKind     PostErrorKind `json:"error_kind,omitempty"`
	Message       string        `json:"message,omitempty"`
	Attempts      int           `json:"attempts"`
}

// Skip reasons recorded when a platform is not attempted for an item.
const (
	SkipReasonAlreadyPosted        = "already-posted"
	SkipReasonNoMedia              = "no-media"
	SkipReasonAuthInvalid          = "auth-invalid"
	SkipReasonFacebookFailed       = "facebook-failed"
	SkipReasonFacebookNotAttempted = "facebook-not-attempted"
)

// PlatformOutcome is what happened to one platform for one item:
// either an attempt result or a recorded skip reason.
type PlatformOutcome struct {
	Platform   Platform    `json:"platform"`
	Attempted  bool        `json:"attempted"`
	SkipReason string      `json:"skip_reason,omitempty"`
	Result     *PostResult `json:"result,omitempty"`
}

// ItemOutcome aggregates all platform outcomes for a single item.
type ItemOutcome struct {
	Fingerprint string            `json:"fingerprint"`
	Title       string            `json:"title"`
	SourceURL   string            `json:"source_url,omitempty"`
	Platforms   []PlatformOutcome `json:"platforms"`
}

// Outcome returns the recorded outcome for a platform, or nil.
func (o *ItemOutcome) Outcome(platform Platform) *PlatformOutcome {
	for i := range o.Platforms {
		if o.Platforms[i].Platform == platform {
			return &o.Platforms[i]
		}
	}
	return nil
}

// RunSummary aggregates one full workflow pass. It is handed to the
// result sink at the end of the run and then discarded.
type RunSummary struct {
	RunID      uuid.UUID        `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	Duration   time.Duration    `json:"duration"`
	Fetched    int              `json:"fetched"`
	Posted     map[Platform]int `json:"posted"`
	Failed     map[Platform]int `json:"failed"`
	Skipped    int              `json:"skipped"`
	Items      []*ItemOutcome   `json:"items"`
}

// NewRunSummary creates an empty summary for a starting run.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		Posted:    make(map[Platform]int),
		Failed:    make(map[Platform]int),
	}
}
