// ABOUTME: This file defines the persistent ledger entry model
// ABOUTME: One row per (fingerprint, platform) attempt, owned by the ledger

package models

import (
	"time"

	"github.com/google/uuid"
)

// LedgerOutcome records how a platform attempt for a fingerprint ended.
type LedgerOutcome string

const (
	LedgerOutcomePosted  LedgerOutcome = "posted"
	LedgerOutcomeFailed  LedgerOutcome = "failed"
	LedgerOutcomeSkipped LedgerOutcome = "skipped"
)

// LedgerEntry is the durable record of one processed (fingerprint,
// platform) pair. Only entries with outcome "posted" block a later
// re-attempt; failed and skipped entries keep the reason on record but
// leave the pair eligible for the next run.
type LedgerEntry struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	Fingerprint   string        `json:"fingerprint" db:"fingerprint"`
	Platform      Platform      `json:"platform" db:"platform"`
	Outcome       LedgerOutcome `json:"outcome" db:"outcome"`
	PostReference string        `json:"post_reference,omitempty" db:"post_reference"`
	ErrorKind     string        `json:"error_kind,omitempty" db:"error_kind"`
	TitlePreview  string        `json:"title_preview,omitempty" db:"title_preview"`
	ProcessedAt   time.Time     `json:"processed_at" db:"processed_at"`
}

// NewLedgerEntry creates a ledger entry for a platform attempt outcome.
func NewLedgerEntry(fingerprint string, platform Platform, outcome LedgerOutcome) *LedgerEntry {
	return &LedgerEntry{
		ID:          uuid.New(),
		Fingerprint: fingerprint,
		Platform:    platform,
		Outcome:     outcome,
		ProcessedAt: time.Now(),
	}
}

// Posted reports whether this entry records a confirmed publication.
func (e *LedgerEntry) Posted() bool {
	return e.Outcome == LedgerOutcomePosted
}
