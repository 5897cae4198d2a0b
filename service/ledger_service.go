// ABOUTME: Redundancy ledger keeping an in-memory index over the durable store
// ABOUTME: Answers posted-before queries and write-through-records attempts

package service

import (
	"context"
	"fmt"
	"log/slog"

	"feed-publisher/models"
	"feed-publisher/repository"
)

// RedundancyLedger is the single authority on which (fingerprint,
// platform) pairs have already been published. It loads the durable store
// once at startup and writes through on every recorded attempt, so a crash
// after any record loses at most nothing.
type RedundancyLedger struct {
	repo   repository.LedgerRepository
	logger *slog.Logger

	entries map[string]map[models.Platform]*models.LedgerEntry
}

// NewRedundancyLedger creates a ledger over the given store. Call Load
// before the first query.
func NewRedundancyLedger(repo repository.LedgerRepository, logger *slog.Logger) *RedundancyLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedundancyLedger{
		repo:    repo,
		logger:  logger,
		entries: make(map[string]map[models.Platform]*models.LedgerEntry),
	}
}

// Load builds the in-memory index from the durable store.
func (l *RedundancyLedger) Load(ctx context.Context) error {
	stored, err := l.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	for _, entry := range stored {
		l.index(entry)
	}

	l.logger.Info("Loaded redundancy ledger", "entries", len(stored))
	return nil
}

// PostedSuccessfully reports whether the pair has a confirmed publication
// on record. Failed and skipped entries do not block re-attempts.
func (l *RedundancyLedger) PostedSuccessfully(fingerprint string, platform models.Platform) bool {
	entry := l.lookup(fingerprint, platform)
	return entry != nil && entry.Posted()
}

// PostReference returns the stored post reference for a confirmed
// publication, or "" when none exists. Re-runs use this to thread an
// earlier Facebook post into a pending Instagram post.
func (l *RedundancyLedger) PostReference(fingerprint string, platform models.Platform) string {
	entry := l.lookup(fingerprint, platform)
	if entry == nil || !entry.Posted() {
		return ""
	}
	return entry.PostReference
}

// Record persists the entry and then updates the index. Persistence comes
// first: an entry that is only in memory protects nothing. A pair already
// recorded as posted is never downgraded.
func (l *RedundancyLedger) Record(ctx context.Context, entry *models.LedgerEntry) error {
	if existing := l.lookup(entry.Fingerprint, entry.Platform); existing != nil && existing.Posted() && !entry.Posted() {
		l.logger.Debug("Ignoring downgrade of posted ledger entry",
			"fingerprint", entry.Fingerprint,
			"platform", entry.Platform,
			"outcome", entry.Outcome)
		return nil
	}

	if err := l.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	l.index(entry)
	return nil
}

// Close releases the underlying store.
func (l *RedundancyLedger) Close() error {
	return l.repo.Close()
}

func (l *RedundancyLedger) lookup(fingerprint string, platform models.Platform) *models.LedgerEntry {
	platforms, ok := l.entries[fingerprint]
	if !ok {
		return nil
	}
	return platforms[platform]
}

func (l *RedundancyLedger) index(entry *models.LedgerEntry) {
	platforms, ok := l.entries[entry.Fingerprint]
	if !ok {
		platforms = make(map[models.Platform]*models.LedgerEntry)
		l.entries[entry.Fingerprint] = platforms
	}
	platforms[entry.Platform] = entry
}
