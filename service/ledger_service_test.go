// ABOUTME: Tests for the redundancy ledger index
// ABOUTME: Covers load, posted queries, write-through and downgrade guard

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-publisher/models"
)

type fakeLedgerRepo struct {
	stored   []*models.LedgerEntry
	appended []*models.LedgerEntry
	loadErr  error
	apndErr  error
	closed   bool
}

func (f *fakeLedgerRepo) LoadAll(ctx context.Context) ([]*models.LedgerEntry, error) {
	return f.stored, f.loadErr
}

func (f *fakeLedgerRepo) Append(ctx context.Context, entry *models.LedgerEntry) error {
	if f.apndErr != nil {
		return f.apndErr
	}
	f.appended = append(f.appended, entry)
	return nil
}

func (f *fakeLedgerRepo) Close() error {
	f.closed = true
	return nil
}

func postedEntry(fingerprint string, platform models.Platform, ref string) *models.LedgerEntry {
	entry := models.NewLedgerEntry(fingerprint, platform, models.LedgerOutcomePosted)
	entry.PostReference = ref
	return entry
}

func TestRedundancyLedger_LoadAndQuery(t *testing.T) {
	repo := &fakeLedgerRepo{stored: []*models.LedgerEntry{
		postedEntry("fp-1", models.PlatformFacebook, "https://facebook.com/1_1"),
		models.NewLedgerEntry("fp-1", models.PlatformInstagram, models.LedgerOutcomeFailed),
		models.NewLedgerEntry("fp-2", models.PlatformFacebook, models.LedgerOutcomeSkipped),
	}}

	ledger := NewRedundancyLedger(repo, nil)
	require.NoError(t, ledger.Load(context.Background()))

	assert.True(t, ledger.PostedSuccessfully("fp-1", models.PlatformFacebook))
	assert.Equal(t, "https://facebook.com/1_1", ledger.PostReference("fp-1", models.PlatformFacebook))

	// Failed and skipped rows do not block.
	assert.False(t, ledger.PostedSuccessfully("fp-1", models.PlatformInstagram))
	assert.False(t, ledger.PostedSuccessfully("fp-2", models.PlatformFacebook))
	assert.Empty(t, ledger.PostReference("fp-1", models.PlatformInstagram))

	assert.False(t, ledger.PostedSuccessfully("fp-unknown", models.PlatformFacebook))
}

func TestRedundancyLedger_RecordWritesThrough(t *testing.T) {
	repo := &fakeLedgerRepo{}
	ledger := NewRedundancyLedger(repo, nil)
	require.NoError(t, ledger.Load(context.Background()))

	entry := postedEntry("fp-3", models.PlatformFacebook, "https://facebook.com/3_3")
	require.NoError(t, ledger.Record(context.Background(), entry))

	require.Len(t, repo.appended, 1)
	assert.True(t, ledger.PostedSuccessfully("fp-3", models.PlatformFacebook))
}

func TestRedundancyLedger_RecordFailureLeavesIndexUnchanged(t *testing.T) {
	repo := &fakeLedgerRepo{apndErr: assert.AnError}
	ledger := NewRedundancyLedger(repo, nil)
	require.NoError(t, ledger.Load(context.Background()))

	entry := postedEntry("fp-4", models.PlatformFacebook, "https://facebook.com/4_4")
	require.Error(t, ledger.Record(context.Background(), entry))

	assert.False(t, ledger.PostedSuccessfully("fp-4", models.PlatformFacebook))
}

func TestRedundancyLedger_NeverDowngradesPostedEntries(t *testing.T) {
	repo := &fakeLedgerRepo{stored: []*models.LedgerEntry{
		postedEntry("fp-5", models.PlatformFacebook, "https://facebook.com/5_5"),
	}}
	ledger := NewRedundancyLedger(repo, nil)
	require.NoError(t, ledger.Load(context.Background()))

	skip := models.NewLedgerEntry("fp-5", models.PlatformFacebook, models.LedgerOutcomeSkipped)
	require.NoError(t, ledger.Record(context.Background(), skip))

	assert.Empty(t, repo.appended, "downgrade is not written to the store")
	assert.True(t, ledger.PostedSuccessfully("fp-5", models.PlatformFacebook))
	assert.Equal(t, "https://facebook.com/5_5", ledger.PostReference("fp-5", models.PlatformFacebook))
}
