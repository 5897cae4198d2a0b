// ABOUTME: Tests for the SQLite ledger repository
// ABOUTME: Covers upsert idempotence, posted-row immutability and startup scans

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-publisher/models"
)

func newTestLedger(t *testing.T) *SQLiteLedgerRepository {
	t.Helper()

	repo, err := NewSQLiteLedgerRepository(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteLedgerRepository_AppendAndLoadAll(t *testing.T) {
	repo := newTestLedger(t)
	ctx := context.Background()

	posted := models.NewLedgerEntry("fp-1", models.PlatformFacebook, models.LedgerOutcomePosted)
	posted.PostReference = "https://facebook.com/111_222"
	posted.TitlePreview = "Breaking story"

	failed := models.NewLedgerEntry("fp-1", models.PlatformInstagram, models.LedgerOutcomeFailed)
	failed.ErrorKind = string(models.PostErrorRateLimited)

	require.NoError(t, repo.Append(ctx, posted))
	require.NoError(t, repo.Append(ctx, failed))

	entries, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byPlatform := make(map[models.Platform]*models.LedgerEntry)
	for _, e := range entries {
		byPlatform[e.Platform] = e
	}

	fb := byPlatform[models.PlatformFacebook]
	require.NotNil(t, fb)
	assert.Equal(t, "fp-1", fb.Fingerprint)
	assert.Equal(t, models.LedgerOutcomePosted, fb.Outcome)
	assert.Equal(t, "https://facebook.com/111_222", fb.PostReference)
	assert.Equal(t, "Breaking story", fb.TitlePreview)
	assert.WithinDuration(t, time.Now(), fb.ProcessedAt, time.Minute)

	ig := byPlatform[models.PlatformInstagram]
	require.NotNil(t, ig)
	assert.Equal(t, models.LedgerOutcomeFailed, ig.Outcome)
	assert.Equal(t, string(models.PostErrorRateLimited), ig.ErrorKind)
}

func TestSQLiteLedgerRepository_AppendUpsertsSameKey(t *testing.T) {
	repo := newTestLedger(t)
	ctx := context.Background()

	first := models.NewLedgerEntry("fp-2", models.PlatformFacebook, models.LedgerOutcomeFailed)
	first.ErrorKind = string(models.PostErrorTransientNetwork)
	require.NoError(t, repo.Append(ctx, first))

	// A later run succeeds: the failed row is replaced, not duplicated.
	second := models.NewLedgerEntry("fp-2", models.PlatformFacebook, models.LedgerOutcomePosted)
	second.PostReference = "https://facebook.com/333_444"
	require.NoError(t, repo.Append(ctx, second))

	entries, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LedgerOutcomePosted, entries[0].Outcome)
	assert.Equal(t, "https://facebook.com/333_444", entries[0].PostReference)
	assert.Empty(t, entries[0].ErrorKind)
}

func TestSQLiteLedgerRepository_PostedRowIsNeverOverwritten(t *testing.T) {
	repo := newTestLedger(t)
	ctx := context.Background()

	posted := models.NewLedgerEntry("fp-3", models.PlatformFacebook, models.LedgerOutcomePosted)
	posted.PostReference = "https://facebook.com/555_666"
	require.NoError(t, repo.Append(ctx, posted))

	skipped := models.NewLedgerEntry("fp-3", models.PlatformFacebook, models.LedgerOutcomeSkipped)
	require.NoError(t, repo.Append(ctx, skipped))

	entries, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LedgerOutcomePosted, entries[0].Outcome)
	assert.Equal(t, "https://facebook.com/555_666", entries[0].PostReference)
}

func TestSQLiteLedgerRepository_LoadAllEmpty(t *testing.T) {
	repo := newTestLedger(t)

	entries, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
