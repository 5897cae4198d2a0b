// ABOUTME: Repository layer common interfaces for clean architecture
// ABOUTME: Defines contracts for credential reads and ledger persistence

package repository

import (
	"context"

	"feed-publisher/models"
)

// CredentialRepository reads per-platform credential records.
// It is intentionally read-only: there is no save, refresh or delete
// operation anywhere in the contract, so the core cannot invalidate
// live tokens even by accident.
type CredentialRepository interface {
	Load(ctx context.Context, platform models.Platform) (*models.PlatformCredentials, error)
}

// LedgerRepository persists (fingerprint, platform) outcome rows.
// The store must support a full scan at startup and idempotent
// row-wise appends: appending the same (fingerprint, platform) twice
// replaces the row instead of duplicating it.
type LedgerRepository interface {
	LoadAll(ctx context.Context) ([]*models.LedgerEntry, error)
	Append(ctx context.Context, entry *models.LedgerEntry) error
	Close() error
}
