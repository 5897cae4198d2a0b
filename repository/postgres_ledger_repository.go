// ABOUTME: PostgreSQL implementation of LedgerRepository for shared deployments
// ABOUTME: Same (fingerprint, platform) upsert contract as the SQLite store

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"feed-publisher/models"
)

const postgresLedgerSchema = `
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id             UUID NOT NULL,
		fingerprint    TEXT NOT NULL,
		platform       TEXT NOT NULL,
		outcome        TEXT NOT NULL,
		post_reference TEXT NOT NULL DEFAULT '',
		error_kind     TEXT NOT NULL DEFAULT '',
		title_preview  TEXT NOT NULL DEFAULT '',
		processed_at   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (fingerprint, platform)
	)`

// PostgreSQLLedgerRepository implements LedgerRepository using PostgreSQL.
type PostgreSQLLedgerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgreSQLLedgerRepository connects to the database named by databaseURL
// and ensures the ledger schema exists.
func NewPostgreSQLLedgerRepository(databaseURL string, logger *slog.Logger) (*PostgreSQLLedgerRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping ledger database: %w", err)
	}

	if _, err := db.Exec(postgresLedgerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}

	logger.Debug("Connected to PostgreSQL ledger")

	return &PostgreSQLLedgerRepository{
		db:     db,
		logger: logger,
	}, nil
}

// LoadAll returns every ledger row for the startup index build.
func (r *PostgreSQLLedgerRepository) LoadAll(ctx context.Context) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, fingerprint, platform, outcome, post_reference, error_kind, title_preview, processed_at
		FROM ledger_entries
		ORDER BY processed_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		entry := &models.LedgerEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.Fingerprint,
			&entry.Platform,
			&entry.Outcome,
			&entry.PostReference,
			&entry.ErrorKind,
			&entry.TitlePreview,
			&entry.ProcessedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan ledger row", "error", err)
			continue
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Append upserts the entry keyed by (fingerprint, platform) without ever
// overwriting a row whose outcome is already "posted".
func (r *PostgreSQLLedgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, fingerprint, platform, outcome, post_reference, error_kind, title_preview, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (fingerprint, platform) DO UPDATE SET
			id = EXCLUDED.id,
			outcome = EXCLUDED.outcome,
			post_reference = EXCLUDED.post_reference,
			error_kind = EXCLUDED.error_kind,
			title_preview = EXCLUDED.title_preview,
			processed_at = EXCLUDED.processed_at
		WHERE ledger_entries.outcome <> 'posted'`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Fingerprint,
		entry.Platform,
		entry.Outcome,
		entry.PostReference,
		entry.ErrorKind,
		entry.TitlePreview,
		entry.ProcessedAt,
	)

	if err != nil {
		r.logger.Error("Failed to append ledger entry",
			"fingerprint", entry.Fingerprint,
			"platform", entry.Platform,
			"error", err)
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	r.logger.Debug("Appended ledger entry",
		"fingerprint", entry.Fingerprint,
		"platform", entry.Platform,
		"outcome", entry.Outcome)

	return nil
}

// Close releases the underlying database handle.
func (r *PostgreSQLLedgerRepository) Close() error {
	return r.db.Close()
}
