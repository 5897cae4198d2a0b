// ABOUTME: SQLite implementation of LedgerRepository for single-host deployments
// ABOUTME: One row per (fingerprint, platform), upserted per attempt, posted rows immutable

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"feed-publisher/models"
)

const sqliteLedgerSchema = `
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id             TEXT NOT NULL,
		fingerprint    TEXT NOT NULL,
		platform       TEXT NOT NULL,
		outcome        TEXT NOT NULL,
		post_reference TEXT NOT NULL DEFAULT '',
		error_kind     TEXT NOT NULL DEFAULT '',
		title_preview  TEXT NOT NULL DEFAULT '',
		processed_at   TIMESTAMP NOT NULL,
		PRIMARY KEY (fingerprint, platform)
	)`

// SQLiteLedgerRepository implements LedgerRepository using a local SQLite file.
type SQLiteLedgerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteLedgerRepository opens (or creates) the ledger database at path
// and ensures the schema exists.
func NewSQLiteLedgerRepository(path string, logger *slog.Logger) (*SQLiteLedgerRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database %s: %w", path, err)
	}

	// A single writer keeps upserts serialized without busy retries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteLedgerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}

	logger.Debug("Opened SQLite ledger", "path", path)

	return &SQLiteLedgerRepository{
		db:     db,
		logger: logger,
	}, nil
}

// LoadAll returns every ledger row for the startup index build.
func (r *SQLiteLedgerRepository) LoadAll(ctx context.Context) ([]*models.LedgerEntry, error) {
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

// Append upserts the entry keyed by (fingerprint, platform). A row whose
// outcome is already "posted" is never overwritten: the stored post
// reference must survive so later runs can thread it into dependent posts.
func (r *SQLiteLedgerRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, fingerprint, platform, outcome, post_reference, error_kind, title_preview, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint, platform) DO UPDATE SET
			id = excluded.id,
			outcome = excluded.outcome,
			post_reference = excluded.post_reference,
			error_kind = excluded.error_kind,
			title_preview = excluded.title_preview,
			processed_at = excluded.processed_at
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
func (r *SQLiteLedgerRepository) Close() error {
	return r.db.Close()
}
