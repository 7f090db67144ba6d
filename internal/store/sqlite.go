package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/imapmail/internal/mailbox"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// UpsertEnvelopes inserts or replaces a batch of cached envelopes for
// one account folder.
func (s *SQLiteStore) UpsertEnvelopes(
	ctx context.Context,
	accountID, folder string,
	envs []mailbox.Envelope,
) error {
	if len(envs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO messages (
			account_id, folder, uid,
			message_id, subject, from_name, from_address, to_addrs,
			date, seen, flagged, answered, fetched_at
		) VALUES (
			?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?, ?
		)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, env := range envs {
		toAddrs, err := json.Marshal(env.To)
		if err != nil {
			return fmt.Errorf("marshaling recipients for UID %d: %w", env.UID, err)
		}

		_, err = stmt.ExecContext(ctx,
			accountID, folder, env.UID,
			env.MessageID, env.Subject, env.FromName, env.FromAddress, string(toAddrs),
			env.Date.UTC(), boolToInt(env.Seen), boolToInt(env.Flagged),
			boolToInt(env.Answered), now,
		)
		if err != nil {
			return fmt.Errorf("upserting envelope UID %d: %w", env.UID, err)
		}
	}

	return tx.Commit()
}

// GetEnvelopes retrieves cached envelopes matching the provided filter.
func (s *SQLiteStore) GetEnvelopes(
	ctx context.Context,
	accountID string,
	filter EnvelopeFilter,
) ([]mailbox.Envelope, error) {
	conditions, args := filterConditions(accountID, filter)

	query := `SELECT uid, message_id, subject, from_name, from_address, to_addrs,
		date, seen, flagged, answered FROM messages WHERE ` +
		strings.Join(conditions, " AND ")

	switch filter.SortBy {
	case "from":
		query += " ORDER BY from_address COLLATE NOCASE"
	case "subject":
		query += " ORDER BY subject COLLATE NOCASE"
	default:
		query += " ORDER BY date"
	}
	if filter.SortDesc {
		query += " DESC"
	}

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying envelopes: %w", err)
	}
	defer rows.Close()

	var envs []mailbox.Envelope
	for rows.Next() {
		env, err := scanEnvelope(rows)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}

	return envs, rows.Err()
}

// GetEnvelopeCount returns the number of cached envelopes matching the
// filter, ignoring pagination.
func (s *SQLiteStore) GetEnvelopeCount(
	ctx context.Context,
	accountID string,
	filter EnvelopeFilter,
) (int, error) {
	conditions, args := filterConditions(accountID, filter)

	query := "SELECT COUNT(*) FROM messages WHERE " + strings.Join(conditions, " AND ")

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting envelopes: %w", err)
	}
	return count, nil
}

// DeleteEnvelope removes one cached envelope and its attachment records.
func (s *SQLiteStore) DeleteEnvelope(
	ctx context.Context,
	accountID, folder string,
	uid uint32,
) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM messages WHERE account_id = ? AND folder = ? AND uid = ?",
		accountID, folder, uid,
	)
	if err != nil {
		return fmt.Errorf("deleting envelope UID %d: %w", uid, err)
	}

	_, err = s.db.ExecContext(ctx,
		"DELETE FROM attachments WHERE account_id = ? AND folder = ? AND uid = ?",
		accountID, folder, uid,
	)
	if err != nil {
		return fmt.Errorf("deleting attachment records for UID %d: %w", uid, err)
	}
	return nil
}

// RecordAttachment inserts or replaces one attachment ledger entry.
func (s *SQLiteStore) RecordAttachment(
	ctx context.Context,
	rec AttachmentRecord,
) error {
	savedAt := rec.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO attachments (
			account_id, folder, uid, attachment_id,
			name, content_id, disposition, size, saved_path, saved_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.AccountID, rec.Folder, rec.UID, rec.AttachmentID,
		rec.Name, rec.ContentID, rec.Disposition, rec.Size,
		rec.SavedPath, savedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording attachment %s: %w", rec.AttachmentID, err)
	}
	return nil
}

// GetAttachments retrieves the attachment records for one message.
func (s *SQLiteStore) GetAttachments(
	ctx context.Context,
	accountID, folder string,
	uid uint32,
) ([]AttachmentRecord, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT account_id, folder, uid, attachment_id,
			name, content_id, disposition, size, saved_path, saved_at
		FROM attachments
		WHERE account_id = ? AND folder = ? AND uid = ?
		ORDER BY name`,
		accountID, folder, uid,
	)
	if err != nil {
		return nil, fmt.Errorf("querying attachments: %w", err)
	}
	defer rows.Close()

	var recs []AttachmentRecord
	for rows.Next() {
		var (
			rec     AttachmentRecord
			savedAt time.Time
		)
		err := rows.Scan(
			&rec.AccountID, &rec.Folder, &rec.UID, &rec.AttachmentID,
			&rec.Name, &rec.ContentID, &rec.Disposition, &rec.Size,
			&rec.SavedPath, &savedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning attachment row: %w", err)
		}
		rec.SavedAt = savedAt
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// filterConditions builds the shared WHERE clause for envelope queries.
func filterConditions(accountID string, filter EnvelopeFilter) ([]string, []interface{}) {
	conditions := []string{"account_id = ?"}
	args := []interface{}{accountID}

	if filter.Folder != "" {
		conditions = append(conditions, "folder = ?")
		args = append(args, filter.Folder)
	}
	if filter.Unseen != nil {
		conditions = append(conditions, "seen = ?")
		args = append(args, boolToInt(!*filter.Unseen))
	}
	if filter.Flagged != nil {
		conditions = append(conditions, "flagged = ?")
		args = append(args, boolToInt(*filter.Flagged))
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions,
			"(subject LIKE ? OR from_name LIKE ? OR from_address LIKE ?)")
		pattern := "%" + *filter.Query + "%"
		args = append(args, pattern, pattern, pattern)
	}

	return conditions, args
}

// scanEnvelope scans an envelope row from a sqlx.Rows result set.
func scanEnvelope(rows *sqlx.Rows) (mailbox.Envelope, error) {
	var (
		env      mailbox.Envelope
		toAddrs  string
		date     time.Time
		seen     int
		flagged  int
		answered int
	)

	err := rows.Scan(
		&env.UID, &env.MessageID, &env.Subject, &env.FromName, &env.FromAddress,
		&toAddrs, &date, &seen, &flagged, &answered,
	)
	if err != nil {
		return mailbox.Envelope{}, fmt.Errorf("scanning envelope row: %w", err)
	}

	env.Date = date
	env.Seen = seen != 0
	env.Flagged = flagged != 0
	env.Answered = answered != 0

	if toAddrs != "" {
		if err := json.Unmarshal([]byte(toAddrs), &env.To); err != nil {
			return mailbox.Envelope{}, fmt.Errorf("unmarshaling recipients: %w", err)
		}
	}

	return env, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
