// Package history journals finished export attempts in SQLite.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"talkclip/internal/config"
	"talkclip/internal/status"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrSchemaMismatch indicates the database was written by another version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	timeLayout   = time.RFC3339Nano
	defaultLimit = 20
)

// Entry is one journaled export.
type Entry struct {
	ID         int64
	AttemptID  string
	StartedAt  time.Time
	FinishedAt time.Time
	Character  string
	Text       string
	AudioPath  string
	Report     status.Report
}

// Store is the history journal.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the journal at cfg.HistoryPath().
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath opens the journal at path.
func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Record appends e and returns its row id.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	ctx = ensureContext(ctx)
	var id int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `INSERT INTO exports
			(attempt_id, started_at, finished_at, character, text, audio_path, kind, message, sub_kind, sub_message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.AttemptID,
			e.StartedAt.UTC().Format(timeLayout),
			e.FinishedAt.UTC().Format(timeLayout),
			e.Character,
			e.Text,
			e.AudioPath,
			e.Report.Kind.String(),
			e.Report.Message,
			e.Report.SubKind.String(),
			e.Report.SubMessage,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("record export: %w", err)
	}
	return id, nil
}

// List returns up to limit entries, newest first. limit <= 0 means the default.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = defaultLimit
	}
	var out []Entry
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, `SELECT
			id, attempt_id, started_at, finished_at, character, text, audio_path, kind, message, sub_kind, sub_message
			FROM exports ORDER BY id DESC LIMIT ?`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			e, err := scanEntry(rows)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return out, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e                 Entry
		started, finished string
		kind, subKind     string
	)
	if err := rows.Scan(&e.ID, &e.AttemptID, &started, &finished, &e.Character, &e.Text,
		&e.AudioPath, &kind, &e.Report.Message, &subKind, &e.Report.SubMessage); err != nil {
		return Entry{}, err
	}
	var err error
	if e.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return Entry{}, fmt.Errorf("parse started_at: %w", err)
	}
	if e.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return Entry{}, fmt.Errorf("parse finished_at: %w", err)
	}
	if e.Report.Kind, err = status.ParseKind(kind); err != nil {
		return Entry{}, err
	}
	if e.Report.SubKind, err = status.ParseKind(subKind); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
