package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/punchamoorthee/orionledger/internal/domain"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ledger_document (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	revision   INTEGER NOT NULL,
	body       TEXT    NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS ledger_quarantine (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	revision       INTEGER NOT NULL,
	body           TEXT    NOT NULL,
	reason         TEXT    NOT NULL,
	quarantined_at INTEGER NOT NULL
);
`

// SQLiteStore keeps the ledger document in a single row of an embedded
// SQLite database.
type SQLiteStore struct {
	sqlDB  *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps writers strictly serialized.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB, logger: logger}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*domain.Ledger, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	var (
		revision int64
		body     string
	)
	err := s.sqlDB.QueryRowContext(ctx, `SELECT revision, body FROM ledger_document WHERE id = 1`).Scan(&revision, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	l, err := Decode([]byte(body))
	if err != nil {
		s.quarantine(ctx, revision, body, err)
		l = domain.NewLedger()
	}
	l.Revision = revision
	return l, nil
}

func (s *SQLiteStore) Save(ctx context.Context, l *domain.Ledger) (err error) {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	start := time.Now()
	defer func() { observeSave("sqlite", start, err) }()

	next := *l
	next.Revision = l.Revision + 1
	body, err := Encode(&next)
	if err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	var (
		stored     int64
		storedBody string
	)
	err = tx.QueryRowContext(ctx, `SELECT revision, body FROM ledger_document WHERE id = 1`).Scan(&stored, &storedBody)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		stored = 0
	case err != nil:
		return fmt.Errorf("read revision: %w", err)
	}
	if stored != l.Revision {
		return fmt.Errorf("%w: have revision %d, stored %d", ErrStale, l.Revision, stored)
	}
	if current, decodeErr := Decode([]byte(storedBody)); stored > 0 && decodeErr == nil {
		current.Revision = stored
		if unchanged(current, l) {
			l.SchemaVersion = domain.SchemaVersion
			return nil
		}
	}

	now := time.Now().UTC().UnixMilli()
	if stored == 0 {
		_, err = tx.ExecContext(ctx, `
INSERT INTO ledger_document (id, revision, body, updated_at) VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET revision = excluded.revision, body = excluded.body, updated_at = excluded.updated_at
`, next.Revision, string(body), now)
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE ledger_document SET revision = ?, body = ?, updated_at = ? WHERE id = 1`,
			next.Revision, string(body), now)
	}
	if err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	l.Revision = next.Revision
	l.SchemaVersion = domain.SchemaVersion
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) quarantine(ctx context.Context, revision int64, body string, cause error) {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO ledger_quarantine (revision, body, reason, quarantined_at) VALUES (?, ?, ?, ?)`,
		revision, body, cause.Error(), time.Now().UTC().UnixMilli())
	if err != nil {
		s.logger.Error("ledger document is malformed and could not be quarantined",
			"revision", revision, "decode_error", cause, "error", err)
		return
	}
	s.logger.Warn("ledger document is malformed, starting empty",
		"revision", revision, "decode_error", cause)
}
