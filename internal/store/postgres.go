package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/punchamoorthee/orionledger/internal/domain"
)

var postgresSchema = []string{`
CREATE TABLE IF NOT EXISTS ledger_document (
	id         SMALLINT PRIMARY KEY CHECK (id = 1),
	revision   BIGINT      NOT NULL,
	body       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, `
CREATE TABLE IF NOT EXISTS ledger_quarantine (
	id             BIGSERIAL PRIMARY KEY,
	revision       BIGINT      NOT NULL UNIQUE,
	body           TEXT        NOT NULL,
	reason         TEXT        NOT NULL,
	quarantined_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
}

// PostgresStore keeps the ledger document in a single JSONB row. Saves lock
// the row with SELECT ... FOR UPDATE before checking the revision.
type PostgresStore struct {
	Db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(ctx context.Context, connString string, logger *slog.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}
	config.MaxConns = 10
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure ledger schema: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{Db: pool, logger: logger}, nil
}

func (s *PostgresStore) Load(ctx context.Context) (*domain.Ledger, error) {
	var (
		revision int64
		body     []byte
	)
	err := s.Db.QueryRow(ctx, "SELECT revision, body FROM ledger_document WHERE id = 1").Scan(&revision, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	l, err := Decode(body)
	if err != nil {
		if qerr := s.quarantine(ctx, revision, body, err); qerr != nil {
			return nil, qerr
		}
		l = domain.NewLedger()
	}
	l.Revision = revision
	return l, nil
}

// quarantine copies an undecodable document aside so the next save cannot
// destroy the only copy. Without a copy, Load fails instead.
func (s *PostgresStore) quarantine(ctx context.Context, revision int64, body []byte, cause error) error {
	_, err := s.Db.Exec(ctx,
		"INSERT INTO ledger_quarantine (revision, body, reason) VALUES ($1, $2, $3) ON CONFLICT (revision) DO NOTHING",
		revision, string(body), cause.Error())
	if err != nil {
		s.logger.Error("ledger document is malformed and could not be quarantined",
			"revision", revision, "decode_error", cause, "error", err)
		return fmt.Errorf("quarantine malformed ledger: %w", err)
	}
	s.logger.Warn("ledger document is malformed, starting empty",
		"revision", revision, "decode_error", cause)
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, l *domain.Ledger) (err error) {
	start := time.Now()
	defer func() { observeSave("postgres", start, err) }()

	next := *l
	next.Revision = l.Revision + 1
	body, err := Encode(&next)
	if err != nil {
		return err
	}

	tx, err := s.Db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		stored     int64
		storedBody []byte
	)
	err = tx.QueryRow(ctx, "SELECT revision, body FROM ledger_document WHERE id = 1 FOR UPDATE").Scan(&stored, &storedBody)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		stored = 0
	case err != nil:
		return fmt.Errorf("lock acquisition failed: %w", err)
	}
	if stored != l.Revision {
		return fmt.Errorf("%w: have revision %d, stored %d", ErrStale, l.Revision, stored)
	}
	if current, decodeErr := Decode(storedBody); stored > 0 && decodeErr == nil {
		current.Revision = stored
		if unchanged(current, l) {
			l.SchemaVersion = domain.SchemaVersion
			return nil
		}
	}

	if stored == 0 {
		_, err = tx.Exec(ctx,
			"INSERT INTO ledger_document (id, revision, body) VALUES (1, $1, $2)",
			next.Revision, body)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Another writer created the row between our read and insert.
			return fmt.Errorf("%w: concurrent first save", ErrStale)
		}
	} else {
		_, err = tx.Exec(ctx,
			"UPDATE ledger_document SET revision = $1, body = $2, updated_at = now() WHERE id = 1",
			next.Revision, body)
	}
	if err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	l.Revision = next.Revision
	l.SchemaVersion = domain.SchemaVersion
	return nil
}

func (s *PostgresStore) Close() error {
	s.Db.Close()
	return nil
}
