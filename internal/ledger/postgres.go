package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the Postgres store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS duration_ledger (
	key              TEXT PRIMARY KEY,
	duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS duration_ledger_created_at_idx ON duration_ledger (created_at);
`

type PostgresStore struct {
	db     DB
	policy Policy
	now    func() time.Time
}

func NewPostgresStore(db DB, policy Policy) *PostgresStore {
	return &PostgresStore{db: db, policy: policy.withDefaults(), now: time.Now}
}

// WithClock replaces the clock used for createdAt and retention checks.
func (s *PostgresStore) WithClock(now func() time.Time) *PostgresStore {
	s.now = now
	return s
}

// EnsureSchema creates the ledger table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, ledgerSchema); err != nil {
		return fmt.Errorf("create duration_ledger: %w", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, minutes int) error {
	if err := validate(key, minutes); err != nil {
		return err
	}
	now := s.now()

	_, err := s.db.Exec(ctx, `
		INSERT INTO duration_ledger (key, duration_minutes, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET duration_minutes = EXCLUDED.duration_minutes,
		    created_at = EXCLUDED.created_at
	`, key, minutes, now)
	if err != nil {
		return fmt.Errorf("upsert ledger entry: %w", err)
	}

	return s.prune(ctx, now)
}

func (s *PostgresStore) prune(ctx context.Context, now time.Time) error {
	if _, err := s.db.Exec(ctx, `
		DELETE FROM duration_ledger
		WHERE created_at < $1
	`, now.Add(-s.policy.Retention)); err != nil {
		return fmt.Errorf("expire ledger entries: %w", err)
	}

	if _, err := s.db.Exec(ctx, `
		DELETE FROM duration_ledger
		WHERE key IN (
			SELECT key FROM duration_ledger
			ORDER BY created_at DESC, key DESC
			OFFSET $1
		)
	`, s.policy.MaxEntries); err != nil {
		return fmt.Errorf("evict ledger entries: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	var e Entry
	err := s.db.QueryRow(ctx, `
		SELECT key, duration_minutes, created_at
		FROM duration_ledger
		WHERE key = $1
		  AND created_at >= $2
	`, key, s.now().Add(-s.policy.Retention)).Scan(&e.Key, &e.DurationMinutes, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("load ledger entry: %w", err)
	}
	return e, true, nil
}

func (s *PostgresStore) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT count(*)
		FROM duration_ledger
		WHERE created_at >= $1
	`, s.now().Add(-s.policy.Retention)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return n, nil
}
