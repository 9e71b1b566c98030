package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLStore keeps entries in the kv table created by the database migrations.
type SQLStore struct {
	db         *sql.DB
	now        func() time.Time
	maxEntries int
}

// NewSQLStore wraps db. maxEntries of zero disables the quota.
func NewSQLStore(db *sql.DB, maxEntries int) *SQLStore {
	return &SQLStore{db: db, maxEntries: maxEntries, now: time.Now}
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read kv entry %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin kv write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if s.maxEntries > 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM kv WHERE key = ?)", key).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check kv entry %q: %w", key, err)
		}
		if !exists {
			var count int
			if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv").Scan(&count); err != nil {
				return fmt.Errorf("failed to count kv entries: %w", err)
			}
			if count >= s.maxEntries {
				return ErrQuotaExceeded
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, s.now().UnixNano()); err != nil {
		return fmt.Errorf("failed to write kv entry %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit kv entry %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete kv entry %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) EvictOldest(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM kv WHERE key IN (
			SELECT key FROM kv ORDER BY updated_at ASC, key ASC LIMIT ?
		)`, n)
	if err != nil {
		return 0, fmt.Errorf("failed to evict kv entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count evicted kv entries: %w", err)
	}
	return int(affected), nil
}

func (s *SQLStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	if err != nil {
		return 0, fmt.Errorf("failed to delete kv prefix %q: %w", prefix, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted kv entries: %w", err)
	}
	return int(affected), nil
}

func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE key LIKE ? ESCAPE '\' ORDER BY key`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list kv prefix %q: %w", prefix, err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan kv key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list kv prefix %q: %w", prefix, err)
	}
	return keys, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
