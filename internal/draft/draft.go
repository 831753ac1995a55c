// Package draft is the on-device queue of expenses captured while offline.
// Entries keep capture order and survive restarts.
package draft

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MrJamesThe3rd/spendwise/internal/expense"
)

const DefaultKey = "pending_transactions"

// Open creates the database file if needed and brings its schema up to date.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating drafts directory: %w", err)
	}

	if err := migrateFile(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening drafts database: %w", err)
	}

	// One writer keeps appends ordered and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging drafts database: %w", err)
	}

	return db, nil
}

// Store is one keyed queue inside the drafts database.
type Store struct {
	db  *sql.DB
	key string
}

func New(db *sql.DB, key string) *Store {
	if key == "" {
		key = DefaultKey
	}

	return &Store{db: db, key: key}
}

func (s *Store) Append(ctx context.Context, e *expense.Expense) error {
	payload, err := expense.MarshalDraft(e)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO drafts (queue, draft_id, payload, created_at) VALUES (?, ?, ?, ?)`,
		s.key, e.ID, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("appending draft: %w", err)
	}

	return nil
}

// ReadAll returns the queued drafts in capture order, or an empty slice.
func (s *Store) ReadAll(ctx context.Context) ([]*expense.Expense, error) {
	drafts, _, err := s.Snapshot(ctx)
	return drafts, err
}

// Snapshot is ReadAll plus the sequence number of the last draft returned.
// The mark is zero for an empty queue and is meant for ClearThrough.
func (s *Store) Snapshot(ctx context.Context) ([]*expense.Expense, int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, payload FROM drafts WHERE queue = ? ORDER BY seq ASC`, s.key)
	if err != nil {
		return nil, 0, fmt.Errorf("reading drafts: %w", err)
	}
	defer rows.Close()

	drafts := []*expense.Expense{}

	var mark int64

	for rows.Next() {
		var payload string
		if err := rows.Scan(&mark, &payload); err != nil {
			return nil, 0, fmt.Errorf("scanning draft: %w", err)
		}

		e, err := expense.UnmarshalDraft([]byte(payload))
		if err != nil {
			return nil, 0, err
		}

		drafts = append(drafts, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating drafts: %w", err)
	}

	return drafts, mark, nil
}

// Clear removes every draft of the queue.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE queue = ?`, s.key); err != nil {
		return fmt.Errorf("clearing drafts: %w", err)
	}

	return nil
}

// ClearThrough removes the drafts up to and including mark. Drafts appended
// after the matching Snapshot stay queued.
func (s *Store) ClearThrough(ctx context.Context, mark int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM drafts WHERE queue = ? AND seq <= ?`, s.key, mark); err != nil {
		return fmt.Errorf("clearing drafts: %w", err)
	}

	return nil
}

func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drafts WHERE queue = ?`, s.key).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting drafts: %w", err)
	}

	return n, nil
}
