// Package postgres stores documents as JSONB rows and delivers change
// notifications through LISTEN/NOTIFY.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MrJamesThe3rd/spendwise/internal/docstore"
)

// Channel carries the collection name of every mutated document.
const Channel = "docstore_changes"

type Store struct {
	db         *sql.DB
	connString string
	log        *slog.Logger
}

// New wraps an open database. connString is used for the dedicated
// listener connection each subscription holds.
func New(db *sql.DB, connString string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{db: db, connString: connString, log: logger.With("component", "docstore.postgres")}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*docstore.Document, error) {
	var (
		doc  docstore.Document
		data []byte
	)

	if err := s.Scan(&doc.ID, &doc.CreatedAt, &data); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &doc.Fields); err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", doc.ID, err)
	}

	if doc.Fields == nil {
		doc.Fields = docstore.Fields{}
	}

	return &doc, nil
}

func (s *Store) Insert(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, data, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id::text
	`

	var id string
	if err := s.db.QueryRowContext(ctx, query, collection, data).Scan(&id); err != nil {
		return "", fmt.Errorf("inserting document: %w", err)
	}

	s.notify(ctx, collection)

	return id, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, docstore.ErrNotFound
	}

	query := `SELECT id::text, created_at, data FROM documents WHERE collection = $1 AND id = $2`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, docstore.ErrNotFound
		}

		return nil, fmt.Errorf("getting document: %w", err)
	}

	return doc, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if _, err := uuid.Parse(id); err != nil {
		return docstore.ErrNotFound
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	query := `
		UPDATE documents
		SET data = data || $1::jsonb, updated_at = NOW()
		WHERE collection = $2 AND id = $3
	`

	res, err := s.db.ExecContext(ctx, query, data, collection, id)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}

	if err := requireAffected(res); err != nil {
		return err
	}

	s.notify(ctx, collection)

	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return docstore.ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	if err := requireAffected(res); err != nil {
		return err
	}

	s.notify(ctx, collection)

	return nil
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]*docstore.Document, error) {
	query, args := buildQuery(q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []*docstore.Document

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// Subscribe opens a dedicated connection that listens on Channel until the
// returned function is called or ctx ends.
func (s *Store) Subscribe(ctx context.Context, q docstore.Query, onChange func([]*docstore.Document)) (docstore.Unsubscribe, error) {
	conn, err := pgx.Connect(ctx, s.connString)
	if err != nil {
		return nil, fmt.Errorf("connecting listener: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		conn.Close(context.Background())
		return nil, fmt.Errorf("listening on %s: %w", Channel, err)
	}

	initial, err := s.Query(ctx, q)
	if err != nil {
		conn.Close(context.Background())
		return nil, err
	}

	onChange(initial)

	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer conn.Close(context.Background())

		for {
			n, err := conn.WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					s.log.Error("listener stopped", "collection", q.Collection, "error", err)
				}

				return
			}

			if n.Payload != q.Collection {
				continue
			}

			docs, err := s.Query(subCtx, q)
			if err != nil {
				s.log.Warn("failed to refresh subscription", "collection", q.Collection, "error", err)
				continue
			}

			onChange(docs)
		}
	}()

	var once sync.Once

	return func() { once.Do(cancel) }, nil
}

func (s *Store) notify(ctx context.Context, collection string) {
	if _, err := s.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, Channel, collection); err != nil {
		s.log.Warn("failed to notify change", "collection", collection, "error", err)
	}
}

func buildQuery(q docstore.Query) (string, []any) {
	query := `SELECT id::text, created_at, data FROM documents WHERE collection = $1`
	args := []any{q.Collection}

	for _, f := range q.Where {
		query += fmt.Sprintf(" AND data ->> $%d = $%d", len(args)+1, len(args)+2)
		args = append(args, f.Field, fmt.Sprint(f.Value))
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}

	if q.OrderBy != "" {
		query += fmt.Sprintf(" ORDER BY data ->> $%d %s, created_at ASC", len(args)+1, dir)
		args = append(args, q.OrderBy)
	} else {
		query += " ORDER BY created_at ASC, id ASC"
	}

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, q.Limit)
	}

	return query, args
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return docstore.ErrNotFound
	}

	return nil
}
