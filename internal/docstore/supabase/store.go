// Package supabase keeps documents in a PostgREST table with the same shape
// as the postgres backend: id, collection, data (jsonb), created_at.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/MrJamesThe3rd/spendwise/internal/docstore"
)

type Config struct {
	URL          string
	Key          string
	Table        string
	PollInterval time.Duration
}

type Store struct {
	client *supabase.Client
	table  string
	poll   time.Duration
	log    *slog.Logger
}

type row struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	Data       docstore.Fields `json:"data"`
	CreatedAt  time.Time       `json:"created_at"`
}

type insertRow struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	Data       docstore.Fields `json:"data"`
}

func New(cfg Config, logger *slog.Logger) (*Store, error) {
	client, err := supabase.NewClient(cfg.URL, cfg.Key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	table := cfg.Table
	if table == "" {
		table = "documents"
	}

	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}

	return &Store{
		client: client,
		table:  table,
		poll:   poll,
		log:    logger.With("component", "docstore.supabase"),
	}, nil
}

func (s *Store) Insert(_ context.Context, collection string, fields docstore.Fields) (string, error) {
	r := insertRow{
		ID:         uuid.NewString(),
		Collection: collection,
		Data:       fields,
	}

	if _, _, err := s.client.From(s.table).Insert(r, false, "", "minimal", "").Execute(); err != nil {
		return "", fmt.Errorf("inserting document: %w", err)
	}

	return r.ID, nil
}

func (s *Store) Get(_ context.Context, collection, id string) (*docstore.Document, error) {
	data, _, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("collection", collection).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	docs, err := decodeRows(data)
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		return nil, docstore.ErrNotFound
	}

	return docs[0], nil
}

// Update merges fields into the stored document. PostgREST cannot merge
// jsonb in place, so this reads first and writes the merged payload.
func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	doc, err := s.Get(ctx, collection, id)
	if err != nil {
		return err
	}

	merged := doc.Fields.Clone()
	maps.Copy(merged, fields)

	data, _, err := s.client.From(s.table).
		Update(map[string]any{"data": merged}, "representation", "").
		Eq("collection", collection).
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}

	return requireRows(data)
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	data, _, err := s.client.From(s.table).
		Delete("representation", "").
		Eq("collection", collection).
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	return requireRows(data)
}

func (s *Store) Query(_ context.Context, q docstore.Query) ([]*docstore.Document, error) {
	query := s.client.From(s.table).
		Select("*", "", false).
		Eq("collection", q.Collection)

	for _, f := range q.Where {
		query = query.Eq("data->>"+f.Field, fmt.Sprint(f.Value))
	}

	if q.OrderBy != "" {
		query = query.Order("data->>"+q.OrderBy, &postgrest.OrderOpts{Ascending: !q.Desc})
	} else {
		query = query.Order("created_at", &postgrest.OrderOpts{Ascending: true})
	}

	if q.Limit > 0 {
		query = query.Limit(q.Limit, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}

	return decodeRows(data)
}

// Subscribe polls the query and calls onChange whenever the result set
// differs from the previous poll.
func (s *Store) Subscribe(ctx context.Context, q docstore.Query, onChange func([]*docstore.Document)) (docstore.Unsubscribe, error) {
	docs, err := s.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	last := fingerprint(docs)
	onChange(docs)

	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()

		for {
			select {
			case <-subCtx.Done():
				return
			case <-ticker.C:
				docs, err := s.Query(subCtx, q)
				if err != nil {
					s.log.Warn("failed to poll subscription", "collection", q.Collection, "error", err)
					continue
				}

				fp := fingerprint(docs)
				if bytes.Equal(fp, last) {
					continue
				}

				last = fp
				onChange(docs)
			}
		}
	}()

	var once sync.Once

	return func() { once.Do(cancel) }, nil
}

func decodeRows(data []byte) ([]*docstore.Document, error) {
	var rows []row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding documents: %w", err)
	}

	docs := make([]*docstore.Document, 0, len(rows))
	for _, r := range rows {
		fields := r.Data
		if fields == nil {
			fields = docstore.Fields{}
		}

		docs = append(docs, &docstore.Document{ID: r.ID, CreatedAt: r.CreatedAt, Fields: fields})
	}

	return docs, nil
}

func requireRows(data []byte) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if len(rows) == 0 {
		return docstore.ErrNotFound
	}

	return nil
}

func fingerprint(docs []*docstore.Document) []byte {
	b, _ := json.Marshal(docs)
	return b
}
