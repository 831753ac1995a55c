// Package memory is an in-process document store used for tests and the
// default development backend.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/spendwise/internal/docstore"
)

type subscription struct {
	q  docstore.Query
	fn func([]*docstore.Document)
}

type Store struct {
	mu    sync.Mutex
	docs  map[string]map[string]*docstore.Document
	order map[string][]string
	subs  map[int]*subscription
	next  int
	now   func() time.Time
}

func New() *Store {
	return &Store{
		docs:  make(map[string]map[string]*docstore.Document),
		order: make(map[string][]string),
		subs:  make(map[int]*subscription),
		now:   time.Now,
	}
}

func (s *Store) Insert(_ context.Context, collection string, fields docstore.Fields) (string, error) {
	s.mu.Lock()

	id := uuid.NewString()
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]*docstore.Document)
	}

	s.docs[collection][id] = &docstore.Document{
		ID:        id,
		CreatedAt: s.now().UTC(),
		Fields:    fields.Clone(),
	}
	s.order[collection] = append(s.order[collection], id)

	pending := s.pendingLocked(collection)
	s.mu.Unlock()

	deliver(pending)

	return id, nil
}

func (s *Store) Get(_ context.Context, collection, id string) (*docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[collection][id]
	if !ok {
		return nil, docstore.ErrNotFound
	}

	return copyDoc(doc), nil
}

func (s *Store) Update(_ context.Context, collection, id string, fields docstore.Fields) error {
	s.mu.Lock()

	doc, ok := s.docs[collection][id]
	if !ok {
		s.mu.Unlock()
		return docstore.ErrNotFound
	}

	for k, v := range fields {
		doc.Fields[k] = v
	}

	pending := s.pendingLocked(collection)
	s.mu.Unlock()

	deliver(pending)

	return nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()

	if _, ok := s.docs[collection][id]; !ok {
		s.mu.Unlock()
		return docstore.ErrNotFound
	}

	delete(s.docs[collection], id)
	s.order[collection] = slices.DeleteFunc(s.order[collection], func(v string) bool { return v == id })

	pending := s.pendingLocked(collection)
	s.mu.Unlock()

	deliver(pending)

	return nil
}

func (s *Store) Query(_ context.Context, q docstore.Query) ([]*docstore.Document, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("query: collection is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queryLocked(q), nil
}

func (s *Store) Subscribe(_ context.Context, q docstore.Query, onChange func([]*docstore.Document)) (docstore.Unsubscribe, error) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = &subscription{q: q, fn: onChange}
	initial := s.queryLocked(q)
	s.mu.Unlock()

	onChange(initial)

	var once sync.Once

	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}, nil
}

// Len returns the number of documents in a collection.
func (s *Store) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.docs[collection])
}

func (s *Store) queryLocked(q docstore.Query) []*docstore.Document {
	var out []*docstore.Document

	for _, id := range s.order[q.Collection] {
		doc := s.docs[q.Collection][id]
		if q.Matches(doc.Fields) {
			out = append(out, copyDoc(doc))
		}
	}

	// Ordering compares the string form of the field, which is correct for
	// the RFC3339 timestamps the repositories order by.
	if q.OrderBy != "" {
		slices.SortStableFunc(out, func(a, b *docstore.Document) int {
			c := cmp.Compare(fmt.Sprint(a.Fields[q.OrderBy]), fmt.Sprint(b.Fields[q.OrderBy]))
			if q.Desc {
				return -c
			}

			return c
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}

	return out
}

type delivery struct {
	fn   func([]*docstore.Document)
	docs []*docstore.Document
}

func (s *Store) pendingLocked(collection string) []delivery {
	var out []delivery

	for _, sub := range s.subs {
		if sub.q.Collection != collection {
			continue
		}

		out = append(out, delivery{fn: sub.fn, docs: s.queryLocked(sub.q)})
	}

	return out
}

func deliver(pending []delivery) {
	for _, d := range pending {
		d.fn(d.docs)
	}
}

func copyDoc(doc *docstore.Document) *docstore.Document {
	return &docstore.Document{
		ID:        doc.ID,
		CreatedAt: doc.CreatedAt,
		Fields:    doc.Fields.Clone(),
	}
}
