// Package docstore defines the collection-oriented document store the
// repositories persist to. Backends live in the subpackages.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get, Update and Delete for unknown ids.
var ErrNotFound = errors.New("document not found")

// Document is a schema-less record as held by the store.
type Document struct {
	ID        string
	CreatedAt time.Time
	Fields    Fields
}

// Filter is an equality match on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Query selects documents of one collection.
type Query struct {
	Collection string
	Where      []Filter
	OrderBy    string
	Desc       bool
	Limit      int
}

// Where builds a query with equality filters given as field/value pairs.
func Where(collection string, pairs ...any) Query {
	q := Query{Collection: collection}
	for i := 0; i+1 < len(pairs); i += 2 {
		field, _ := pairs[i].(string)
		q.Where = append(q.Where, Filter{Field: field, Value: pairs[i+1]})
	}

	return q
}

// Unsubscribe stops a subscription. Calling it more than once is safe.
type Unsubscribe func()

// Store is implemented by every backend.
type Store interface {
	Insert(ctx context.Context, collection string, fields Fields) (string, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	Update(ctx context.Context, collection, id string, fields Fields) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, q Query) ([]*Document, error)

	// Subscribe calls onChange with the current result set right away and
	// again after every mutation of the queried collection.
	Subscribe(ctx context.Context, q Query, onChange func([]*Document)) (Unsubscribe, error)
}

// Matches reports whether the fields satisfy every filter of the query.
// Values are compared by their string form since JSON round-trips can change
// their concrete type.
func (q Query) Matches(fields Fields) bool {
	for _, f := range q.Where {
		v, ok := fields[f.Field]
		if !ok {
			return false
		}

		if fmt.Sprint(v) != fmt.Sprint(f.Value) {
			return false
		}
	}

	return true
}
