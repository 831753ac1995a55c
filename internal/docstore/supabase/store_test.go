package supabase_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/spendwise/internal/docstore"
	"github.com/MrJamesThe3rd/spendwise/internal/docstore/supabase"
)

func newStore(t *testing.T, h http.HandlerFunc) *supabase.Store {
	t.Helper()

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	s, err := supabase.New(supabase.Config{URL: ts.URL, Key: "anon-key"}, nil)
	require.NoError(t, err)

	return s
}

func TestStore_Query(t *testing.T) {
	var gotQuery map[string][]string

	s := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/documents"))

		gotQuery = r.URL.Query()

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"d1","collection":"expenses","data":{"user_id":"u1","amount":"120"},"created_at":"2024-01-01T00:00:00Z"},
			{"id":"d2","collection":"expenses","data":{"user_id":"u1","amount":"80"},"created_at":"2024-01-02T00:00:00Z"}
		]`))
	})

	docs, err := s.Query(context.Background(), docstore.Where("expenses", "user_id", "u1"))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "d1", docs[0].ID)
	assert.Equal(t, "120", docs[0].Fields["amount"])
	assert.Equal(t, 2024, docs[1].CreatedAt.Year())

	assert.Equal(t, []string{"eq.expenses"}, gotQuery["collection"])
	assert.Equal(t, []string{"eq.u1"}, gotQuery["data->>user_id"])
}

func TestStore_GetNotFound(t *testing.T) {
	s := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})

	_, err := s.Get(context.Background(), "budgets", "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStore_DeleteNotFound(t *testing.T) {
	s := newStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	})

	err := s.Delete(context.Background(), "budgets", "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}
