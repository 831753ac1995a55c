package store_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/spendwise/internal/docstore"
	"github.com/MrJamesThe3rd/spendwise/internal/docstore/memory"
	"github.com/MrJamesThe3rd/spendwise/internal/errs"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	"github.com/MrJamesThe3rd/spendwise/internal/expense/store"
)

func newService(t *testing.T) (*expense.Service, *memory.Store) {
	t.Helper()

	docs := memory.New()

	return expense.NewService(store.New(docs, nil)), docs
}

func TestStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	created, err := svc.Create(ctx, "u1", expense.CreateParams{
		Title:         "Groceries",
		Amount:        decimal.RequireFromString("42.10"),
		Category:      expense.CategoryFood,
		Date:          date,
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "Groceries", got.Title)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("42.10")))
	assert.Equal(t, expense.CategoryFood, got.Category)
	assert.True(t, got.Date.Equal(date))
	assert.Equal(t, "card", got.PaymentMethod)
	assert.True(t, got.Synced)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.Update(ctx, "missing", expense.UpdateParams{Title: new("x")})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "missing"), errs.ErrNotFound)
}

func TestStore_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	e, err := svc.Create(ctx, "u1", expense.CreateParams{
		Amount:   decimal.NewFromInt(10),
		Category: expense.CategoryBills,
		Date:     time.Now(),
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, e.ID, expense.UpdateParams{Amount: new(decimal.NewFromInt(15))})
	require.NoError(t, err)

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(15)))

	require.NoError(t, svc.Delete(ctx, e.ID))

	_, err = svc.Get(ctx, e.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStore_CategoryTotalsSumToUserTotal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	amounts := []string{"12.30", "7.70", "-3.00", "100", "0.01", "55.55", "18", "9.99", "-41.2", "3"}
	cats := expense.Categories()
	want := decimal.Zero

	for i, a := range amounts {
		amount := decimal.RequireFromString(a)
		want = want.Add(amount.Abs())

		_, err := svc.Create(ctx, "u1", expense.CreateParams{
			Amount:   amount,
			Category: cats[i%len(cats)],
			Date:     time.Now(),
		})
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, "someone-else", expense.CreateParams{
		Amount:   decimal.NewFromInt(999),
		Category: expense.CategoryFood,
		Date:     time.Now(),
	})
	require.NoError(t, err)

	total, err := svc.TotalByUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, want.Equal(total), "want %s got %s", want, total)

	byCat, err := svc.TotalByCategory(ctx, "u1")
	require.NoError(t, err)

	sum := decimal.Zero
	for _, v := range byCat {
		sum = sum.Add(v)
	}

	assert.True(t, total.Equal(sum))
}

func TestStore_MalformedDocument(t *testing.T) {
	ctx := context.Background()
	svc, docs := newService(t)

	id, err := docs.Insert(ctx, store.Collection, docstore.Fields{
		"user_id":  "u1",
		"amount":   "not-a-number",
		"category": "Food",
		"date":     "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	_, err = svc.Get(ctx, id)
	require.Error(t, err)
	assert.True(t, errs.IsMalformed(err))

	var me *errs.MalformedDocumentError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "amount", me.Field)

	_, err = svc.ListByUser(ctx, "u1")
	assert.True(t, errs.IsMalformed(err))
}

func TestStore_Watch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	var got [][]*expense.Expense

	unsub, err := svc.Watch(ctx, "u1", func(exps []*expense.Expense) {
		got = append(got, exps)
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "u1", expense.CreateParams{
		Amount:   decimal.NewFromInt(5),
		Category: expense.CategoryOther,
		Date:     time.Now(),
	})
	require.NoError(t, err)

	unsub()

	_, err = svc.Create(ctx, "u1", expense.CreateParams{
		Amount:   decimal.NewFromInt(6),
		Category: expense.CategoryOther,
		Date:     time.Now(),
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Empty(t, got[0])
	assert.Len(t, got[1], 1)
}

func TestStore_WatchSkipsMalformedWithLogger(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()

	var buf bytes.Buffer

	svc := expense.NewService(store.New(docs, slog.New(slog.NewTextHandler(&buf, nil))))

	deliveries := 0

	unsub, err := svc.Watch(ctx, "u1", func([]*expense.Expense) { deliveries++ })
	require.NoError(t, err)
	defer unsub()

	_, err = docs.Insert(ctx, store.Collection, docstore.Fields{
		"user_id":  "u1",
		"amount":   "not-a-number",
		"category": "Food",
		"date":     "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, deliveries)
	assert.Contains(t, buf.String(), "skipping expenses update")
	assert.Contains(t, buf.String(), "component=expense-store")
}
