package ledger_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/spendwise/internal/budget"
	budgetstore "github.com/MrJamesThe3rd/spendwise/internal/budget/store"
	"github.com/MrJamesThe3rd/spendwise/internal/connectivity"
	"github.com/MrJamesThe3rd/spendwise/internal/docstore"
	"github.com/MrJamesThe3rd/spendwise/internal/docstore/memory"
	"github.com/MrJamesThe3rd/spendwise/internal/draft"
	"github.com/MrJamesThe3rd/spendwise/internal/errs"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	expensestore "github.com/MrJamesThe3rd/spendwise/internal/expense/store"
	"github.com/MrJamesThe3rd/spendwise/internal/ledger"
	"github.com/MrJamesThe3rd/spendwise/internal/state"
)

// failingInserts rejects every insert into the expenses collection.
type failingInserts struct {
	docstore.Store
}

func (f failingInserts) Insert(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	if collection == expensestore.Collection {
		return "", errors.New("unavailable")
	}

	return f.Store.Insert(ctx, collection, fields)
}

type fixture struct {
	ledger   *ledger.Ledger
	budgets  *budget.Service
	expenses *expense.Service
	drafts   *draft.Store
	monitor  *connectivity.Switch
	state    *state.Store
}

func newFixture(t *testing.T, docs docstore.Store, online bool) fixture {
	t.Helper()

	db, err := draft.Open(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New()
	expenses := expense.NewService(expensestore.New(docs, nil))
	budgets := budget.NewService(budgetstore.New(docs, nil), expenses, st)
	drafts := draft.New(db, draft.DefaultKey)
	monitor := connectivity.NewSwitch(online)

	return fixture{
		ledger:   ledger.New(expenses, budgets, drafts, monitor, st, nil),
		budgets:  budgets,
		expenses: expenses,
		drafts:   drafts,
		monitor:  monitor,
		state:    st,
	}
}

func food(amount string) expense.CreateParams {
	return expense.CreateParams{
		Title:    "groceries",
		Amount:   decimal.RequireFromString(amount),
		Category: expense.CategoryFood,
		Date:     time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRecord_Online(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, memory.New(), true)

	b, err := f.budgets.Create(ctx, "u1", budget.CreateParams{
		Name: "Groceries", Limit: decimal.NewFromInt(500), Category: expense.CategoryFood,
	})
	require.NoError(t, err)

	out, err := f.ledger.Record(ctx, "u1", food("120"))
	require.NoError(t, err)
	assert.False(t, out.Queued)
	assert.True(t, out.Expense.Synced)

	got, err := f.budgets.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.Spent.Equal(decimal.NewFromInt(120)))

	snap := f.state.Snapshot()
	assert.Len(t, snap.Expenses, 1)
	assert.True(t, snap.TotalExpenses.Equal(decimal.NewFromInt(120)))
	assert.True(t, snap.TotalBudget.Equal(decimal.NewFromInt(500)))
	assert.True(t, snap.BudgetLeft().Equal(decimal.NewFromInt(380)))
	assert.True(t, snap.Online)
}

func TestRecord_Offline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, memory.New(), false)

	out, err := f.ledger.Record(ctx, "u1", food("12"))
	require.NoError(t, err)
	assert.True(t, out.Queued)
	assert.False(t, out.Expense.Synced)

	n, err := f.drafts.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	total, err := f.expenses.TotalByUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, total.IsZero(), "drafts must not count until synced")

	snap := f.state.Snapshot()
	assert.False(t, snap.Online)
	assert.Equal(t, 1, snap.PendingDrafts)
}

func TestRecord_ValidationBeforeAnything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, memory.New(), false)

	_, err := f.ledger.Record(ctx, "u1", expense.CreateParams{Category: expense.CategoryFood})
	assert.True(t, errs.IsValidation(err))

	n, err := f.drafts.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecord_OnlineFailureIsNotQueued(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, failingInserts{memory.New()}, true)

	_, err := f.ledger.Record(ctx, "u1", food("5"))
	require.Error(t, err)
	assert.True(t, errs.IsRepository(err))

	n, err := f.drafts.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, memory.New(), true)

	_, err := f.budgets.Create(ctx, "u1", budget.CreateParams{
		Name: "Groceries", Limit: decimal.NewFromInt(500), Category: expense.CategoryFood,
	})
	require.NoError(t, err)

	for _, a := range []string{"120", "80", "50"} {
		_, err := f.ledger.Record(ctx, "u1", food(a))
		require.NoError(t, err)
	}

	s, err := f.ledger.Summary(ctx, "u1")
	require.NoError(t, err)

	assert.True(t, s.TotalExpenses.Equal(decimal.NewFromInt(250)))
	assert.True(t, s.BudgetLeft.Equal(decimal.NewFromInt(250)))
	require.Len(t, s.Budgets, 1)
	assert.True(t, s.Budgets[0].Remaining.Equal(decimal.NewFromInt(250)))
	assert.True(t, s.Budgets[0].UsedPercent.Equal(decimal.NewFromInt(50)))
	assert.True(t, s.Spending[expense.CategoryFood].Equal(decimal.NewFromInt(250)))
}

func TestWatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, memory.New(), true)

	stop, err := f.ledger.Watch(ctx, "u1")
	require.NoError(t, err)

	_, err = f.expenses.Create(ctx, "u1", food("7"))
	require.NoError(t, err)

	assert.Len(t, f.state.Snapshot().Expenses, 1)

	stop()

	_, err = f.expenses.Create(ctx, "u1", food("8"))
	require.NoError(t, err)

	assert.Len(t, f.state.Snapshot().Expenses, 1)
}

func TestSortByDate(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }

	exps := []*expense.Expense{
		{ID: "old", Date: d(1)},
		{ID: "new", Date: d(9)},
		{ID: "mid", Date: d(5)},
	}

	ledger.SortByDate(exps)

	assert.Equal(t, "new", exps[0].ID)
	assert.Equal(t, "mid", exps[1].ID)
	assert.Equal(t, "old", exps[2].ID)
}
