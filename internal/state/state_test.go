package state_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/spendwise/internal/budget"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	"github.com/MrJamesThe3rd/spendwise/internal/state"
)

func TestStore_PublishNotifies(t *testing.T) {
	s := state.New()

	var got []state.Snapshot

	unsub := s.Subscribe(func(snap state.Snapshot) { got = append(got, snap) })
	defer unsub()

	s.PublishBudgets([]*budget.Budget{{ID: "b1", Limit: decimal.NewFromInt(500)}}, decimal.NewFromInt(500))
	s.PublishExpenses([]*expense.Expense{{ID: "e1", Amount: decimal.NewFromInt(120)}}, decimal.NewFromInt(120))
	s.PublishSpending(map[expense.Category]decimal.Decimal{expense.CategoryFood: decimal.NewFromInt(120)})
	s.PublishStatus(false, 2)

	require.Len(t, got, 4)

	last := got[3]
	assert.Len(t, last.Budgets, 1)
	assert.Len(t, last.Expenses, 1)
	assert.True(t, last.BudgetLeft().Equal(decimal.NewFromInt(380)))
	assert.True(t, last.Spending[expense.CategoryFood].Equal(decimal.NewFromInt(120)))
	assert.False(t, last.Online)
	assert.Equal(t, 2, last.PendingDrafts)
	assert.False(t, last.UpdatedAt.IsZero())
}

func TestStore_UnsubscribeStopsDelivery(t *testing.T) {
	s := state.New()

	calls := 0
	unsub := s.Subscribe(func(state.Snapshot) { calls++ })

	s.PublishStatus(true, 0)
	unsub()
	unsub()
	s.PublishStatus(true, 1)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, s.Snapshot().PendingDrafts)
}

func TestStore_UnsubscribeDuringDelivery(t *testing.T) {
	s := state.New()

	var unsubB func()

	bCalls := 0

	s.Subscribe(func(state.Snapshot) { unsubB() })
	unsubB = s.Subscribe(func(state.Snapshot) { bCalls++ })

	// Whichever subscriber runs first, B never sees a delivery after it was
	// removed, and sees at most one overall.
	s.PublishStatus(true, 0)
	s.PublishStatus(true, 1)

	assert.LessOrEqual(t, bCalls, 1)
}

func TestStore_SnapshotsAreCopies(t *testing.T) {
	s := state.New()

	budgets := []*budget.Budget{{ID: "b1", Spent: decimal.NewFromInt(1)}}
	s.PublishBudgets(budgets, decimal.NewFromInt(10))

	budgets[0].Spent = decimal.NewFromInt(99)

	snap := s.Snapshot()
	assert.True(t, snap.Budgets[0].Spent.Equal(decimal.NewFromInt(1)))

	snap.Budgets[0].Name = "changed"
	assert.Empty(t, s.Snapshot().Budgets[0].Name)
	assert.NotNil(t, s.Snapshot().Spending)
}
