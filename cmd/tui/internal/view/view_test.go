package view

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	"github.com/MrJamesThe3rd/spendwise/internal/state"
)

func TestStatusLine(t *testing.T) {
	assert.Contains(t, StatusLine(state.Snapshot{Online: true}), "online")
	assert.NotContains(t, StatusLine(state.Snapshot{Online: true}), "waiting")
	assert.Contains(t, StatusLine(state.Snapshot{PendingDrafts: 1}), "1 expense waiting to sync")
	assert.Contains(t, StatusLine(state.Snapshot{PendingDrafts: 3}), "3 expenses waiting to sync")
	assert.Contains(t, StatusLine(state.Snapshot{}), "offline")
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateAmount("12.50"))
	assert.Error(t, validateAmount("0"))
	assert.Error(t, validateAmount("abc"))

	assert.NoError(t, validateLimit("500"))
	assert.Error(t, validateLimit("-1"))

	assert.NoError(t, validateDate("2024-07-01"))
	assert.Error(t, validateDate("01/07/2024"))
}

func TestListModel_CategoryFilter(t *testing.T) {
	now := time.Now().UTC()
	snap := state.Snapshot{Expenses: []*expense.Expense{
		{ID: "1", Title: "lunch", Amount: decimal.NewFromInt(12), Category: expense.CategoryFood, Date: now},
		{ID: "2", Title: "bus", Amount: decimal.NewFromInt(3), Category: expense.CategoryTransport, Date: now},
	}}

	m := NewListModel(nil, nil, nil, "u1", snap)
	require.Len(t, m.shown, 2)

	// First press selects the first category.
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m = next.(ListModel)

	require.Len(t, m.shown, 1)
	assert.Equal(t, "1", m.shown[0].ID)

	next, _ = m.Update(SnapshotMsg{Snapshot: state.Snapshot{}})
	m = next.(ListModel)
	assert.Empty(t, m.shown)
}

func TestListModel_DateFilter(t *testing.T) {
	now := time.Now().UTC()
	snap := state.Snapshot{Expenses: []*expense.Expense{
		{ID: "new", Amount: decimal.NewFromInt(1), Category: expense.CategoryFood, Date: now},
		{ID: "old", Amount: decimal.NewFromInt(1), Category: expense.CategoryFood, Date: now.AddDate(-1, 0, 0)},
	}}

	m := NewListModel(nil, nil, nil, "u1", snap)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	m = next.(ListModel)

	require.Len(t, m.shown, 1)
	assert.Equal(t, "new", m.shown[0].ID)
}
