package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	"github.com/MrJamesThe3rd/spendwise/internal/state"
)

type ExpenseEditor interface {
	Update(ctx context.Context, id string, p expense.UpdateParams) (*expense.Expense, error)
	Delete(ctx context.Context, id string) error
}

type BudgetRecomputer interface {
	RecomputeFromExpenses(ctx context.Context, userID string) (map[expense.Category]decimal.Decimal, error)
}

type Refresher interface {
	Refresh(ctx context.Context, userID string) error
}

type listState int

const (
	listStateBrowse listState = iota
	listStateEdit
	listStateDelete
)

type listFields struct {
	title    string
	amount   string
	category expense.Category
	confirm  bool
}

type ListModel struct {
	CommonModel
	expenses  ExpenseEditor
	budgets   BudgetRecomputer
	refresher Refresher
	userID    string

	state  listState
	table  table.Model
	all    []*expense.Expense
	shown  []*expense.Expense
	form   *huh.Form
	fields *listFields

	categoryFilterIdx int
	dateFilterIdx     int

	status string
}

func NewListModel(expenses ExpenseEditor, budgets BudgetRecomputer, refresher Refresher, userID string, snap state.Snapshot) ListModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Category", Width: 14},
		{Title: "Amount", Width: 10},
		{Title: "Title", Width: 30},
		{Title: "Payment", Width: 14},
		{Title: "Synced", Width: 7},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := ListModel{
		expenses:  expenses,
		budgets:   budgets,
		refresher: refresher,
		userID:    userID,
		table:     t,
		all:       snap.Expenses,
	}
	m.refreshTable()

	return m
}

func (m ListModel) Title() string { return "Expenses" }

func (m ListModel) ShortHelp() string {
	if m.state != listStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | e: edit | x: delete | c: category filter | d: date filter"
}

func (m ListModel) Init() tea.Cmd {
	return nil
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.all = msg.Snapshot.Expenses
		m.refreshTable()

		return m, nil

	case listSaveMsg:
		m.status = ""
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		}

		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case listStateBrowse:
		return m.updateBrowse(msg)
	case listStateEdit, listStateDelete:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "e":
			return m.enterEditMode()
		case "x":
			return m.enterDeleteMode()
		case "c":
			m.categoryFilterIdx = (m.categoryFilterIdx + 1) % (len(expense.Categories()) + 1)
			m.refreshTable()

			return m, nil
		case "d":
			m.dateFilterIdx = (m.dateFilterIdx + 1) % 3
			m.refreshTable()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) selected() *expense.Expense {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.shown) {
		return nil
	}

	return m.shown[idx]
}

func (m ListModel) enterEditMode() (tea.Model, tea.Cmd) {
	e := m.selected()
	if e == nil {
		return m, nil
	}

	m.fields = &listFields{
		title:    e.Title,
		amount:   e.Amount.String(),
		category: e.Category,
	}
	f := m.fields

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("title").
				Title("Title").
				Value(&f.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be empty")
					}

					return nil
				}),

			huh.NewInput().
				Key("amount").
				Title("Amount").
				Value(&f.amount).
				Validate(validateAmount),

			huh.NewSelect[expense.Category]().
				Key("category").
				Title("Category").
				Options(huh.NewOptions(expense.Categories()...)...).
				Value(&f.category),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = listStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) enterDeleteMode() (tea.Model, tea.Cmd) {
	e := m.selected()
	if e == nil {
		return m, nil
	}

	m.fields = &listFields{}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q (%s)?", e.Title, FormatAmount(e.Amount))).
				Value(&m.fields.confirm),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = listStateDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = listStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == listStateDelete {
		return m, m.deleteCmd()
	}

	return m, m.saveCmd()
}

func (m ListModel) View() string {
	categoryLabel := "All"
	if m.categoryFilterIdx > 0 {
		categoryLabel = string(expense.Categories()[m.categoryFilterIdx-1])
	}

	dateLabels := []string{"All Time", "This Month", "Last Month"}

	header := fmt.Sprintf(
		"Filter: [c] Category: %s | [d] Date: %s | Total: %s",
		activeStyle(categoryLabel),
		activeStyle(dateLabels[m.dateFilterIdx]),
		FormatAmount(expense.Total(m.shown)),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state != listStateBrowse && m.form != nil {
		title := "Edit Expense"
		if m.state == listStateDelete {
			title = "Delete Expense"
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(title + "\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = faint.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

// filter applies the category and date filters to the snapshot's
// expenses, which arrive sorted newest first.
func (m *ListModel) filter() []*expense.Expense {
	var start, end time.Time

	now := time.Now().UTC()

	switch m.dateFilterIdx {
	case 1:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	case 2:
		start = time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	}

	out := make([]*expense.Expense, 0, len(m.all))

	for _, e := range m.all {
		if m.categoryFilterIdx > 0 && e.Category != expense.Categories()[m.categoryFilterIdx-1] {
			continue
		}

		if !start.IsZero() && (e.Date.Before(start) || !e.Date.Before(end)) {
			continue
		}

		out = append(out, e)
	}

	return out
}

func (m *ListModel) refreshTable() {
	m.shown = m.filter()

	rows := make([]table.Row, 0, len(m.shown))
	for _, e := range m.shown {
		synced := "yes"
		if !e.Synced {
			synced = "no"
		}

		rows = append(rows, table.Row{
			FormatDate(e.Date),
			string(e.Category),
			FormatAmount(e.Amount),
			e.Title,
			e.PaymentMethod,
			synced,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type listSaveMsg struct {
	err error
}

func (m ListModel) saveCmd() tea.Cmd {
	e := m.selected()
	if e == nil {
		return nil
	}

	f := *m.fields
	id := e.ID

	return func() tea.Msg {
		amount, err := decimal.NewFromString(f.amount)
		if err != nil {
			return listSaveMsg{err: err}
		}

		ctx, cancel := StoreCtx()
		defer cancel()

		title := strings.TrimSpace(f.title)

		if _, err := m.expenses.Update(ctx, id, expense.UpdateParams{
			Title:    &title,
			Amount:   &amount,
			Category: &f.category,
		}); err != nil {
			return listSaveMsg{err: err}
		}

		return listSaveMsg{err: m.afterChange(ctx)}
	}
}

func (m ListModel) deleteCmd() tea.Cmd {
	e := m.selected()
	if e == nil || !m.fields.confirm {
		return func() tea.Msg { return listSaveMsg{} }
	}

	id := e.ID

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		if err := m.expenses.Delete(ctx, id); err != nil {
			return listSaveMsg{err: err}
		}

		return listSaveMsg{err: m.afterChange(ctx)}
	}
}

func (m ListModel) afterChange(ctx context.Context) error {
	if _, err := m.budgets.RecomputeFromExpenses(ctx, m.userID); err != nil {
		return fmt.Errorf("recomputing budgets: %w", err)
	}

	return m.refresher.Refresh(ctx, m.userID)
}
