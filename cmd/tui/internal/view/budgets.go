package view

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/budget"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	"github.com/MrJamesThe3rd/spendwise/internal/state"
)

type BudgetService interface {
	Create(ctx context.Context, userID string, p budget.CreateParams) (*budget.Budget, error)
	Update(ctx context.Context, id string, p budget.UpdateParams) (*budget.Budget, error)
	Delete(ctx context.Context, id string) error
	RecomputeFromExpenses(ctx context.Context, userID string) (map[expense.Category]decimal.Decimal, error)
}

type budgetsState int

const (
	budgetsStateBrowse budgetsState = iota
	budgetsStateCreate
	budgetsStateEdit
	budgetsStateDelete
)

type budgetFields struct {
	name     string
	limit    string
	category expense.Category
	resetIn  budget.ResetPeriod
	confirm  bool
}

type BudgetsModel struct {
	CommonModel
	svc       BudgetService
	refresher Refresher
	userID    string

	state   budgetsState
	table   table.Model
	budgets []*budget.Budget
	total   decimal.Decimal
	form    *huh.Form
	fields  *budgetFields
	status  string
}

func NewBudgetsModel(svc BudgetService, refresher Refresher, userID string, snap state.Snapshot) BudgetsModel {
	columns := []table.Column{
		{Title: "Name", Width: 20},
		{Title: "Category", Width: 14},
		{Title: "Limit", Width: 10},
		{Title: "Spent", Width: 10},
		{Title: "Remaining", Width: 10},
		{Title: "Used", Width: 8},
		{Title: "Resets", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
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

	m := BudgetsModel{
		svc:       svc,
		refresher: refresher,
		userID:    userID,
		table:     t,
	}
	m.setBudgets(snap)

	return m
}

func (m BudgetsModel) Title() string { return "Budgets" }

func (m BudgetsModel) ShortHelp() string {
	if m.state != budgetsStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | n: new | e: edit | x: delete | r: recompute"
}

func (m BudgetsModel) Init() tea.Cmd {
	return nil
}

func (m BudgetsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.setBudgets(msg.Snapshot)
		return m, nil

	case budgetSaveMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		m.state = budgetsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	if m.state == budgetsStateBrowse {
		return m.updateBrowse(msg)
	}

	return m.updateForm(msg)
}

func (m BudgetsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "n":
			m.fields = &budgetFields{category: expense.CategoryFood, resetIn: budget.ResetMonthly}
			return m.openForm(budgetsStateCreate, m.editForm())
		case "e":
			b := m.selected()
			if b == nil {
				return m, nil
			}

			m.fields = &budgetFields{name: b.Name, limit: b.Limit.String(), category: b.Category, resetIn: b.ResetIn}

			return m.openForm(budgetsStateEdit, m.editForm())
		case "x":
			b := m.selected()
			if b == nil {
				return m, nil
			}

			m.fields = &budgetFields{}

			return m.openForm(budgetsStateDelete, huh.NewForm(huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Delete budget %q? Expenses are kept.", b.Name)).
					Value(&m.fields.confirm),
			)).WithWidth(45).WithShowHelp(false))
		case "r":
			return m, m.recomputeCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m BudgetsModel) openForm(s budgetsState, form *huh.Form) (tea.Model, tea.Cmd) {
	m.state = s
	m.form = form
	m.table.Blur()

	return m, m.form.Init()
}

func (m BudgetsModel) editForm() *huh.Form {
	f := m.fields

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Name").
				Value(&f.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}

					return nil
				}),

			huh.NewInput().
				Key("limit").
				Title("Limit").
				Value(&f.limit).
				Validate(validateLimit),

			huh.NewSelect[expense.Category]().
				Key("category").
				Title("Category").
				Options(huh.NewOptions(expense.Categories()...)...).
				Value(&f.category),

			huh.NewSelect[budget.ResetPeriod]().
				Key("reset_in").
				Title("Resets").
				Options(huh.NewOptions(budget.ResetWeekly, budget.ResetMonthly, budget.ResetYearly)...).
				Value(&f.resetIn),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m BudgetsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = budgetsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m BudgetsModel) selected() *budget.Budget {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.budgets) {
		return nil
	}

	return m.budgets[idx]
}

func (m *BudgetsModel) setBudgets(snap state.Snapshot) {
	m.budgets = snap.Budgets
	m.total = snap.TotalBudget

	rows := make([]table.Row, 0, len(m.budgets))
	for _, b := range m.budgets {
		rows = append(rows, table.Row{
			b.Name,
			string(b.Category),
			FormatAmount(b.Limit),
			FormatAmount(b.Spent),
			FormatAmount(b.Remaining()),
			b.UsedPercent().StringFixed(0) + "%",
			string(b.ResetIn),
		})
	}

	m.table.SetRows(rows)
}

func (m BudgetsModel) View() string {
	header := fmt.Sprintf("Total budget: %s", activeStyle(FormatAmount(m.total)))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state != budgetsStateBrowse && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = faint.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

// Messages

type budgetSaveMsg struct {
	status string
	err    error
}

func (m BudgetsModel) saveCmd() tea.Cmd {
	f := *m.fields
	s := m.state

	var id string
	if b := m.selected(); b != nil {
		id = b.ID
	}

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		var (
			status string
			err    error
		)

		switch s {
		case budgetsStateCreate:
			status, err = m.create(ctx, f)
		case budgetsStateEdit:
			status, err = m.update(ctx, id, f)
		case budgetsStateDelete:
			if !f.confirm {
				return budgetSaveMsg{}
			}

			status, err = "Budget deleted.", m.svc.Delete(ctx, id)
		}

		if err != nil {
			return budgetSaveMsg{err: err}
		}

		return budgetSaveMsg{status: status, err: m.refresher.Refresh(ctx, m.userID)}
	}
}

func (m BudgetsModel) create(ctx context.Context, f budgetFields) (string, error) {
	limit, err := decimal.NewFromString(f.limit)
	if err != nil {
		return "", err
	}

	if _, err := m.svc.Create(ctx, m.userID, budget.CreateParams{
		Name:     f.name,
		Limit:    limit,
		Category: f.category,
		ResetIn:  f.resetIn,
	}); err != nil {
		return "", err
	}

	// A new budget starts at zero; pick up what is already spent.
	if _, err := m.svc.RecomputeFromExpenses(ctx, m.userID); err != nil {
		return "", err
	}

	return "Budget created.", nil
}

func (m BudgetsModel) update(ctx context.Context, id string, f budgetFields) (string, error) {
	limit, err := decimal.NewFromString(f.limit)
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(f.name)

	if _, err := m.svc.Update(ctx, id, budget.UpdateParams{
		Name:     &name,
		Limit:    &limit,
		Category: &f.category,
		ResetIn:  &f.resetIn,
	}); err != nil {
		return "", err
	}

	if _, err := m.svc.RecomputeFromExpenses(ctx, m.userID); err != nil {
		return "", err
	}

	return "Budget updated.", nil
}

func (m BudgetsModel) recomputeCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		if _, err := m.svc.RecomputeFromExpenses(ctx, m.userID); err != nil {
			return budgetSaveMsg{err: err}
		}

		return budgetSaveMsg{status: "Budgets recomputed.", err: m.refresher.Refresh(ctx, m.userID)}
	}
}
