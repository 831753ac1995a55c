package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	"github.com/MrJamesThe3rd/spendwise/internal/ledger"
)

type Recorder interface {
	Record(ctx context.Context, userID string, p expense.CreateParams) (*ledger.Outcome, error)
}

var paymentMethods = []string{"Cash", "Card", "Bank transfer", "Other"}

type addState int

const (
	addStateForm addState = iota
	addStateSaving
	addStateResult
)

// expenseFields lives behind a pointer so the form keeps writing to the
// same values as the model is copied.
type expenseFields struct {
	title         string
	amount        string
	category      expense.Category
	date          string
	paymentMethod string
	description   string
}

type AddModel struct {
	CommonModel
	ledger Recorder
	userID string

	state  addState
	form   *huh.Form
	fields *expenseFields
	result string
	err    error
}

func NewAddModel(l Recorder, userID string) AddModel {
	m := AddModel{ledger: l, userID: userID}
	m.reset()

	return m
}

func (m AddModel) Title() string { return "Add Expense" }

func (m AddModel) ShortHelp() string {
	if m.state == addStateResult {
		return "n: add another | Esc: back"
	}

	return "Esc: back"
}

func (m AddModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m *AddModel) reset() {
	m.fields = &expenseFields{
		category:      expense.CategoryFood,
		date:          FormatDate(time.Now()),
		paymentMethod: paymentMethods[0],
	}
	m.state = addStateForm
	m.result = ""
	m.err = nil

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
				Placeholder("12.50").
				Value(&f.amount).
				Validate(validateAmount),

			huh.NewSelect[expense.Category]().
				Key("category").
				Title("Category").
				Options(huh.NewOptions(expense.Categories()...)...).
				Value(&f.category),

			huh.NewInput().
				Key("date").
				Title("Date").
				Value(&f.date).
				Validate(validateDate),

			huh.NewSelect[string]().
				Key("payment_method").
				Title("Payment method").
				Options(huh.NewOptions(paymentMethods...)...).
				Value(&f.paymentMethod),

			huh.NewText().
				Key("description").
				Title("Description").
				Value(&f.description),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m AddModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(addResultMsg); ok {
		m.state = addStateResult
		m.err = res.err

		switch {
		case res.err != nil:
			m.result = ""
		case res.queued:
			m.result = "Saved locally, will sync when back online."
		default:
			m.result = "Expense saved."
		}

		return m, nil
	}

	switch m.state {
	case addStateForm:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}

		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}

		if m.form.State != huh.StateCompleted {
			return m, cmd
		}

		m.state = addStateSaving

		return m, m.recordCmd()

	case addStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc", "enter":
				return m, Back
			case "n":
				m.reset()
				return m, m.form.Init()
			}
		}
	}

	return m, nil
}

func (m AddModel) View() string {
	switch m.state {
	case addStateSaving:
		return lipgloss.NewStyle().Padding(2).Render("Saving...")
	case addStateResult:
		if m.err != nil {
			return lipgloss.NewStyle().Padding(2).Render(overRed.Render(fmt.Sprintf("Error: %v", m.err)))
		}

		return lipgloss.NewStyle().Padding(2).Render(activeStyle(m.result))
	}

	return lipgloss.NewStyle().Padding(1).Render(m.form.View())
}

type addResultMsg struct {
	queued bool
	err    error
}

func (m AddModel) recordCmd() tea.Cmd {
	f := *m.fields

	return func() tea.Msg {
		amount, err := decimal.NewFromString(f.amount)
		if err != nil {
			return addResultMsg{err: err}
		}

		date, err := time.Parse(time.DateOnly, f.date)
		if err != nil {
			return addResultMsg{err: err}
		}

		ctx, cancel := StoreCtx()
		defer cancel()

		out, err := m.ledger.Record(ctx, m.userID, expense.CreateParams{
			Title:         strings.TrimSpace(f.title),
			Description:   strings.TrimSpace(f.description),
			Amount:        amount,
			Category:      f.category,
			Date:          date,
			PaymentMethod: f.paymentMethod,
		})
		if err != nil {
			return addResultMsg{err: err}
		}

		return addResultMsg{queued: out.Queued}
	}
}
