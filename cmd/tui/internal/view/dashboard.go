package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	"github.com/MrJamesThe3rd/spendwise/internal/state"
)

type DashboardModel struct {
	CommonModel

	snap state.Snapshot
	bar  progress.Model
}

func NewDashboardModel(snap state.Snapshot) DashboardModel {
	return DashboardModel{
		snap: snap,
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
	}
}

func (m DashboardModel) Title() string     { return "Dashboard" }
func (m DashboardModel) ShortHelp() string { return "Esc: back" }

func (m DashboardModel) Init() tea.Cmd {
	return nil
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		m.snap = msg.Snapshot
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return m, Back
		}
	}

	return m, nil
}

func (m DashboardModel) View() string {
	s := m.snap

	left := FormatAmount(s.BudgetLeft())
	if s.BudgetLeft().IsNegative() {
		left = overRed.Render(left)
	}

	totals := fmt.Sprintf(
		"Total spent:  %s\nTotal budget: %s\nBudget left:  %s",
		FormatAmount(s.TotalExpenses), FormatAmount(s.TotalBudget), left,
	)

	var spending strings.Builder

	spending.WriteString("Spending by category\n\n")

	for _, c := range expense.Categories() {
		amount, ok := s.Spending[c]
		if !ok {
			continue
		}

		fmt.Fprintf(&spending, "%-14s %10s\n", c, FormatAmount(amount))
	}

	if len(s.Spending) == 0 {
		spending.WriteString(faint.Render("No expenses yet"))
	}

	var budgets strings.Builder

	budgets.WriteString("Budgets\n\n")

	for _, b := range s.Budgets {
		pct, _ := b.UsedPercent().Div(decimal.NewFromInt(100)).Float64()

		line := fmt.Sprintf("%s / %s", FormatAmount(b.Spent), FormatAmount(b.Limit))
		if b.Remaining().IsNegative() {
			line = overRed.Render(line + " over")
		}

		fmt.Fprintf(&budgets, "%-16s %s %s\n", b.Name, m.bar.ViewAs(min(pct, 1)), line)
	}

	if len(s.Budgets) == 0 {
		budgets.WriteString(faint.Render("No budgets yet"))
	}

	box := lipgloss.NewStyle().
		Padding(0, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63"))

	content := lipgloss.JoinVertical(lipgloss.Left,
		box.Render(totals),
		lipgloss.JoinHorizontal(lipgloss.Top, box.Render(spending.String()), box.Render(budgets.String())),
		StatusLine(s),
	)

	return lipgloss.NewStyle().Padding(1).Render(content)
}
