package view

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type Advisor interface {
	Recommend(ctx context.Context, userID, question string) (string, error)
}

type adviceState int

const (
	adviceStateQuestion adviceState = iota
	adviceStateThinking
	adviceStateResult
)

type AdviceModel struct {
	CommonModel
	advisor Advisor
	userID  string

	state    adviceState
	form     *huh.Form
	question *string
	spinner  spinner.Model
	advice   string
	err      error
}

func NewAdviceModel(advisor Advisor, userID string) AdviceModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := AdviceModel{advisor: advisor, userID: userID, spinner: s, question: new(string)}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("question").
				Title("What would you like to know?").
				Placeholder("Leave empty for general tips").
				Value(m.question),
		),
	).WithWidth(60).WithShowHelp(false)

	return m
}

func (m AdviceModel) Title() string { return "Advice" }

func (m AdviceModel) ShortHelp() string {
	if m.state == adviceStateThinking {
		return "Thinking..."
	}

	return "Esc: back"
}

func (m AdviceModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m AdviceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.state != adviceStateThinking {
		return m, Back
	}

	switch m.state {
	case adviceStateQuestion:
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}

		if m.form.State != huh.StateCompleted {
			return m, cmd
		}

		m.state = adviceStateThinking

		return m, tea.Batch(m.spinner.Tick, m.recommendCmd(*m.question))

	case adviceStateThinking:
		if res, ok := msg.(adviceResultMsg); ok {
			m.state = adviceStateResult
			m.advice = res.advice
			m.err = res.err

			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case adviceStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			return m, Back
		}
	}

	return m, nil
}

func (m AdviceModel) View() string {
	switch m.state {
	case adviceStateThinking:
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("%s Asking for advice...", m.spinner.View()))
	case adviceStateResult:
		if m.err != nil {
			return lipgloss.NewStyle().Padding(2).Render(overRed.Render(fmt.Sprintf("Error: %v", m.err)))
		}

		return lipgloss.NewStyle().Padding(2).Width(80).Render(m.advice)
	}

	return lipgloss.NewStyle().Padding(1).Render(m.form.View())
}

type adviceResultMsg struct {
	advice string
	err    error
}

func (m AdviceModel) recommendCmd(question string) tea.Cmd {
	return func() tea.Msg {
		// Generation is slower than a store round trip.
		ctx, cancel := context.WithTimeout(context.Background(), 4*storeTimeout)
		defer cancel()

		advice, err := m.advisor.Recommend(ctx, m.userID, question)

		return adviceResultMsg{advice: advice, err: err}
	}
}
