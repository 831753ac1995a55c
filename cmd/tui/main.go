package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/spendwise/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/spendwise/internal/app"
	"github.com/MrJamesThe3rd/spendwise/internal/auth"
	"github.com/MrJamesThe3rd/spendwise/internal/config"
	"github.com/MrJamesThe3rd/spendwise/internal/state"
)

type model struct {
	app  *app.App
	user *auth.User
	snap state.Snapshot

	currentView View

	dashboardView view.DashboardModel
	addView       view.AddModel
	listView      view.ListModel
	budgetsView   view.BudgetsModel
	adviceView    view.AdviceModel
}

type View int

const (
	ViewMenu      View = 0
	ViewDashboard View = 1
	ViewAdd       View = 2
	ViewList      View = 3
	ViewBudgets   View = 4
	ViewAdvice    View = 5
)

func newModel(a *app.App, user *auth.User) model {
	snap := a.State.Snapshot()

	return model{
		app:           a,
		user:          user,
		snap:          snap,
		currentView:   ViewMenu,
		dashboardView: view.NewDashboardModel(snap),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case view.SnapshotMsg:
		m.snap = msg.Snapshot
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			return m.updateMenu(msg)
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewDashboard:
		var newModel tea.Model
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewAdd:
		var newModel tea.Model
		newModel, cmd = m.addView.Update(msg)
		m.addView = newModel.(view.AddModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewBudgets:
		var newModel tea.Model
		newModel, cmd = m.budgetsView.Update(msg)
		m.budgetsView = newModel.(view.BudgetsModel)
	case ViewAdvice:
		var newModel tea.Model
		newModel, cmd = m.adviceView.Update(msg)
		m.adviceView = newModel.(view.AdviceModel)
	}

	return m, cmd
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := m.app

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "1":
		m.currentView = ViewDashboard
		m.dashboardView = view.NewDashboardModel(m.snap)

		return m, m.dashboardView.Init()
	case "2":
		m.currentView = ViewAdd
		m.addView = view.NewAddModel(a.Ledger, m.user.ID)

		return m, m.addView.Init()
	case "3":
		m.currentView = ViewList
		m.listView = view.NewListModel(a.Expenses, a.Budgets, a.Ledger, m.user.ID, m.snap)

		return m, m.listView.Init()
	case "4":
		m.currentView = ViewBudgets
		m.budgetsView = view.NewBudgetsModel(a.Budgets, a.Ledger, m.user.ID, m.snap)

		return m, m.budgetsView.Init()
	case "5":
		m.currentView = ViewAdvice
		m.adviceView = view.NewAdviceModel(a.Recommend, m.user.ID)

		return m, m.adviceView.Init()
	case "s":
		a.Engine.Trigger()
	}

	return m, nil
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("%s\n", m.app.Config.App.Name) +
				fmt.Sprintf("Signed in as %s\n\n", displayName(m.user)) +
				"1. Dashboard\n" +
				"2. Add Expense\n" +
				"3. Expenses\n" +
				"4. Budgets\n" +
				"5. Advice\n\n" +
				"s. Sync now\n" +
				"q. Quit\n\n" +
				view.StatusLine(m.snap),
		)
	case ViewDashboard:
		return m.dashboardView.View()
	case ViewAdd:
		return m.addView.View()
	case ViewList:
		return m.listView.View()
	case ViewBudgets:
		return m.budgetsView.View()
	case ViewAdvice:
		return m.adviceView.View()
	}

	return "Unknown View"
}

func displayName(u *auth.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}

	if u.Email != "" {
		return u.Email
	}

	return u.ID
}

// signIn uses AUTH_TOKEN when set and a local identity otherwise.
func signIn(ctx context.Context, a *app.App) (*auth.User, error) {
	session := auth.NewSession(a.Verifier)

	if token := a.Config.Auth.Token; token != "" {
		if _, err := session.SignIn(token); err != nil {
			return nil, fmt.Errorf("signing in: %w", err)
		}
	} else {
		slog.Warn("AUTH_TOKEN not set, using local identity")
		session.SignInUser(auth.User{ID: "local", DisplayName: "Local user"})
	}

	u := session.CurrentUser()

	if err := a.Profiles.Ensure(ctx, u); err != nil {
		slog.Warn("failed to save profile", "user_id", u.ID, "error", err)
	}

	return u, nil
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Drafts.Path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	logFile, err := tea.LogToFile(filepath.Join(filepath.Dir(cfg.Drafts.Path), "tui.log"), "")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := signIn(ctx, a)
	if err != nil {
		return err
	}

	p := tea.NewProgram(newModel(a, user), tea.WithAltScreen())

	// Send blocks until the program runs, so nothing may publish on this
	// goroutine before p.Run.
	unsubscribe := a.State.Subscribe(func(s state.Snapshot) {
		p.Send(view.SnapshotMsg{Snapshot: s})
	})
	defer unsubscribe()

	done := make(chan struct{})

	go func() {
		defer close(done)
		background(ctx, a, user.ID)
	}()

	_, err = p.Run()

	cancel()
	<-done

	return err
}

// background keeps the state live and drafts syncing until ctx ends.
func background(ctx context.Context, a *app.App, userID string) {
	stopWatch, err := a.Ledger.Watch(ctx, userID)
	if err != nil {
		slog.Warn("live updates unavailable", "error", err)
	} else {
		defer stopWatch()
	}

	if err := a.Ledger.Refresh(ctx, userID); err != nil {
		slog.Warn("initial refresh failed", "error", err)
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("background sync stopped", "error", err)
	}
}

func main() {
	if err := run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
