package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/state"
)

const storeTimeout = 5 * time.Second

var (
	faint   = lipgloss.NewStyle().Faint(true)
	onStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offline = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	overRed = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// StoreCtx returns a context with a standard timeout for store operations.
func StoreCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

// StatusLine shows connectivity and how many drafts wait to sync.
func StatusLine(s state.Snapshot) string {
	conn := onStyle.Render("● online")
	if !s.Online {
		conn = offline.Render("● offline")
	}

	switch s.PendingDrafts {
	case 0:
		return conn
	case 1:
		return fmt.Sprintf("%s | 1 expense waiting to sync", conn)
	}

	return fmt.Sprintf("%s | %d expenses waiting to sync", conn, s.PendingDrafts)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func validateAmount(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("not a number")
	}

	if d.IsZero() {
		return fmt.Errorf("amount cannot be zero")
	}

	return nil
}

func validateLimit(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("not a number")
	}

	if !d.IsPositive() {
		return fmt.Errorf("limit must be greater than zero")
	}

	return nil
}

func validateDate(s string) error {
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}

	return nil
}
