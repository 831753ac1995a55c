package budget

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/expense"
)

// ResetPeriod records when a budget is meant to start over. Nothing resets
// Spent automatically; the value is informational.
type ResetPeriod string

const (
	ResetWeekly  ResetPeriod = "weekly"
	ResetMonthly ResetPeriod = "monthly"
	ResetYearly  ResetPeriod = "yearly"
)

func (p ResetPeriod) Valid() bool {
	switch p {
	case ResetWeekly, ResetMonthly, ResetYearly:
		return true
	}

	return false
}

func ParseResetPeriod(s string) (ResetPeriod, error) {
	p := ResetPeriod(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return ResetMonthly, nil
	}

	if !p.Valid() {
		return "", fmt.Errorf("unknown reset period %q", s)
	}

	return p, nil
}

// Budget caps spending for one category. Spent is a projection of the
// user's expenses, written only by recompute or an explicit update.
type Budget struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Name      string           `json:"name"`
	Category  expense.Category `json:"category"`
	Limit     decimal.Decimal  `json:"limit"`
	Spent     decimal.Decimal  `json:"spent"`
	ResetIn   ResetPeriod      `json:"reset_in"`
	CreatedAt time.Time        `json:"created_at"`
}

// Remaining may go negative when the budget is overspent.
func (b *Budget) Remaining() decimal.Decimal {
	return b.Limit.Sub(b.Spent)
}

// UsedPercent is Spent as a percentage of Limit, rounded to two places.
func (b *Budget) UsedPercent() decimal.Decimal {
	if !b.Limit.IsPositive() {
		return decimal.Zero
	}

	return b.Spent.Div(b.Limit).Mul(decimal.NewFromInt(100)).Round(2)
}

func TotalLimit(budgets []*Budget) decimal.Decimal {
	total := decimal.Zero
	for _, b := range budgets {
		total = total.Add(b.Limit)
	}

	return total
}

// SpendingSource provides per-category spend for a user.
type SpendingSource interface {
	TotalByCategory(ctx context.Context, userID string) (map[expense.Category]decimal.Decimal, error)
}

// Publisher receives the user's budget list and limit total after list and
// recompute.
type Publisher interface {
	PublishBudgets(budgets []*Budget, totalBudget decimal.Decimal)
}
