// Package recommend asks a text generation model for spending advice based
// on the user's current totals and budgets.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	"github.com/MrJamesThe3rd/spendwise/internal/ledger"
)

var ErrNotConfigured = errors.New("recommendations are not configured")

const defaultQuestion = "How can I reduce my spending and stay within my budgets?"

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type SummaryProvider interface {
	Summary(ctx context.Context, userID string) (*ledger.Summary, error)
}

type Service struct {
	summaries SummaryProvider
	gen       Generator
}

// NewService accepts a nil generator; Recommend then returns ErrNotConfigured.
func NewService(summaries SummaryProvider, gen Generator) *Service {
	return &Service{summaries: summaries, gen: gen}
}

func (s *Service) Recommend(ctx context.Context, userID, question string) (string, error) {
	if s.gen == nil {
		return "", ErrNotConfigured
	}

	summary, err := s.summaries.Summary(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading summary: %w", err)
	}

	text, err := s.gen.Generate(ctx, BuildPrompt(summary, question))
	if err != nil {
		return "", fmt.Errorf("generating recommendation: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// BuildPrompt renders the summary as plain text followed by the question.
func BuildPrompt(s *ledger.Summary, question string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		question = defaultQuestion
	}

	var b strings.Builder

	b.WriteString("You are a personal finance assistant. Answer briefly with concrete suggestions.\n\n")
	fmt.Fprintf(&b, "Total spent: %s\n", s.TotalExpenses.StringFixed(2))
	fmt.Fprintf(&b, "Total budget: %s\n", s.TotalBudget.StringFixed(2))
	fmt.Fprintf(&b, "Budget left: %s\n", s.BudgetLeft.StringFixed(2))

	if len(s.Spending) > 0 {
		b.WriteString("\nSpending by category:\n")

		for _, c := range expense.Categories() {
			amount, ok := s.Spending[c]
			if !ok {
				continue
			}

			fmt.Fprintf(&b, "- %s: %s\n", c, amount.StringFixed(2))
		}
	}

	if len(s.Budgets) > 0 {
		b.WriteString("\nBudgets:\n")

		for _, bs := range s.Budgets {
			fmt.Fprintf(&b, "- %s (%s): limit %s, spent %s, remaining %s\n",
				bs.Budget.Name, bs.Budget.Category,
				bs.Budget.Limit.StringFixed(2), bs.Budget.Spent.StringFixed(2), bs.Remaining.StringFixed(2))
		}
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", question)

	return b.String()
}
