package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/budget"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
)

type budgetResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Category    expense.Category   `json:"category"`
	Limit       decimal.Decimal    `json:"limit"`
	Spent       decimal.Decimal    `json:"spent"`
	Remaining   decimal.Decimal    `json:"remaining"`
	UsedPercent decimal.Decimal    `json:"used_percent"`
	ResetIn     budget.ResetPeriod `json:"reset_in"`
	CreatedAt   time.Time          `json:"created_at"`
}

type listResponse struct {
	Budgets     []budgetResponse `json:"budgets"`
	TotalBudget decimal.Decimal  `json:"total_budget"`
}

type recomputeResponse struct {
	Spending map[expense.Category]decimal.Decimal `json:"spending"`
	Budgets  []budgetResponse                     `json:"budgets"`
}

func toResponse(b *budget.Budget) budgetResponse {
	return budgetResponse{
		ID:          b.ID,
		Name:        b.Name,
		Category:    b.Category,
		Limit:       b.Limit,
		Spent:       b.Spent,
		Remaining:   b.Remaining(),
		UsedPercent: b.UsedPercent(),
		ResetIn:     b.ResetIn,
		CreatedAt:   b.CreatedAt,
	}
}

func toResponseList(budgets []*budget.Budget) []budgetResponse {
	resp := make([]budgetResponse, len(budgets))
	for i, b := range budgets {
		resp[i] = toResponse(b)
	}

	return resp
}
