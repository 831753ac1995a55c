package expense

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	"github.com/MrJamesThe3rd/spendwise/internal/ledger"
)

type expenseResponse struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	Amount        decimal.Decimal  `json:"amount"`
	Category      expense.Category `json:"category"`
	Date          time.Time        `json:"date"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	ReceiptURL    string           `json:"receipt_url,omitempty"`
	Synced        bool             `json:"synced"`
	CreatedAt     time.Time        `json:"created_at"`
}

type createResponse struct {
	Expense expenseResponse `json:"expense"`
	Queued  bool            `json:"queued"`
}

type budgetSummaryResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Category    expense.Category `json:"category"`
	Limit       decimal.Decimal  `json:"limit"`
	Spent       decimal.Decimal  `json:"spent"`
	Remaining   decimal.Decimal  `json:"remaining"`
	UsedPercent decimal.Decimal  `json:"used_percent"`
}

type summaryResponse struct {
	TotalExpenses decimal.Decimal                      `json:"total_expenses"`
	TotalBudget   decimal.Decimal                      `json:"total_budget"`
	BudgetLeft    decimal.Decimal                      `json:"budget_left"`
	Spending      map[expense.Category]decimal.Decimal `json:"spending"`
	Budgets       []budgetSummaryResponse              `json:"budgets"`
}

func toResponse(e *expense.Expense) expenseResponse {
	return expenseResponse{
		ID:            e.ID,
		Title:         e.Title,
		Description:   e.Description,
		Amount:        e.Amount,
		Category:      e.Category,
		Date:          e.Date,
		PaymentMethod: e.PaymentMethod,
		ReceiptURL:    e.ReceiptURL,
		Synced:        e.Synced,
		CreatedAt:     e.CreatedAt,
	}
}

func toResponseList(exps []*expense.Expense) []expenseResponse {
	resp := make([]expenseResponse, len(exps))
	for i, e := range exps {
		resp[i] = toResponse(e)
	}

	return resp
}

func toSummaryResponse(s *ledger.Summary) summaryResponse {
	resp := summaryResponse{
		TotalExpenses: s.TotalExpenses,
		TotalBudget:   s.TotalBudget,
		BudgetLeft:    s.BudgetLeft,
		Spending:      s.Spending,
		Budgets:       make([]budgetSummaryResponse, len(s.Budgets)),
	}

	for i, b := range s.Budgets {
		resp.Budgets[i] = budgetSummaryResponse{
			ID:          b.Budget.ID,
			Name:        b.Budget.Name,
			Category:    b.Budget.Category,
			Limit:       b.Budget.Limit,
			Spent:       b.Budget.Spent,
			Remaining:   b.Remaining,
			UsedPercent: b.UsedPercent,
		}
	}

	return resp
}
