// Package ledger is the entry point for recording expenses. It chooses
// between an immediate remote write and the offline draft queue, and keeps
// the presentation state current.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/budget"
	"github.com/MrJamesThe3rd/spendwise/internal/connectivity"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
)

type Expenses interface {
	Create(ctx context.Context, userID string, p expense.CreateParams) (*expense.Expense, error)
	ListByUser(ctx context.Context, userID string) ([]*expense.Expense, error)
	Watch(ctx context.Context, userID string, onChange func([]*expense.Expense)) (func(), error)
}

type Budgets interface {
	List(ctx context.Context, userID string) ([]*budget.Budget, error)
	RecomputeFromExpenses(ctx context.Context, userID string) (map[expense.Category]decimal.Decimal, error)
	Watch(ctx context.Context, userID string, onChange func([]*budget.Budget)) (func(), error)
}

type Drafts interface {
	Append(ctx context.Context, e *expense.Expense) error
	Len(ctx context.Context) (int, error)
}

type Publisher interface {
	PublishExpenses(exps []*expense.Expense, total decimal.Decimal)
	PublishBudgets(budgets []*budget.Budget, totalBudget decimal.Decimal)
	PublishSpending(spending map[expense.Category]decimal.Decimal)
	PublishStatus(online bool, pending int)
}

type discard struct{}

func (discard) PublishExpenses([]*expense.Expense, decimal.Decimal) {}
func (discard) PublishBudgets([]*budget.Budget, decimal.Decimal) {}
func (discard) PublishSpending(map[expense.Category]decimal.Decimal) {}
func (discard) PublishStatus(bool, int) {}

type Ledger struct {
	expenses Expenses
	budgets  Budgets
	drafts   Drafts
	monitor  connectivity.Monitor
	pub      Publisher
	log      *slog.Logger
	now      func() time.Time
}

// New wires the ledger. A nil pub discards published state.
func New(expenses Expenses, budgets Budgets, drafts Drafts, monitor connectivity.Monitor, pub Publisher, logger *slog.Logger) *Ledger {
	if pub == nil {
		pub = discard{}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Ledger{
		expenses: expenses,
		budgets:  budgets,
		drafts:   drafts,
		monitor:  monitor,
		pub:      pub,
		log:      logger.With("component", "ledger"),
		now:      time.Now,
	}
}

// Outcome tells the caller whether the expense reached the store or was
// queued for later.
type Outcome struct {
	Expense *expense.Expense
	Queued  bool
}

// Record validates p, then writes it remotely when online or queues it as
// a draft when offline. A failed online write is returned and never queued.
func (l *Ledger) Record(ctx context.Context, userID string, p expense.CreateParams) (*Outcome, error) {
	if err := expense.Validate(userID, p); err != nil {
		return nil, err
	}

	if !l.monitor.IsOnline(ctx) {
		d := expense.NewDraft(userID, p, l.now().UTC())
		if err := l.drafts.Append(ctx, d); err != nil {
			return nil, fmt.Errorf("queueing draft: %w", err)
		}

		l.log.Info("saved expense locally, will sync", "user_id", userID, "draft_id", d.ID)
		l.publishStatus(ctx, false)

		return &Outcome{Expense: d, Queued: true}, nil
	}

	e, err := l.expenses.Create(ctx, userID, p)
	if err != nil {
		return nil, err
	}

	if _, err := l.budgets.RecomputeFromExpenses(ctx, userID); err != nil {
		l.log.Warn("failed to recompute budgets after expense", "user_id", userID, "expense_id", e.ID, "error", err)
	}

	if err := l.Refresh(ctx, userID); err != nil {
		l.log.Warn("failed to refresh state", "user_id", userID, "error", err)
	}

	return &Outcome{Expense: e}, nil
}

// Refresh reloads the user's expenses and budgets and publishes them with
// their totals and the sync status.
func (l *Ledger) Refresh(ctx context.Context, userID string) error {
	exps, err := l.expenses.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("listing expenses: %w", err)
	}

	l.publishExpenses(exps)

	// List publishes the budgets itself.
	if _, err := l.budgets.List(ctx, userID); err != nil {
		return fmt.Errorf("listing budgets: %w", err)
	}

	l.publishStatus(ctx, l.monitor.IsOnline(ctx))

	return nil
}

// Watch republishes the user's expenses and budgets on every remote change
// until the returned func is called.
func (l *Ledger) Watch(ctx context.Context, userID string) (func(), error) {
	stopExpenses, err := l.expenses.Watch(ctx, userID, l.publishExpenses)
	if err != nil {
		return nil, fmt.Errorf("watching expenses: %w", err)
	}

	stopBudgets, err := l.budgets.Watch(ctx, userID, func(budgets []*budget.Budget) {
		l.pub.PublishBudgets(budgets, budget.TotalLimit(budgets))
	})
	if err != nil {
		stopExpenses()
		return nil, fmt.Errorf("watching budgets: %w", err)
	}

	return func() {
		stopExpenses()
		stopBudgets()
	}, nil
}

type BudgetSummary struct {
	Budget      *budget.Budget
	Remaining   decimal.Decimal
	UsedPercent decimal.Decimal
}

type Summary struct {
	TotalExpenses decimal.Decimal
	TotalBudget   decimal.Decimal
	BudgetLeft    decimal.Decimal
	Spending      map[expense.Category]decimal.Decimal
	Budgets       []BudgetSummary
}

func (l *Ledger) Summary(ctx context.Context, userID string) (*Summary, error) {
	exps, err := l.expenses.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	budgets, err := l.budgets.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}

	s := &Summary{
		TotalExpenses: expense.Total(exps),
		TotalBudget:   budget.TotalLimit(budgets),
		Spending:      expense.ByCategory(exps),
		Budgets:       make([]BudgetSummary, 0, len(budgets)),
	}
	s.BudgetLeft = s.TotalBudget.Sub(s.TotalExpenses)

	for _, b := range budgets {
		s.Budgets = append(s.Budgets, BudgetSummary{
			Budget:      b,
			Remaining:   b.Remaining(),
			UsedPercent: b.UsedPercent(),
		})
	}

	return s, nil
}

// SortByDate orders newest first, breaking ties by creation time.
func SortByDate(exps []*expense.Expense) {
	slices.SortStableFunc(exps, func(a, b *expense.Expense) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}

		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func (l *Ledger) publishExpenses(exps []*expense.Expense) {
	SortByDate(exps)

	l.pub.PublishExpenses(exps, expense.Total(exps))
	l.pub.PublishSpending(expense.ByCategory(exps))
}

func (l *Ledger) publishStatus(ctx context.Context, online bool) {
	pending, err := l.drafts.Len(ctx)
	if err != nil {
		l.log.Warn("failed to count drafts", "error", err)
		return
	}

	l.pub.PublishStatus(online, pending)
}
