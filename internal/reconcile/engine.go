// Package reconcile submits drafts captured offline once the store is
// reachable again, then brings the budget projections up to date.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/connectivity"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
)

var ErrAlreadyDraining = errors.New("drain already in progress")

type State int32

const (
	Idle State = iota
	Draining
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Draining:
		return "draining"
	}

	return fmt.Sprintf("state(%d)", int32(s))
}

// DraftQueue hands out a snapshot of the queue together with a mark, and
// clears only what that snapshot covered.
type DraftQueue interface {
	Snapshot(ctx context.Context) ([]*expense.Expense, int64, error)
	ClearThrough(ctx context.Context, mark int64) error
}

type ExpenseCreator interface {
	Create(ctx context.Context, userID string, p expense.CreateParams) (*expense.Expense, error)
}

type BudgetRecomputer interface {
	RecomputeFromExpenses(ctx context.Context, userID string) (map[expense.Category]decimal.Decimal, error)
}

// Refresher republishes a user's aggregates after a drain.
type Refresher interface {
	Refresh(ctx context.Context, userID string) error
}

type Config struct {
	Drafts   DraftQueue
	Expenses ExpenseCreator
	Budgets  BudgetRecomputer
	Monitor  connectivity.Monitor

	// Refresher is optional.
	Refresher Refresher
	Logger    *slog.Logger
}

type Engine struct {
	drafts    DraftQueue
	expenses  ExpenseCreator
	budgets   BudgetRecomputer
	monitor   connectivity.Monitor
	refresher Refresher
	log       *slog.Logger

	state    atomic.Int32
	triggers chan struct{}
}

func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		drafts:    cfg.Drafts,
		expenses:  cfg.Expenses,
		budgets:   cfg.Budgets,
		monitor:   cfg.Monitor,
		refresher: cfg.Refresher,
		log:       logger.With("component", "reconcile"),
		triggers:  make(chan struct{}, 1),
	}
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

// Failure is a draft that could not be submitted in this pass.
type Failure struct {
	Draft *expense.Expense
	Err   error
}

type Result struct {
	Attempted int
	Synced    []*expense.Expense
	Failed    []Failure
	// Cleared is true only when every draft was submitted and the
	// snapshot was removed from the queue.
	Cleared bool
	// Recomputed lists the users whose budgets were recomputed.
	Recomputed []string
}

// Drain submits a snapshot of the queue in capture order. A failed draft
// is logged and skipped. The snapshot is cleared, and budgets recomputed
// once per user, only when every draft succeeded. Drafts appended during
// the drain are left for the next one. Drafts already submitted stay
// queued after a partial failure and are submitted again next time.
func (e *Engine) Drain(ctx context.Context) (*Result, error) {
	if !e.state.CompareAndSwap(int32(Idle), int32(Draining)) {
		return nil, ErrAlreadyDraining
	}
	defer e.state.Store(int32(Idle))

	drafts, mark, err := e.drafts.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading drafts: %w", err)
	}

	res := &Result{}
	if len(drafts) == 0 {
		return res, nil
	}

	var users []string

	seen := make(map[string]bool)

	for _, d := range drafts {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		res.Attempted++

		created, err := e.expenses.Create(ctx, d.UserID, d.CreateParams())
		if err != nil {
			e.log.Warn("failed to sync draft", "draft_id", d.ID, "user_id", d.UserID, "error", err)
			res.Failed = append(res.Failed, Failure{Draft: d, Err: err})

			continue
		}

		res.Synced = append(res.Synced, created)

		if !seen[d.UserID] {
			seen[d.UserID] = true
			users = append(users, d.UserID)
		}
	}

	if len(res.Failed) > 0 {
		e.log.Info("drain finished with failures, keeping drafts",
			"attempted", res.Attempted, "synced", len(res.Synced), "failed", len(res.Failed))

		return res, nil
	}

	if err := e.drafts.ClearThrough(ctx, mark); err != nil {
		return res, fmt.Errorf("clearing drafts: %w", err)
	}

	res.Cleared = true

	for _, userID := range users {
		if _, err := e.budgets.RecomputeFromExpenses(ctx, userID); err != nil {
			e.log.Warn("failed to recompute budgets after drain", "user_id", userID, "error", err)
			continue
		}

		res.Recomputed = append(res.Recomputed, userID)

		if e.refresher != nil {
			if err := e.refresher.Refresh(ctx, userID); err != nil {
				e.log.Warn("failed to refresh after drain", "user_id", userID, "error", err)
			}
		}
	}

	e.log.Info("drain finished", "synced", len(res.Synced), "users", len(users))

	return res, nil
}

// Trigger asks Run for a drain attempt. Requests made while a drain is in
// progress are dropped, and requests made while idle collapse into one.
func (e *Engine) Trigger() {
	if e.State() == Draining {
		return
	}

	select {
	case e.triggers <- struct{}{}:
	default:
	}
}

// Run drains on every trigger while online, including once at start. It
// subscribes to the monitor so coming online posts a trigger, and returns
// when ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	unsubscribe := e.monitor.Subscribe(func(online bool) {
		if online {
			e.Trigger()
		}
	})
	defer unsubscribe()

	e.Trigger()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.triggers:
			if !e.monitor.IsOnline(ctx) {
				continue
			}

			if _, err := e.Drain(ctx); err != nil && !errors.Is(err, ErrAlreadyDraining) {
				if ctx.Err() != nil {
					return nil
				}

				e.log.Error("drain failed", "error", err)
			}
		}
	}
}
