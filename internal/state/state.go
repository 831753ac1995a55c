// Package state holds the aggregates shown by the display surfaces and
// notifies subscribers whenever one of them is published.
package state

import (
	"maps"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/budget"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
)

type Snapshot struct {
	Expenses      []*expense.Expense
	Budgets       []*budget.Budget
	TotalExpenses decimal.Decimal
	TotalBudget   decimal.Decimal
	Spending      map[expense.Category]decimal.Decimal
	Online        bool
	PendingDrafts int
	UpdatedAt     time.Time
}

// BudgetLeft is the total budget minus total expenses.
func (s Snapshot) BudgetLeft() decimal.Decimal {
	return s.TotalBudget.Sub(s.TotalExpenses)
}

func (s Snapshot) clone() Snapshot {
	out := s

	out.Expenses = make([]*expense.Expense, len(s.Expenses))
	for i, e := range s.Expenses {
		c := *e
		out.Expenses[i] = &c
	}

	out.Budgets = make([]*budget.Budget, len(s.Budgets))
	for i, b := range s.Budgets {
		c := *b
		out.Budgets[i] = &c
	}

	out.Spending = maps.Clone(s.Spending)
	if out.Spending == nil {
		out.Spending = map[expense.Category]decimal.Decimal{}
	}

	return out
}

// Store is owned by the application root and handed to every consumer.
type Store struct {
	mu   sync.Mutex
	snap Snapshot
	subs map[int]func(Snapshot)
	next int
	now  func() time.Time
}

func New() *Store {
	return &Store{
		subs: make(map[int]func(Snapshot)),
		now:  time.Now,
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snap.clone()
}

// Subscribe registers fn for every later publish. Once the returned func is
// called fn receives nothing more.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) PublishExpenses(exps []*expense.Expense, total decimal.Decimal) {
	s.update(func(snap *Snapshot) {
		snap.Expenses = exps
		snap.TotalExpenses = total
	})
}

func (s *Store) PublishBudgets(budgets []*budget.Budget, totalBudget decimal.Decimal) {
	s.update(func(snap *Snapshot) {
		snap.Budgets = budgets
		snap.TotalBudget = totalBudget
	})
}

func (s *Store) PublishSpending(spending map[expense.Category]decimal.Decimal) {
	s.update(func(snap *Snapshot) {
		snap.Spending = spending
	})
}

func (s *Store) PublishStatus(online bool, pending int) {
	s.update(func(snap *Snapshot) {
		snap.Online = online
		snap.PendingDrafts = pending
	})
}

func (s *Store) update(apply func(*Snapshot)) {
	s.mu.Lock()
	apply(&s.snap)
	s.snap.UpdatedAt = s.now()
	s.snap = s.snap.clone()

	fns := make([]func(Snapshot), 0, len(s.subs))
	ids := make([]int, 0, len(s.subs))

	for id, fn := range s.subs {
		ids = append(ids, id)
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for i, fn := range fns {
		if !s.subscribed(ids[i]) {
			continue
		}

		fn(s.Snapshot())
	}
}

func (s *Store) subscribed(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.subs[id]

	return ok
}
