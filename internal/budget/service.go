package budget

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/errs"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=budget
type Repository interface {
	// CreateBudget persists b and fills in its ID and CreatedAt.
	CreateBudget(ctx context.Context, b *Budget) error
	GetBudget(ctx context.Context, id string) (*Budget, error)
	UpdateBudget(ctx context.Context, b *Budget) error
	SetSpent(ctx context.Context, id string, spent decimal.Decimal) error
	DeleteBudget(ctx context.Context, id string) error
	ListBudgets(ctx context.Context, userID string) ([]*Budget, error)
	WatchBudgets(ctx context.Context, userID string, onChange func([]*Budget)) (func(), error)
}

type Service struct {
	repo     Repository
	spending SpendingSource
	pub      Publisher
}

// NewService wires the budget repository. pub may be nil.
func NewService(repo Repository, spending SpendingSource, pub Publisher) *Service {
	return &Service{repo: repo, spending: spending, pub: pub}
}

type CreateParams struct {
	Name     string
	Limit    decimal.Decimal
	Category expense.Category
	ResetIn  ResetPeriod
}

// UpdateParams changes only the non-nil fields.
type UpdateParams struct {
	Name     *string
	Limit    *decimal.Decimal
	Category *expense.Category
	Spent    *decimal.Decimal
	ResetIn  *ResetPeriod
}

func validateLimit(limit decimal.Decimal) error {
	if !limit.IsPositive() {
		return errs.Validation("limit", "must be greater than zero")
	}

	return nil
}

func validateCategory(c expense.Category) error {
	if c == "" {
		return errs.Validation("category", "is required")
	}

	if !c.Valid() {
		return errs.Validation("category", fmt.Sprintf("%q is not a known category", c))
	}

	return nil
}

func (s *Service) Create(ctx context.Context, userID string, p CreateParams) (*Budget, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errs.Validation("user_id", "is required")
	}

	if strings.TrimSpace(p.Name) == "" {
		return nil, errs.Validation("name", "is required")
	}

	if err := validateLimit(p.Limit); err != nil {
		return nil, err
	}

	if err := validateCategory(p.Category); err != nil {
		return nil, err
	}

	resetIn := p.ResetIn
	if resetIn == "" {
		resetIn = ResetMonthly
	}

	if !resetIn.Valid() {
		return nil, errs.Validation("reset_in", fmt.Sprintf("%q is not a known period", resetIn))
	}

	b := &Budget{
		UserID:   userID,
		Name:     strings.TrimSpace(p.Name),
		Category: p.Category,
		Limit:    p.Limit,
		Spent:    decimal.Zero,
		ResetIn:  resetIn,
	}

	if err := s.repo.CreateBudget(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Budget, error) {
	return s.repo.GetBudget(ctx, id)
}

// List returns the user's budgets and publishes them with their limit total.
func (s *Service) List(ctx context.Context, userID string) ([]*Budget, error) {
	if userID == "" {
		return nil, errs.Validation("user_id", "is required")
	}

	budgets, err := s.repo.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.publish(budgets)

	return budgets, nil
}

func (s *Service) Update(ctx context.Context, id string, p UpdateParams) (*Budget, error) {
	b, err := s.repo.GetBudget(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return nil, errs.Validation("name", "must not be empty")
		}

		b.Name = strings.TrimSpace(*p.Name)
	}

	if p.Limit != nil {
		if err := validateLimit(*p.Limit); err != nil {
			return nil, err
		}

		b.Limit = *p.Limit
	}

	if p.Category != nil {
		if err := validateCategory(*p.Category); err != nil {
			return nil, err
		}

		b.Category = *p.Category
	}

	if p.Spent != nil {
		if p.Spent.IsNegative() {
			return nil, errs.Validation("spent", "must not be negative")
		}

		b.Spent = *p.Spent
	}

	if p.ResetIn != nil {
		if !p.ResetIn.Valid() {
			return nil, errs.Validation("reset_in", fmt.Sprintf("%q is not a known period", *p.ResetIn))
		}

		b.ResetIn = *p.ResetIn
	}

	if err := s.repo.UpdateBudget(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// Delete leaves the category's expenses in place.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteBudget(ctx, id)
}

// RecomputeFromExpenses sets Spent on each budget whose category has
// expenses to that category's total. Budgets of categories without expenses
// keep their previous Spent. The full budget list is published afterwards
// and the per-category totals are returned.
func (s *Service) RecomputeFromExpenses(ctx context.Context, userID string) (map[expense.Category]decimal.Decimal, error) {
	if userID == "" {
		return nil, errs.Validation("user_id", "is required")
	}

	spending, err := s.spending.TotalByCategory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("totalling expenses: %w", err)
	}

	budgets, err := s.repo.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading budgets: %w", err)
	}

	for _, b := range budgets {
		spent, ok := spending[b.Category]
		if !ok {
			continue
		}

		if err := s.repo.SetSpent(ctx, b.ID, spent); err != nil {
			return nil, fmt.Errorf("updating budget %s: %w", b.ID, err)
		}

		b.Spent = spent
	}

	s.publish(budgets)

	return spending, nil
}

// Watch calls onChange with the user's budgets now and after every change.
func (s *Service) Watch(ctx context.Context, userID string, onChange func([]*Budget)) (func(), error) {
	return s.repo.WatchBudgets(ctx, userID, onChange)
}

func (s *Service) publish(budgets []*Budget) {
	if s.pub == nil {
		return
	}

	s.pub.PublishBudgets(budgets, TotalLimit(budgets))
}
