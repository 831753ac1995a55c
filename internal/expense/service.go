package expense

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/errs"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=expense
type Repository interface {
	// CreateExpense persists e and fills in its ID and CreatedAt.
	CreateExpense(ctx context.Context, e *Expense) error
	GetExpense(ctx context.Context, id string) (*Expense, error)
	UpdateExpense(ctx context.Context, e *Expense) error
	DeleteExpense(ctx context.Context, id string) error
	ListExpenses(ctx context.Context, userID string) ([]*Expense, error)
	WatchExpenses(ctx context.Context, userID string, onChange func([]*Expense)) (func(), error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Title         string
	Description   string
	Amount        decimal.Decimal
	Category      Category
	Date          time.Time
	PaymentMethod string
	ReceiptURL    string
}

// UpdateParams changes only the non-nil fields.
type UpdateParams struct {
	Title         *string
	Description   *string
	Amount        *decimal.Decimal
	Category      *Category
	Date          *time.Time
	PaymentMethod *string
	ReceiptURL    *string
}

// Validate checks the fields required before anything is written, locally
// or remotely.
func Validate(userID string, p CreateParams) error {
	if strings.TrimSpace(userID) == "" {
		return errs.Validation("user_id", "is required")
	}

	if p.Amount.IsZero() {
		return errs.Validation("amount", "is required")
	}

	if p.Category == "" {
		return errs.Validation("category", "is required")
	}

	if !p.Category.Valid() {
		return errs.Validation("category", fmt.Sprintf("%q is not a known category", p.Category))
	}

	if p.Date.IsZero() {
		return errs.Validation("date", "is required")
	}

	return nil
}

// Create validates and stores a synced expense. Budgets are not touched.
func (s *Service) Create(ctx context.Context, userID string, p CreateParams) (*Expense, error) {
	if err := Validate(userID, p); err != nil {
		return nil, err
	}

	e := &Expense{
		UserID:        userID,
		Title:         p.Title,
		Description:   p.Description,
		Amount:        p.Amount,
		Category:      p.Category,
		Date:          p.Date,
		PaymentMethod: p.PaymentMethod,
		ReceiptURL:    p.ReceiptURL,
		Synced:        true,
	}

	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

// ListByUser returns the user's expenses in no particular order.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Expense, error) {
	if userID == "" {
		return nil, errs.Validation("user_id", "is required")
	}

	return s.repo.ListExpenses(ctx, userID)
}

// TotalByUser sums the magnitude of every stored expense of the user.
func (s *Service) TotalByUser(ctx context.Context, userID string) (decimal.Decimal, error) {
	exps, err := s.ListByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	return Total(exps), nil
}

// TotalByCategory groups magnitudes by category. Categories without
// expenses are absent.
func (s *Service) TotalByCategory(ctx context.Context, userID string) (map[Category]decimal.Decimal, error) {
	exps, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return ByCategory(exps), nil
}

func (s *Service) Update(ctx context.Context, id string, p UpdateParams) (*Expense, error) {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		e.Title = *p.Title
	}

	if p.Description != nil {
		e.Description = *p.Description
	}

	if p.Amount != nil {
		if p.Amount.IsZero() {
			return nil, errs.Validation("amount", "must not be zero")
		}

		e.Amount = *p.Amount
	}

	if p.Category != nil {
		if !p.Category.Valid() {
			return nil, errs.Validation("category", fmt.Sprintf("%q is not a known category", *p.Category))
		}

		e.Category = *p.Category
	}

	if p.Date != nil {
		if p.Date.IsZero() {
			return nil, errs.Validation("date", "must not be empty")
		}

		e.Date = *p.Date
	}

	if p.PaymentMethod != nil {
		e.PaymentMethod = *p.PaymentMethod
	}

	if p.ReceiptURL != nil {
		e.ReceiptURL = *p.ReceiptURL
	}

	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteExpense(ctx, id)
}

// Watch calls onChange with the user's expenses now and after every change.
func (s *Service) Watch(ctx context.Context, userID string, onChange func([]*Expense)) (func(), error) {
	return s.repo.WatchExpenses(ctx, userID, onChange)
}

func Total(exps []*Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range exps {
		total = total.Add(e.Magnitude())
	}

	return total
}

func ByCategory(exps []*Expense) map[Category]decimal.Decimal {
	out := make(map[Category]decimal.Decimal)
	for _, e := range exps {
		out[e.Category] = out[e.Category].Add(e.Magnitude())
	}

	return out
}
