package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/budget"
	"github.com/MrJamesThe3rd/spendwise/internal/docstore"
	"github.com/MrJamesThe3rd/spendwise/internal/errs"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
)

const Collection = "budgets"

type Store struct {
	docs docstore.Store
	log  *slog.Logger
}

func New(docs docstore.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{docs: docs, log: logger.With("component", "budget-store")}
}

func encode(b *budget.Budget) docstore.Fields {
	return docstore.Fields{
		"user_id":    b.UserID,
		"name":       b.Name,
		"category":   string(b.Category),
		"limit":      docstore.EncodeDecimal(b.Limit),
		"spent":      docstore.EncodeDecimal(b.Spent),
		"reset_in":   string(b.ResetIn),
		"created_at": docstore.EncodeTime(b.CreatedAt),
	}
}

func decode(doc *docstore.Document) (*budget.Budget, error) {
	f := doc.Fields
	b := &budget.Budget{ID: doc.ID, CreatedAt: doc.CreatedAt}

	var err error

	if b.UserID, err = f.String("user_id"); err != nil {
		return nil, malformed(doc.ID, err)
	}

	if b.Name, err = f.String("name"); err != nil {
		return nil, malformed(doc.ID, err)
	}

	category, err := f.String("category")
	if err != nil {
		return nil, malformed(doc.ID, err)
	}

	b.Category = expense.Category(category)
	if !b.Category.Valid() {
		return nil, &errs.MalformedDocumentError{
			Collection: Collection, ID: doc.ID, Field: "category", Reason: "is not a known category",
		}
	}

	if b.Limit, err = f.Decimal("limit"); err != nil {
		return nil, malformed(doc.ID, err)
	}

	// Older documents may lack spent or reset_in.
	b.Spent = decimal.Zero
	if _, ok := f["spent"]; ok {
		if b.Spent, err = f.Decimal("spent"); err != nil {
			return nil, malformed(doc.ID, err)
		}
	}

	resetIn, err := f.OptString("reset_in")
	if err != nil {
		return nil, malformed(doc.ID, err)
	}

	if b.ResetIn, err = budget.ParseResetPeriod(resetIn); err != nil {
		return nil, &errs.MalformedDocumentError{
			Collection: Collection, ID: doc.ID, Field: "reset_in", Reason: "is not a known period",
		}
	}

	if _, ok := f["created_at"]; ok {
		if b.CreatedAt, err = f.Time("created_at"); err != nil {
			return nil, malformed(doc.ID, err)
		}
	}

	return b, nil
}

func malformed(id string, err error) error {
	var fe *docstore.FieldError
	if errors.As(err, &fe) {
		return &errs.MalformedDocumentError{Collection: Collection, ID: id, Field: fe.Field, Reason: fe.Reason}
	}

	return &errs.MalformedDocumentError{Collection: Collection, ID: id, Reason: err.Error()}
}

func translate(op string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return errs.ErrNotFound
	}

	return errs.Repository(op, err)
}

func decodeAll(docs []*docstore.Document) ([]*budget.Budget, error) {
	budgets := make([]*budget.Budget, 0, len(docs))
	for _, doc := range docs {
		b, err := decode(doc)
		if err != nil {
			return nil, err
		}

		budgets = append(budgets, b)
	}

	return budgets, nil
}

func (s *Store) CreateBudget(ctx context.Context, b *budget.Budget) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	id, err := s.docs.Insert(ctx, Collection, encode(b))
	if err != nil {
		return translate("creating budget", err)
	}

	b.ID = id

	return nil
}

func (s *Store) GetBudget(ctx context.Context, id string) (*budget.Budget, error) {
	doc, err := s.docs.Get(ctx, Collection, id)
	if err != nil {
		return nil, translate("getting budget", err)
	}

	return decode(doc)
}

func (s *Store) UpdateBudget(ctx context.Context, b *budget.Budget) error {
	fields := encode(b)
	delete(fields, "created_at")
	delete(fields, "user_id")

	if err := s.docs.Update(ctx, Collection, b.ID, fields); err != nil {
		return translate("updating budget", err)
	}

	return nil
}

// SetSpent writes only the spent field so concurrent edits of the other
// fields survive a recompute.
func (s *Store) SetSpent(ctx context.Context, id string, spent decimal.Decimal) error {
	if err := s.docs.Update(ctx, Collection, id, docstore.Fields{"spent": docstore.EncodeDecimal(spent)}); err != nil {
		return translate("updating budget spent", err)
	}

	return nil
}

func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, Collection, id); err != nil {
		return translate("deleting budget", err)
	}

	return nil
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]*budget.Budget, error) {
	docs, err := s.docs.Query(ctx, docstore.Where(Collection, "user_id", userID))
	if err != nil {
		return nil, translate("listing budgets", err)
	}

	return decodeAll(docs)
}

func (s *Store) WatchBudgets(ctx context.Context, userID string, onChange func([]*budget.Budget)) (func(), error) {
	unsub, err := s.docs.Subscribe(ctx, docstore.Where(Collection, "user_id", userID), func(docs []*docstore.Document) {
		budgets, err := decodeAll(docs)
		if err != nil {
			s.log.Warn("skipping budgets update", "user_id", userID, "error", err)
			return
		}

		onChange(budgets)
	})
	if err != nil {
		return nil, translate("watching budgets", err)
	}

	return unsub, nil
}
