package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrJamesThe3rd/spendwise/internal/docstore"
	"github.com/MrJamesThe3rd/spendwise/internal/errs"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
)

const Collection = "expenses"

type Store struct {
	docs docstore.Store
	log  *slog.Logger
}

func New(docs docstore.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{docs: docs, log: logger.With("component", "expense-store")}
}

func encode(e *expense.Expense) docstore.Fields {
	return docstore.Fields{
		"user_id":        e.UserID,
		"title":          e.Title,
		"description":    e.Description,
		"amount":         docstore.EncodeDecimal(e.Amount),
		"category":       string(e.Category),
		"date":           docstore.EncodeTime(e.Date),
		"created_at":     docstore.EncodeTime(e.CreatedAt),
		"payment_method": e.PaymentMethod,
		"receipt_url":    e.ReceiptURL,
	}
}

// decode turns a stored document into an Expense. Required fields:
// user_id, amount, category, date. Everything stored is synced.
func decode(doc *docstore.Document) (*expense.Expense, error) {
	f := doc.Fields
	e := &expense.Expense{ID: doc.ID, Synced: true}

	var err error

	if e.UserID, err = f.String("user_id"); err != nil {
		return nil, malformed(doc.ID, err)
	}

	if e.Amount, err = f.Decimal("amount"); err != nil {
		return nil, malformed(doc.ID, err)
	}

	category, err := f.String("category")
	if err != nil {
		return nil, malformed(doc.ID, err)
	}

	e.Category = expense.Category(category)
	if !e.Category.Valid() {
		return nil, &errs.MalformedDocumentError{
			Collection: Collection, ID: doc.ID, Field: "category", Reason: "is not a known category",
		}
	}

	if e.Date, err = f.Time("date"); err != nil {
		return nil, malformed(doc.ID, err)
	}

	if e.Title, err = f.OptString("title"); err != nil {
		return nil, malformed(doc.ID, err)
	}

	if e.Description, err = f.OptString("description"); err != nil {
		return nil, malformed(doc.ID, err)
	}

	if e.PaymentMethod, err = f.OptString("payment_method"); err != nil {
		return nil, malformed(doc.ID, err)
	}

	if e.ReceiptURL, err = f.OptString("receipt_url"); err != nil {
		return nil, malformed(doc.ID, err)
	}

	e.CreatedAt = doc.CreatedAt
	if _, ok := f["created_at"]; ok {
		if e.CreatedAt, err = f.Time("created_at"); err != nil {
			return nil, malformed(doc.ID, err)
		}
	}

	return e, nil
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

func decodeAll(docs []*docstore.Document) ([]*expense.Expense, error) {
	exps := make([]*expense.Expense, 0, len(docs))
	for _, doc := range docs {
		e, err := decode(doc)
		if err != nil {
			return nil, err
		}

		exps = append(exps, e)
	}

	return exps, nil
}

func (s *Store) CreateExpense(ctx context.Context, e *expense.Expense) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	id, err := s.docs.Insert(ctx, Collection, encode(e))
	if err != nil {
		return translate("creating expense", err)
	}

	e.ID = id
	e.Synced = true

	return nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (*expense.Expense, error) {
	doc, err := s.docs.Get(ctx, Collection, id)
	if err != nil {
		return nil, translate("getting expense", err)
	}

	return decode(doc)
}

func (s *Store) UpdateExpense(ctx context.Context, e *expense.Expense) error {
	fields := encode(e)
	delete(fields, "created_at")

	if err := s.docs.Update(ctx, Collection, e.ID, fields); err != nil {
		return translate("updating expense", err)
	}

	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, Collection, id); err != nil {
		return translate("deleting expense", err)
	}

	return nil
}

func (s *Store) ListExpenses(ctx context.Context, userID string) ([]*expense.Expense, error) {
	docs, err := s.docs.Query(ctx, docstore.Where(Collection, "user_id", userID))
	if err != nil {
		return nil, translate("listing expenses", err)
	}

	return decodeAll(docs)
}

// WatchExpenses skips deliveries that fail to decode; the previous result
// stays current for the subscriber.
func (s *Store) WatchExpenses(ctx context.Context, userID string, onChange func([]*expense.Expense)) (func(), error) {
	unsub, err := s.docs.Subscribe(ctx, docstore.Where(Collection, "user_id", userID), func(docs []*docstore.Document) {
		exps, err := decodeAll(docs)
		if err != nil {
			s.log.Warn("skipping expenses update", "user_id", userID, "error", err)
			return
		}

		onChange(exps)
	})
	if err != nil {
		return nil, translate("watching expenses", err)
	}

	return unsub, nil
}
