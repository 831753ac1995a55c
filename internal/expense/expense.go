package expense

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is the fixed spending classification shared with budgets.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryShopping      Category = "Shopping"
	CategoryBills         Category = "Bills"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryEducation     Category = "Education"
	CategoryOther         Category = "Other"
)

var categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryShopping,
	CategoryBills,
	CategoryEntertainment,
	CategoryHealth,
	CategoryEducation,
	CategoryOther,
}

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)

	return out
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}

	return false
}

// ParseCategory matches case-insensitively.
func ParseCategory(s string) (Category, error) {
	for _, c := range categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}

	return "", fmt.Errorf("unknown category %q", s)
}

// Expense is a single spending record. Drafts captured offline carry a
// locally generated ID and Synced=false until reconciled.
type Expense struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Category      Category        `json:"category"`
	Date          time.Time       `json:"date"`
	CreatedAt     time.Time       `json:"created_at"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	ReceiptURL    string          `json:"receipt_url,omitempty"`
	Synced        bool            `json:"synced"`
}

// Magnitude is the spend counted by every aggregate. The sign of Amount
// is kept on the record but ignored here.
func (e *Expense) Magnitude() decimal.Decimal {
	return e.Amount.Abs()
}

// CreateParams returns the fields needed to submit the expense again.
func (e *Expense) CreateParams() CreateParams {
	return CreateParams{
		Title:         e.Title,
		Description:   e.Description,
		Amount:        e.Amount,
		Category:      e.Category,
		Date:          e.Date,
		PaymentMethod: e.PaymentMethod,
		ReceiptURL:    e.ReceiptURL,
	}
}

// NewDraft builds an unsynced expense with a temporary id.
func NewDraft(userID string, p CreateParams, now time.Time) *Expense {
	return &Expense{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         p.Title,
		Description:   p.Description,
		Amount:        p.Amount,
		Category:      p.Category,
		Date:          p.Date,
		CreatedAt:     now,
		PaymentMethod: p.PaymentMethod,
		ReceiptURL:    p.ReceiptURL,
		Synced:        false,
	}
}

// MarshalDraft and UnmarshalDraft give drafts a stable JSON encoding for
// local storage.
func MarshalDraft(e *Expense) ([]byte, error) {
	return json.Marshal(e)
}

func UnmarshalDraft(data []byte) (*Expense, error) {
	var e Expense
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding draft: %w", err)
	}

	return &e, nil
}
