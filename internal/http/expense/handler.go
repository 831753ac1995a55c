package expense

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/errs"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	"github.com/MrJamesThe3rd/spendwise/internal/http/authn"
	"github.com/MrJamesThe3rd/spendwise/internal/http/respond"
	"github.com/MrJamesThe3rd/spendwise/internal/ledger"
)

type Recorder interface {
	Record(ctx context.Context, userID string, p expense.CreateParams) (*ledger.Outcome, error)
	Summary(ctx context.Context, userID string) (*ledger.Summary, error)
}

type Service interface {
	Get(ctx context.Context, id string) (*expense.Expense, error)
	ListByUser(ctx context.Context, userID string) ([]*expense.Expense, error)
	Update(ctx context.Context, id string, p expense.UpdateParams) (*expense.Expense, error)
	Delete(ctx context.Context, id string) error
}

type BudgetRecomputer interface {
	RecomputeFromExpenses(ctx context.Context, userID string) (map[expense.Category]decimal.Decimal, error)
}

type Handler struct {
	ledger  Recorder
	svc     Service
	budgets BudgetRecomputer
}

func NewHandler(l Recorder, svc Service, budgets BudgetRecomputer) *Handler {
	return &Handler{ledger: l, svc: svc, budgets: budgets}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/summary", h.summary)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createExpenseRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	Date          time.Time       `json:"date"`
	PaymentMethod string          `json:"payment_method"`
	ReceiptURL    string          `json:"receipt_url"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	out, err := h.ledger.Record(r.Context(), authn.UserID(r), expense.CreateParams{
		Title:         req.Title,
		Description:   req.Description,
		Amount:        req.Amount,
		Category:      parseCategory(req.Category),
		Date:          req.Date,
		PaymentMethod: req.PaymentMethod,
		ReceiptURL:    req.ReceiptURL,
	})
	if err != nil {
		respond.Error(w, err)
		return
	}

	status := http.StatusCreated
	if out.Queued {
		status = http.StatusAccepted
	}

	respond.JSON(w, status, createResponse{Expense: toResponse(out.Expense), Queued: out.Queued})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	exps, err := h.svc.ListByUser(r.Context(), authn.UserID(r))
	if err != nil {
		respond.Error(w, err)
		return
	}

	if s := r.URL.Query().Get("category"); s != "" {
		c, err := expense.ParseCategory(s)
		if err != nil {
			respond.Error(w, errs.Validation("category", err.Error()))
			return
		}

		filtered := exps[:0]

		for _, e := range exps {
			if e.Category == c {
				filtered = append(filtered, e)
			}
		}

		exps = filtered
	}

	ledger.SortByDate(exps)

	respond.JSON(w, http.StatusOK, toResponseList(exps))
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.ledger.Summary(r.Context(), authn.UserID(r))
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toSummaryResponse(s))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.owned(w, r)
	if !ok {
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(e))
}

type updateExpenseRequest struct {
	Title         *string          `json:"title,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Category      *string          `json:"category,omitempty"`
	Date          *time.Time       `json:"date,omitempty"`
	PaymentMethod *string          `json:"payment_method,omitempty"`
	ReceiptURL    *string          `json:"receipt_url,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	e, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req updateExpenseRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	p := expense.UpdateParams{
		Title:         req.Title,
		Description:   req.Description,
		Amount:        req.Amount,
		Date:          req.Date,
		PaymentMethod: req.PaymentMethod,
		ReceiptURL:    req.ReceiptURL,
	}

	if req.Category != nil {
		p.Category = new(parseCategory(*req.Category))
	}

	updated, err := h.svc.Update(r.Context(), e.ID, p)
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.recompute(r.Context(), e.UserID)

	respond.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	e, ok := h.owned(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), e.ID); err != nil {
		respond.Error(w, err)
		return
	}

	h.recompute(r.Context(), e.UserID)

	w.WriteHeader(http.StatusNoContent)
}

// owned loads the expense named in the path. Another user's expense is
// reported as not found.
func (h *Handler) owned(w http.ResponseWriter, r *http.Request) (*expense.Expense, bool) {
	e, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return nil, false
	}

	if e.UserID != authn.UserID(r) {
		respond.Error(w, errs.ErrNotFound)
		return nil, false
	}

	return e, true
}

func (h *Handler) recompute(ctx context.Context, userID string) {
	if _, err := h.budgets.RecomputeFromExpenses(ctx, userID); err != nil {
		slog.Warn("failed to recompute budgets", "user_id", userID, "error", err)
	}
}

// parseCategory accepts any casing. Unknown names pass through so that
// validation reports them.
func parseCategory(s string) expense.Category {
	if c, err := expense.ParseCategory(s); err == nil {
		return c
	}

	return expense.Category(s)
}
