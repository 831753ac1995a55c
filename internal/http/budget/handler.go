package budget

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendwise/internal/budget"
	"github.com/MrJamesThe3rd/spendwise/internal/errs"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	"github.com/MrJamesThe3rd/spendwise/internal/http/authn"
	"github.com/MrJamesThe3rd/spendwise/internal/http/respond"
)

type Service interface {
	Create(ctx context.Context, userID string, p budget.CreateParams) (*budget.Budget, error)
	Get(ctx context.Context, id string) (*budget.Budget, error)
	List(ctx context.Context, userID string) ([]*budget.Budget, error)
	Update(ctx context.Context, id string, p budget.UpdateParams) (*budget.Budget, error)
	Delete(ctx context.Context, id string) error
	RecomputeFromExpenses(ctx context.Context, userID string) (map[expense.Category]decimal.Decimal, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/recompute", h.recompute)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createBudgetRequest struct {
	Name     string          `json:"name"`
	Limit    decimal.Decimal `json:"limit"`
	Category string          `json:"category"`
	ResetIn  string          `json:"reset_in"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	b, err := h.svc.Create(r.Context(), authn.UserID(r), budget.CreateParams{
		Name:     req.Name,
		Limit:    req.Limit,
		Category: parseCategory(req.Category),
		ResetIn:  budget.ResetPeriod(strings.ToLower(strings.TrimSpace(req.ResetIn))),
	})
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(b))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.svc.List(r.Context(), authn.UserID(r))
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, listResponse{
		Budgets:     toResponseList(budgets),
		TotalBudget: budget.TotalLimit(budgets),
	})
}

func (h *Handler) recompute(w http.ResponseWriter, r *http.Request) {
	userID := authn.UserID(r)

	spending, err := h.svc.RecomputeFromExpenses(r.Context(), userID)
	if err != nil {
		respond.Error(w, err)
		return
	}

	budgets, err := h.svc.List(r.Context(), userID)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, recomputeResponse{
		Spending: spending,
		Budgets:  toResponseList(budgets),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	b, ok := h.owned(w, r)
	if !ok {
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(b))
}

type updateBudgetRequest struct {
	Name     *string          `json:"name,omitempty"`
	Limit    *decimal.Decimal `json:"limit,omitempty"`
	Category *string          `json:"category,omitempty"`
	Spent    *decimal.Decimal `json:"spent,omitempty"`
	ResetIn  *string          `json:"reset_in,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	b, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req updateBudgetRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	p := budget.UpdateParams{
		Name:  req.Name,
		Limit: req.Limit,
		Spent: req.Spent,
	}

	if req.Category != nil {
		p.Category = new(parseCategory(*req.Category))
	}

	if req.ResetIn != nil {
		p.ResetIn = new(budget.ResetPeriod(strings.ToLower(strings.TrimSpace(*req.ResetIn))))
	}

	updated, err := h.svc.Update(r.Context(), b.ID, p)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	b, ok := h.owned(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), b.ID); err != nil {
		respond.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) owned(w http.ResponseWriter, r *http.Request) (*budget.Budget, bool) {
	b, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return nil, false
	}

	if b.UserID != authn.UserID(r) {
		respond.Error(w, errs.ErrNotFound)
		return nil, false
	}

	return b, true
}

func parseCategory(s string) expense.Category {
	if c, err := expense.ParseCategory(s); err == nil {
		return c
	}

	return expense.Category(s)
}
