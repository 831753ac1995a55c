package recommend

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/spendwise/internal/http/authn"
	"github.com/MrJamesThe3rd/spendwise/internal/http/respond"
	"github.com/MrJamesThe3rd/spendwise/internal/recommend"
)

type Recommender interface {
	Recommend(ctx context.Context, userID, question string) (string, error)
}

type Handler struct {
	svc Recommender
}

func NewHandler(svc Recommender) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
}

type recommendRequest struct {
	Question string `json:"question"`
}

type recommendResponse struct {
	Advice string `json:"advice"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if r.ContentLength != 0 && !respond.Decode(w, r, &req) {
		return
	}

	advice, err := h.svc.Recommend(r.Context(), authn.UserID(r), req.Question)
	if err != nil {
		if errors.Is(err, recommend.ErrNotConfigured) {
			respond.Message(w, http.StatusNotImplemented, err.Error())
			return
		}

		respond.Error(w, err)

		return
	}

	respond.JSON(w, http.StatusOK, recommendResponse{Advice: advice})
}
