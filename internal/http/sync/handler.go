// Package sync exposes the draft queue and lets clients force a drain.
package sync

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/spendwise/internal/connectivity"
	"github.com/MrJamesThe3rd/spendwise/internal/http/respond"
	"github.com/MrJamesThe3rd/spendwise/internal/reconcile"
)

type Drainer interface {
	Drain(ctx context.Context) (*reconcile.Result, error)
	State() reconcile.State
}

type Queue interface {
	Len(ctx context.Context) (int, error)
}

type Handler struct {
	engine  Drainer
	queue   Queue
	monitor connectivity.Monitor
}

func NewHandler(engine Drainer, queue Queue, monitor connectivity.Monitor) *Handler {
	return &Handler{engine: engine, queue: queue, monitor: monitor}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.status)
	r.Post("/", h.drain)
}

type statusResponse struct {
	State   string `json:"state"`
	Online  bool   `json:"online"`
	Pending int    `json:"pending"`
}

type failureResponse struct {
	DraftID string `json:"draft_id"`
	Error   string `json:"error"`
}

type drainResponse struct {
	Attempted  int               `json:"attempted"`
	Synced     int               `json:"synced"`
	Failed     []failureResponse `json:"failed"`
	Cleared    bool              `json:"cleared"`
	Recomputed []string          `json:"recomputed"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	pending, err := h.queue.Len(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, statusResponse{
		State:   h.engine.State().String(),
		Online:  h.monitor.IsOnline(r.Context()),
		Pending: pending,
	})
}

func (h *Handler) drain(w http.ResponseWriter, r *http.Request) {
	if !h.monitor.IsOnline(r.Context()) {
		respond.Message(w, http.StatusServiceUnavailable, "offline, drafts stay queued")
		return
	}

	res, err := h.engine.Drain(r.Context())
	if err != nil {
		if errors.Is(err, reconcile.ErrAlreadyDraining) {
			respond.Message(w, http.StatusConflict, err.Error())
			return
		}

		respond.Error(w, err)

		return
	}

	resp := drainResponse{
		Attempted:  res.Attempted,
		Synced:     len(res.Synced),
		Failed:     make([]failureResponse, len(res.Failed)),
		Cleared:    res.Cleared,
		Recomputed: res.Recomputed,
	}

	for i, f := range res.Failed {
		resp.Failed[i] = failureResponse{DraftID: f.Draft.ID, Error: f.Err.Error()}
	}

	respond.JSON(w, http.StatusOK, resp)
}
