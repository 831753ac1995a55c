// Package respond writes JSON bodies and maps domain errors to status codes.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/spendwise/internal/errs"
)

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if payload == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Status: "error", Message: message})
}

// Error picks the status from the error's kind. Unknown errors are logged
// and reported as internal.
func Error(w http.ResponseWriter, err error) {
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		JSON(w, http.StatusBadRequest, ErrorResponse{Status: "error", Message: ve.Error(), Field: ve.Field})
		return
	}

	switch {
	case errors.Is(err, errs.ErrNotFound):
		Message(w, http.StatusNotFound, "not found")
	case errors.Is(err, errs.ErrSyncConflict):
		Message(w, http.StatusConflict, err.Error())
	case errs.IsMalformed(err), errs.IsRepository(err):
		slog.Error("store request failed", "error", err)
		Message(w, http.StatusBadGateway, "document store unavailable")
	default:
		slog.Error("request failed", "error", err)
		Message(w, http.StatusInternalServerError, "internal error")
	}
}

// Decode reads a JSON body into v and answers 400 on failure.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Message(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}

	return true
}
