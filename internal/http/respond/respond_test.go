package respond_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/spendwise/internal/errs"
	"github.com/MrJamesThe3rd/spendwise/internal/http/respond"
)

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantField  string
	}{
		{name: "Validation", err: fmt.Errorf("creating: %w", errs.Validation("amount", "is required")), wantStatus: http.StatusBadRequest, wantField: "amount"},
		{name: "NotFound", err: fmt.Errorf("getting: %w", errs.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "Conflict", err: errs.ErrSyncConflict, wantStatus: http.StatusConflict},
		{name: "Repository", err: errs.Repository("listing", errors.New("timeout")), wantStatus: http.StatusBadGateway},
		{name: "Malformed", err: &errs.MalformedDocumentError{Collection: "budgets", ID: "b1", Field: "limit"}, wantStatus: http.StatusBadGateway},
		{name: "Unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			respond.Error(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body respond.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.wantField, body.Field)
		})
	}
}

func TestJSON_NilPayload(t *testing.T) {
	w := httptest.NewRecorder()
	respond.JSON(w, http.StatusAccepted, nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, w.Body.String())
}
