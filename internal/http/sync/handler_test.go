package sync_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/spendwise/internal/connectivity"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	synchttp "github.com/MrJamesThe3rd/spendwise/internal/http/sync"
	"github.com/MrJamesThe3rd/spendwise/internal/reconcile"
)

type fakeDrainer struct {
	res   *reconcile.Result
	err   error
	state reconcile.State
	calls int
}

func (f *fakeDrainer) Drain(context.Context) (*reconcile.Result, error) {
	f.calls++
	return f.res, f.err
}

func (f *fakeDrainer) State() reconcile.State { return f.state }

type fakeQueue int

func (q fakeQueue) Len(context.Context) (int, error) { return int(q), nil }

func serve(h *synchttp.Handler, method string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/sync", h.Routes)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, "/sync", nil))

	return w
}

func TestHandler_Status(t *testing.T) {
	d := &fakeDrainer{state: reconcile.Draining}
	w := serve(synchttp.NewHandler(d, fakeQueue(3), connectivity.NewSwitch(true)), http.MethodGet)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"draining","online":true,"pending":3}`, w.Body.String())
}

func TestHandler_Drain(t *testing.T) {
	tests := []struct {
		name     string
		online   bool
		drainer  *fakeDrainer
		wantCode int
		wantCall bool
	}{
		{
			name:     "offline",
			online:   false,
			drainer:  &fakeDrainer{},
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name:     "already draining",
			online:   true,
			drainer:  &fakeDrainer{err: reconcile.ErrAlreadyDraining},
			wantCode: http.StatusConflict,
			wantCall: true,
		},
		{
			name:     "queue unreadable",
			online:   true,
			drainer:  &fakeDrainer{err: errors.New("disk gone")},
			wantCode: http.StatusInternalServerError,
			wantCall: true,
		},
		{
			name:     "drained",
			online:   true,
			drainer:  &fakeDrainer{res: &reconcile.Result{Cleared: true}},
			wantCode: http.StatusOK,
			wantCall: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := synchttp.NewHandler(tt.drainer, fakeQueue(0), connectivity.NewSwitch(tt.online))

			w := serve(h, http.MethodPost)

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCall, tt.drainer.calls == 1)
		})
	}
}

func TestHandler_DrainListsFailures(t *testing.T) {
	d := &fakeDrainer{res: &reconcile.Result{
		Attempted: 2,
		Synced:    []*expense.Expense{{ID: "e1"}},
		Failed:    []reconcile.Failure{{Draft: &expense.Expense{ID: "d2"}, Err: errors.New("write rejected")}},
	}}

	w := serve(synchttp.NewHandler(d, fakeQueue(2), connectivity.NewSwitch(true)), http.MethodPost)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Attempted int  `json:"attempted"`
		Synced    int  `json:"synced"`
		Cleared   bool `json:"cleared"`
		Failed    []struct {
			DraftID string `json:"draft_id"`
			Error   string `json:"error"`
		} `json:"failed"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))

	assert.Equal(t, 2, body.Attempted)
	assert.Equal(t, 1, body.Synced)
	assert.False(t, body.Cleared)
	require.Len(t, body.Failed, 1)
	assert.Equal(t, "d2", body.Failed[0].DraftID)
	assert.Equal(t, "write rejected", body.Failed[0].Error)
}
