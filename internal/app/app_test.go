package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/spendwise/internal/app"
	"github.com/MrJamesThe3rd/spendwise/internal/config"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	"github.com/MrJamesThe3rd/spendwise/internal/recommend"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{Backend: config.BackendMemory}
	cfg.Drafts.Path = filepath.Join(t.TempDir(), "drafts.db")
	cfg.Drafts.Key = "pending_transactions"
	cfg.Auth.JWTSecret = "secret"

	return cfg
}

func TestNew_Memory(t *testing.T) {
	ctx := context.Background()

	a, err := app.New(ctx, memoryConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.Monitor.IsOnline(ctx))

	out, err := a.Ledger.Record(ctx, "u1", expense.CreateParams{
		Title:    "lunch",
		Amount:   decimal.NewFromInt(12),
		Category: expense.CategoryFood,
		Date:     time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.False(t, out.Queued)

	snap := a.State.Snapshot()
	assert.True(t, decimal.NewFromInt(12).Equal(snap.TotalExpenses))

	_, err = a.Recommend.Recommend(ctx, "u1", "")
	assert.ErrorIs(t, err, recommend.ErrNotConfigured)
}

func TestNew_MultiUserPublishesNothing(t *testing.T) {
	ctx := context.Background()

	a, err := app.New(ctx, memoryConfig(t), nil, app.MultiUser())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.State)

	for _, user := range []string{"u1", "u2"} {
		_, err := a.Ledger.Record(ctx, user, expense.CreateParams{
			Title:    "lunch",
			Amount:   decimal.NewFromInt(12),
			Category: expense.CategoryFood,
			Date:     time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)

		_, err = a.Budgets.List(ctx, user)
		require.NoError(t, err)
	}

	s, err := a.Ledger.Summary(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(12).Equal(s.TotalExpenses))
}

func TestRun_StopsOnCancel(t *testing.T) {
	a, err := app.New(context.Background(), memoryConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- a.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Backend = "sqlite"

	_, err := app.New(context.Background(), cfg, nil)
	assert.Error(t, err)
}
