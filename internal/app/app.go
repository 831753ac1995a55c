// Package app assembles the services shared by the API server and the TUI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/spendwise/internal/auth"
	"github.com/MrJamesThe3rd/spendwise/internal/backend"
	"github.com/MrJamesThe3rd/spendwise/internal/budget"
	budgetstore "github.com/MrJamesThe3rd/spendwise/internal/budget/store"
	"github.com/MrJamesThe3rd/spendwise/internal/config"
	"github.com/MrJamesThe3rd/spendwise/internal/connectivity"
	"github.com/MrJamesThe3rd/spendwise/internal/draft"
	"github.com/MrJamesThe3rd/spendwise/internal/expense"
	expensestore "github.com/MrJamesThe3rd/spendwise/internal/expense/store"
	"github.com/MrJamesThe3rd/spendwise/internal/ledger"
	"github.com/MrJamesThe3rd/spendwise/internal/recommend"
	"github.com/MrJamesThe3rd/spendwise/internal/reconcile"
	"github.com/MrJamesThe3rd/spendwise/internal/state"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger

	// State is nil for MultiUser apps.
	State     *state.Store
	Expenses  *expense.Service
	Budgets   *budget.Service
	Drafts    *draft.Store
	Monitor   connectivity.Monitor
	Ledger    *ledger.Ledger
	Engine    *reconcile.Engine
	Recommend *recommend.Service
	Verifier  *auth.Verifier
	Profiles  *auth.Profiles

	prober   *connectivity.Prober
	draftsDB *sql.DB
	cleanup  func()
}

type options struct {
	multiUser bool
}

type Option func(*options)

// MultiUser is for processes serving many users at once. State stays nil
// and nothing is published, since a single snapshot would mix users.
func MultiUser() Option {
	return func(o *options) { o.multiUser = true }
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("opening document store: %w", err)
	}

	draftsDB, err := draft.Open(cfg.Drafts.Path)
	if err != nil {
		store.Cleanup()
		return nil, fmt.Errorf("opening draft store: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Drafts:   draft.New(draftsDB, cfg.Drafts.Key),
		Verifier: auth.NewVerifier(cfg.Auth.JWTSecret),
		Profiles: auth.NewProfiles(store.Store),
		draftsDB: draftsDB,
		cleanup:  store.Cleanup,
	}

	var (
		budgetPub budget.Publisher
		ledgerPub ledger.Publisher
	)

	if !o.multiUser {
		a.State = state.New()
		budgetPub, ledgerPub = a.State, a.State
	}

	a.Expenses = expense.NewService(expensestore.New(store.Store, logger))
	a.Budgets = budget.NewService(budgetstore.New(store.Store, logger), a.Expenses, budgetPub)

	if url := cfg.ProbeURL(); url != "" {
		a.prober = connectivity.NewProber(connectivity.ProberConfig{
			URL:      url,
			Interval: cfg.Connectivity.Interval,
			Timeout:  cfg.Connectivity.Timeout,
		}, &http.Client{}, logger)
		a.Monitor = a.prober
	} else {
		logger.Info("no connectivity probe configured, assuming online")
		a.Monitor = connectivity.NewSwitch(true)
	}

	a.Ledger = ledger.New(a.Expenses, a.Budgets, a.Drafts, a.Monitor, ledgerPub, logger)
	a.Engine = reconcile.New(reconcile.Config{
		Drafts:    a.Drafts,
		Expenses:  a.Expenses,
		Budgets:   a.Budgets,
		Monitor:   a.Monitor,
		Refresher: a.Ledger,
		Logger:    logger,
	})

	var gen recommend.Generator

	if cfg.Gemini.APIKey != "" {
		gemini, err := recommend.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			a.Close()
			return nil, err
		}

		gen = gemini
	} else {
		logger.Info("GEMINI_API_KEY not set, recommendations disabled")
	}

	a.Recommend = recommend.NewService(a.Ledger, gen)

	return a, nil
}

// Run keeps connectivity probing and draft reconciliation going until ctx
// is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.prober != nil {
		g.Go(func() error { return a.prober.Run(ctx) })
	}

	g.Go(func() error { return a.Engine.Run(ctx) })

	return g.Wait()
}

func (a *App) Close() {
	if err := a.draftsDB.Close(); err != nil {
		a.Logger.Error("failed to close draft store", "error", err)
	}

	a.cleanup()
}
