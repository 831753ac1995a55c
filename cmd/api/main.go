package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/spendwise/internal/app"
	"github.com/MrJamesThe3rd/spendwise/internal/config"
	spendwiseHttp "github.com/MrJamesThe3rd/spendwise/internal/http"
	"github.com/MrJamesThe3rd/spendwise/internal/http/authn"
	budgetHandler "github.com/MrJamesThe3rd/spendwise/internal/http/budget"
	expenseHandler "github.com/MrJamesThe3rd/spendwise/internal/http/expense"
	recommendHandler "github.com/MrJamesThe3rd/spendwise/internal/http/recommend"
	syncHandler "github.com/MrJamesThe3rd/spendwise/internal/http/sync"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Auth.JWTSecret == "" {
		slog.Error("AUTH_JWT_SECRET is required for the API server")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, slog.Default(), app.MultiUser())
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	router := spendwiseHttp.New(spendwiseHttp.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Timeout:        cfg.Server.Timeout,
	}, a.Verifier, spendwiseHttp.Handlers{
		Me:              authn.NewHandler(a.Profiles),
		Expenses:        expenseHandler.NewHandler(a.Ledger, a.Expenses, a.Budgets),
		Budgets:         budgetHandler.NewHandler(a.Budgets),
		Sync:            syncHandler.NewHandler(a.Engine, a.Drafts, a.Monitor),
		Recommendations: recommendHandler.NewHandler(a.Recommend),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.Run(ctx) })

	g.Go(func() error {
		slog.Info("starting server", "port", srv.Addr, "backend", cfg.Backend)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
