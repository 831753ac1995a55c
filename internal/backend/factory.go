// Package backend opens the document store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/spendwise/internal/config"
	"github.com/MrJamesThe3rd/spendwise/internal/database"
	"github.com/MrJamesThe3rd/spendwise/internal/docstore"
	"github.com/MrJamesThe3rd/spendwise/internal/docstore/memory"
	"github.com/MrJamesThe3rd/spendwise/internal/docstore/postgres"
	"github.com/MrJamesThe3rd/spendwise/internal/docstore/supabase"
)

// Result carries the opened store and a cleanup func that is never nil.
type Result struct {
	Store   docstore.Store
	Cleanup func()
}

func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case config.BackendMemory, "":
		logger.Info("using in-memory document store")

		return &Result{Store: memory.New(), Cleanup: func() {}}, nil

	case config.BackendPostgres:
		connString := cfg.ConnectionString()

		db, err := database.New(ctx, connString)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}

		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating documents: %w", err)
		}

		logger.Info("using postgres document store", "host", cfg.DB.Host, "database", cfg.DB.Name)

		return &Result{
			Store: postgres.New(db, connString, logger),
			Cleanup: func() {
				if err := db.Close(); err != nil {
					logger.Error("failed to close database", "error", err)
				}
			},
		}, nil

	case config.BackendSupabase:
		store, err := supabase.New(supabase.Config{
			URL:          cfg.Supabase.URL,
			Key:          cfg.Supabase.Key,
			Table:        cfg.Supabase.Table,
			PollInterval: cfg.Supabase.PollInterval,
		}, logger)
		if err != nil {
			return nil, err
		}

		logger.Info("using supabase document store", "table", cfg.Supabase.Table)

		return &Result{Store: store, Cleanup: func() {}}, nil
	}

	return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
}
