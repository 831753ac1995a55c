package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/spendwise/internal/http/authn"
	"github.com/MrJamesThe3rd/spendwise/internal/http/budget"
	"github.com/MrJamesThe3rd/spendwise/internal/http/expense"
	"github.com/MrJamesThe3rd/spendwise/internal/http/recommend"
	"github.com/MrJamesThe3rd/spendwise/internal/http/sync"
)

type Options struct {
	AllowedOrigins []string
	Timeout        time.Duration
}

type Handlers struct {
	Me              *authn.Handler
	Expenses        *expense.Handler
	Budgets         *budget.Handler
	Sync            *sync.Handler
	Recommendations *recommend.Handler
}

func New(opts Options, verifier authn.TokenVerifier, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authn.Middleware(verifier))
		r.Use(middleware.AllowContentType("application/json"))

		r.Route("/me", h.Me.Routes)
		r.Route("/expenses", h.Expenses.Routes)
		r.Route("/budgets", h.Budgets.Routes)
		r.Route("/sync", h.Sync.Routes)
		r.Route("/recommendations", h.Recommendations.Routes)
	})

	return router
}
