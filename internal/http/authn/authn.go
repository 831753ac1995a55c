// Package authn authenticates API requests with bearer tokens.
package authn

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/spendwise/internal/auth"
	"github.com/MrJamesThe3rd/spendwise/internal/http/respond"
)

type TokenVerifier interface {
	Verify(token string) (*auth.User, error)
}

type ProfileStore interface {
	Ensure(ctx context.Context, u *auth.User) error
}

// Middleware rejects requests without a valid bearer token and puts the
// verified user on the request context.
func Middleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respond.Message(w, http.StatusUnauthorized, "authorization header is required")
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respond.Message(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			u, err := v.Verify(token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, auth.ErrTokenExpired) {
					msg = "token expired"
				}

				respond.Message(w, http.StatusUnauthorized, msg)

				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
		})
	}
}

// UserID returns the authenticated user's id. Handlers behind Middleware
// always have one.
func UserID(r *http.Request) string {
	u, ok := auth.FromContext(r.Context())
	if !ok {
		return ""
	}

	return u.ID
}

type Handler struct {
	profiles ProfileStore
}

func NewHandler(profiles ProfileStore) *Handler {
	return &Handler{profiles: profiles}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.me)
	r.Post("/", h.signIn)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.FromContext(r.Context())
	respond.JSON(w, http.StatusOK, u)
}

// signIn records the profile document for the token's identity.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.FromContext(r.Context())

	if err := h.profiles.Ensure(r.Context(), u); err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, u)
}
